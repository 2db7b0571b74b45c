// Package astreader parses the text protocol internal/astwriter
// produces back into a *ast.Program, playing the role of the
// teacher's lang/sem/reader.go ASTReader against lang/yparse's
// writer. It is deliberately not a C lexer or grammar: it only
// reconstructs an already-built tree from its own dump format.
package astreader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gmofishsauce/cc2llvm/internal/arena"
	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// Reader parses the line-oriented S-expression protocol written by
// internal/astwriter.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	syms    *symtab.Table
	ar      *arena.Arena
}

// New creates a Reader that reads from r, resolving struct/union/enum
// tag references against syms as it goes. Identifier names, tags, and
// string-literal payloads are interned into ar so they share the
// compilation's single arena lifetime; a nil ar gets a private arena.
func New(r io.Reader, syms *symtab.Table, ar *arena.Arena) *Reader {
	if ar == nil {
		ar = arena.New(1 << 14)
	}
	return &Reader{scanner: bufio.NewScanner(r), syms: syms, ar: ar}
}

// Read parses every line into a top-level declaration, mirroring
// ASTReader.Read()'s line-dispatch structure in the teacher.
func (rd *Reader) Read() (*ast.Program, error) {
	var decls []ast.Decl
	for rd.scanner.Scan() {
		rd.lineNum++
		line := strings.TrimSpace(rd.scanner.Text())
		if line == "" {
			continue
		}
		p := &parser{toks: tokenize(line), syms: rd.syms, ar: rd.ar}
		d, err := p.parseDecl()
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", rd.lineNum)
		}
		decls = append(decls, d)
		registerTags(d, rd.syms)
	}
	if err := rd.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading AST input")
	}
	return &ast.Program{Decls: decls}, nil
}

// registerTags pre-populates the tag namespace so a later line's type
// string (e.g. "struct:Point" in a var declaration) resolves to the
// same shape already parsed, the way the teacher's reader threads
// struct definitions into its symbol table as it scans.
func registerTags(d ast.Decl, syms *symtab.Table) {
	switch n := d.(type) {
	case *ast.AggregateDecl:
		var ti *types.TypeInfo
		if n.Kind == ast.AggregateUnion {
			ti = types.UnionType(n.Tag)
		} else {
			ti = types.StructType(n.Tag)
		}
		for _, f := range n.Fields {
			ft := f.FieldType
			if f.ArrayLen > 0 {
				ft = types.ArrayOf(ft, f.ArrayLen)
			}
			ti.AddMember(f.Name, ft)
		}
		ti.FinishLayout()
		syms.TagAdd(n.Tag, ti)
	case *ast.EnumDecl:
		syms.TagAdd(n.Tag, types.EnumType(n.Tag))
	}
}

// tokenize splits one line into parens, quoted strings, and bare
// words.
func tokenize(line string) []string {
	var toks []string
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == '"':
			j := i + 1
			for j < len(line) {
				if line[j] == '\\' {
					j += 2
					continue
				}
				if line[j] == '"' {
					break
				}
				j++
			}
			toks = append(toks, line[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' && line[j] != '(' && line[j] != ')' {
				j++
			}
			toks = append(toks, line[i:j])
			i = j
		}
	}
	return toks
}

type parser struct {
	toks []string
	pos  int
	syms *symtab.Table
	ar   *arena.Arena
}

// name consumes the next token and interns it as an arena-owned name.
func (p *parser) name() string {
	return p.ar.Strdup(p.next())
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) string {
	i := p.pos + off
	if i >= len(p.toks) {
		return ""
	}
	return p.toks[i]
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(s string) error {
	t := p.next()
	if t != s {
		return fmt.Errorf("expected %q, got %q at token %d", s, t, p.pos-1)
	}
	return nil
}

func (p *parser) parseDecl() (ast.Decl, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	tag := p.next()
	switch tag {
	case "var":
		return p.parseVarDeclBody()
	case "func":
		return p.parseFuncDeclBody()
	case "struct", "union":
		return p.parseAggregateBody(tag)
	case "enum":
		return p.parseEnumBody()
	case "typedef":
		name := p.name()
		tstr := p.next()
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return &ast.TypedefDecl{Name: name, Type: parseTypeString(tstr, p.syms)}, nil
	default:
		return nil, fmt.Errorf("unknown declaration tag %q", tag)
	}
}

func (p *parser) parseVarDeclBody() (*ast.VarDecl, error) {
	vd := &ast.VarDecl{Name: p.name()}
	vd.VarType = parseTypeString(p.next(), p.syms)
	for p.peek() != ")" && p.peek() != "" {
		switch p.peek() {
		case "dims":
			p.next()
			dims, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			vd.ArrayDims = dims
		case "empty":
			p.next()
			vd.IsEmpty = true
		case "init":
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			vd.Init = x
		case "initlist":
			p.next()
			elems, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			vd.InitList = elems
		default:
			p.next()
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return vd, nil
}

func (p *parser) parseFuncDeclBody() (*ast.FuncDecl, error) {
	fd := &ast.FuncDecl{Name: p.name()}
	fd.ReturnType = parseTypeString(p.next(), p.syms)
	if err := p.expect("("); err != nil {
		return nil, err
	}
	for p.peek() != ")" && p.peek() != "" {
		if err := p.expect("("); err != nil {
			return nil, err
		}
		pname := p.name()
		ptstr := p.next()
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		fd.Params = append(fd.Params, &ast.Param{Name: pname, Type: parseTypeString(ptstr, p.syms)})
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if p.peek() == "variadic" {
		p.next()
		fd.Variadic = true
	}
	if p.peek() != ")" {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body, ok := s.(*ast.CompoundStmt)
		if !ok {
			return nil, fmt.Errorf("function body is not a block")
		}
		fd.Body = body
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return fd, nil
}

func (p *parser) parseAggregateBody(tag string) (*ast.AggregateDecl, error) {
	d := &ast.AggregateDecl{Tag: p.name()}
	if tag == "union" {
		d.Kind = ast.AggregateUnion
	}
	for p.peek() != ")" && p.peek() != "" {
		if err := p.expect("("); err != nil {
			return nil, err
		}
		fname := p.name()
		ftstr := p.next()
		arrLen := 0
		if p.peek() != ")" {
			v, _ := strconv.Atoi(p.next())
			arrLen = v
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, &ast.FieldDecl{Name: fname, FieldType: parseTypeString(ftstr, p.syms), ArrayLen: arrLen})
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseEnumBody() (*ast.EnumDecl, error) {
	d := &ast.EnumDecl{Tag: p.name()}
	for p.peek() != ")" && p.peek() != "" {
		if err := p.expect("("); err != nil {
			return nil, err
		}
		name := p.name()
		var val ast.Expr
		if p.peek() != ")" {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			val = x
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		d.Enumerators = append(d.Enumerators, &ast.Enumerator{Name: name, Value: val})
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseExprList() ([]ast.Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var out []ast.Expr
	for p.peek() != ")" && p.peek() != "" {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseOptExpr() (ast.Expr, error) {
	if p.peek() == "(" && p.peekAt(1) == "none" {
		p.next()
		p.next()
		return nil, p.expect(")")
	}
	return p.parseExpr()
}

func (p *parser) parseExpr() (ast.Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	tag := p.next()
	var result ast.Expr
	var err error
	switch tag {
	case "const":
		v, _ := strconv.ParseInt(p.next(), 10, 64)
		result = &ast.ConstExpr{Value: v}
	case "str":
		raw := p.next()
		s, uerr := strconv.Unquote(raw)
		if uerr != nil {
			s = raw
		}
		result = &ast.StringExpr{Value: p.ar.Strdup(s)}
	case "ident":
		result = &ast.IdentExpr{Name: p.name()}
	case "binop":
		opSym := p.next()
		var l, r ast.Expr
		if l, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if r, err = p.parseExpr(); err != nil {
			return nil, err
		}
		result = &ast.BinaryExpr{Op: parseBinOp(opSym), Left: l, Right: r}
	case "assign":
		opv, _ := strconv.Atoi(p.next())
		var l, r ast.Expr
		if l, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if r, err = p.parseExpr(); err != nil {
			return nil, err
		}
		result = &ast.AssignExpr{Op: ast.AssignOp(opv), LHS: l, RHS: r}
	case "unop":
		opv, _ := strconv.Atoi(p.next())
		var operand ast.Expr
		if operand, err = p.parseExpr(); err != nil {
			return nil, err
		}
		result = &ast.UnaryExpr{Op: ast.UnaryOp(opv), Operand: operand}
	case "cast":
		tstr := p.next()
		var operand ast.Expr
		if operand, err = p.parseExpr(); err != nil {
			return nil, err
		}
		result = &ast.CastExpr{TargetType: parseTypeString(tstr, p.syms), Operand: operand}
	case "call":
		callee := p.name()
		args, aerr := p.parseExprList()
		if aerr != nil {
			return nil, aerr
		}
		result = &ast.CallExpr{Callee: callee, Args: args}
	case "index":
		var arr, idx ast.Expr
		if arr, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if idx, err = p.parseExpr(); err != nil {
			return nil, err
		}
		result = &ast.IndexExpr{Array: arr, Index: idx}
	case "field":
		op := p.next()
		var obj ast.Expr
		if obj, err = p.parseExpr(); err != nil {
			return nil, err
		}
		field := p.name()
		result = &ast.FieldExpr{Object: obj, Field: field, IsArrow: op == "->"}
	case "ternary":
		var c, th, el ast.Expr
		if c, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if th, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if el, err = p.parseExpr(); err != nil {
			return nil, err
		}
		result = &ast.TernaryExpr{Cond: c, Then: th, Else: el}
	case "initlist":
		elems, lerr := p.parseExprList()
		if lerr != nil {
			return nil, lerr
		}
		result = &ast.InitListExpr{Elems: elems}
	default:
		return nil, fmt.Errorf("unknown expression tag %q", tag)
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	tag := p.next()
	switch tag {
	case "nil":
		return nil, p.expect(")")
	case "block":
		var items []ast.Stmt
		for p.peek() != ")" && p.peek() != "" {
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
		return &ast.CompoundStmt{Items: items}, p.expect(")")
	case "var":
		vd := &ast.VarDecl{Name: p.name()}
		vd.VarType = parseTypeString(p.next(), p.syms)
		for p.peek() != ")" && p.peek() != "" {
			switch p.peek() {
			case "dims":
				p.next()
				dims, err := p.parseExprList()
				if err != nil {
					return nil, err
				}
				vd.ArrayDims = dims
			case "empty":
				p.next()
				vd.IsEmpty = true
			case "init":
				p.next()
				x, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				vd.Init = x
			case "initlist":
				p.next()
				elems, err := p.parseExprList()
				if err != nil {
					return nil, err
				}
				vd.InitList = elems
			default:
				p.next()
			}
		}
		return &ast.DeclStmt{Decl: vd}, p.expect(")")
	case "exprstmt":
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x}, p.expect(")")
	case "empty-stmt":
		return &ast.ExprStmt{}, p.expect(")")
	case "if":
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		var els ast.Stmt
		if p.peek() != ")" {
			els, err = p.parseStmt()
			if err != nil {
				return nil, err
			}
		}
		return &ast.IfStmt{Cond: cond, Then: then, Else: els}, p.expect(")")
	case "while":
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body}, p.expect(")")
	case "do":
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.DoWhileStmt{Body: body, Cond: cond}, p.expect(")")
	case "for":
		init, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		cond, err := p.parseOptExpr()
		if err != nil {
			return nil, err
		}
		post, err := p.parseOptExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body}, p.expect(")")
	case "switch":
		tagExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ast.SwitchStmt{Tag: tagExpr, Body: body}, p.expect(")")
	case "case":
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.CaseStmt{Value: v}, p.expect(")")
	case "default":
		return &ast.DefaultStmt{}, p.expect(")")
	case "break":
		return &ast.BreakStmt{}, p.expect(")")
	case "continue":
		return &ast.ContinueStmt{}, p.expect(")")
	case "return":
		if p.peek() == ")" {
			return &ast.ReturnStmt{}, p.expect(")")
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Value: v}, p.expect(")")
	case "goto":
		return &ast.GotoStmt{Label: p.name()}, p.expect(")")
	case "label":
		return &ast.LabelStmt{Label: p.name()}, p.expect(")")
	default:
		return nil, fmt.Errorf("unknown statement tag %q", tag)
	}
}

func parseBinOp(sym string) ast.BinaryOp {
	switch sym {
	case "+":
		return ast.OpAdd
	case "-":
		return ast.OpSub
	case "*":
		return ast.OpMul
	case "/":
		return ast.OpDiv
	case "%":
		return ast.OpMod
	case "&":
		return ast.OpAnd
	case "|":
		return ast.OpOr
	case "^":
		return ast.OpXor
	case "<<":
		return ast.OpShl
	case ">>":
		return ast.OpShr
	case "&&":
		return ast.OpLAnd
	case "||":
		return ast.OpLOr
	case "==":
		return ast.OpEq
	case "!=":
		return ast.OpNe
	case "<":
		return ast.OpLt
	case ">":
		return ast.OpGt
	case "<=":
		return ast.OpLe
	case ">=":
		return ast.OpGe
	default:
		return ast.OpInvalid
	}
}

// parseTypeString is the inverse of astwriter's typeString.
func parseTypeString(s string, syms *symtab.Table) *types.TypeInfo {
	switch {
	case strings.HasPrefix(s, "ptr:"):
		return types.PointerTo(parseTypeString(s[len("ptr:"):], syms))
	case strings.HasPrefix(s, "arr:"):
		rest := s[len("arr:"):]
		idx := strings.Index(rest, ":")
		if idx < 0 {
			return types.IntType()
		}
		n, _ := strconv.Atoi(rest[:idx])
		return types.ArrayOf(parseTypeString(rest[idx+1:], syms), n)
	case strings.HasPrefix(s, "struct:"):
		tag := s[len("struct:"):]
		if syms != nil {
			if ti := syms.TagLookup(tag); ti != nil {
				return ti
			}
		}
		return types.StructType(tag)
	case strings.HasPrefix(s, "union:"):
		tag := s[len("union:"):]
		if syms != nil {
			if ti := syms.TagLookup(tag); ti != nil {
				return ti
			}
		}
		return types.UnionType(tag)
	case strings.HasPrefix(s, "enum:"):
		tag := s[len("enum:"):]
		if syms != nil {
			if ti := syms.TagLookup(tag); ti != nil {
				return ti
			}
		}
		return types.EnumType(tag)
	}
	switch s {
	case "void":
		return types.VoidType()
	case "bool":
		return types.BoolType()
	case "char":
		return types.CharType()
	case "short":
		return types.ShortType()
	case "int":
		return types.IntType()
	case "long":
		return types.LongType()
	case "float":
		return types.FloatType()
	case "double":
		return types.DoubleType()
	default:
		return types.IntType()
	}
}
