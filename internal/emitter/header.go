package emitter

// emitHeader writes the module preamble: the target triple and
// declarations for the variadic helper intrinsics, per spec §4.5.1
// step 1 and the external-interface list in §6.
func (e *Emitter) emitHeader() {
	e.emitRaw("target triple = \"x86_64-unknown-linux-gnu\"\n\n")
	e.emitRaw("declare void @llvm.va_start(i8*)\n")
	e.emitRaw("declare void @llvm.va_end(i8*)\n")
	e.emitRaw("declare void @llvm.memcpy.p0i8.p0i8.i64(i8*, i8*, i64, i1)\n")
	e.emitRaw("declare void @llvm.memset.p0i8.i64(i8*, i8, i64, i1)\n")
	e.emitRaw("\n")
}
