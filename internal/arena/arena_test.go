package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocZeroesAndAligns(t *testing.T) {
	a := New(8)
	b := a.Alloc(3)
	require.Len(t, b, 3)
	require.Equal(t, []byte{0, 0, 0}, b)
	a.Alloc(1)
	require.Equal(t, 9, a.offset, "the second allocation starts at the next 8-byte boundary")
}

func TestAllocGrowsAcrossRequests(t *testing.T) {
	a := New(4)
	for i := 0; i < 10; i++ {
		b := a.Alloc(37)
		require.Len(t, b, 37)
	}
}

func TestStrdupIsIndependentCopy(t *testing.T) {
	a := New(16)
	src := []byte("hello")
	s := a.Strdup(string(src))
	src[0] = 'H'
	require.Equal(t, "hello", s)
}

func TestResetInvalidatesOffsetNotBackingArray(t *testing.T) {
	a := New(64)
	a.Alloc(32)
	a.Reset()
	b := a.Alloc(8)
	require.Len(t, b, 8)
}

func TestGrowthPolicyDoublesRepeatedly(t *testing.T) {
	a := New(1)
	b := a.Alloc(100)
	require.Len(t, b, 100)
	require.GreaterOrEqual(t, len(a.buf), 100)
}
