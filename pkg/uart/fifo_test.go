package uart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFIFO(t *testing.T) {
	f := NewFIFO(3)
	require.Equal(t, 3, f.Cap())
	_, ok := f.Get()
	require.False(t, ok)
	require.True(t, f.Put(1))
	require.True(t, f.Put(2))
	require.True(t, f.Put(3))
	require.False(t, f.Put(4))
	require.Equal(t, 3, f.Len())

	b, ok := f.Get()
	require.True(t, ok)
	require.Equal(t, byte(1), b)
	require.True(t, f.Put(5))

	buf := make([]byte, 8)
	n := f.Take(buf)
	require.Equal(t, []byte{2, 3, 5}, buf[:n])
	require.Equal(t, 0, f.Len())
}

func TestFIFODefaultSize(t *testing.T) {
	require.Equal(t, DefaultFIFOSize, NewFIFO(0).Cap())
}
