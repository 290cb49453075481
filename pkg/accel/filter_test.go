package accel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMedian3(t *testing.T) {
	testCases := []struct {
		a, b, c, expect byte
	}{
		{1, 2, 3, 2},
		{3, 2, 1, 2},
		{2, 3, 1, 2},
		{3, 1, 2, 2},
		{1, 3, 2, 2},
		{2, 1, 3, 2},
		{5, 5, 1, 5},
		{0, 0xff, 0x80, 0x80},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, Median3(tc.a, tc.b, tc.c), "%d %d %d", tc.a, tc.b, tc.c)
	}
}

func TestFilterPush(t *testing.T) {
	var f Filter
	_, changed := f.Push([3]byte{10, 20, 30})
	require.False(t, changed)

	median, changed := f.Push([3]byte{10, 20, 30})
	require.True(t, changed)
	require.Equal(t, [3]byte{10, 20, 30}, median)

	median, changed = f.Push([3]byte{90, 20, 30})
	require.False(t, changed)
	require.Equal(t, [3]byte{10, 20, 30}, median)

	median, changed = f.Push([3]byte{90, 21, 30})
	require.True(t, changed)
	require.Equal(t, [3]byte{90, 20, 30}, median)

	f.Reset()
	_, changed = f.Push([3]byte{1, 1, 1})
	require.False(t, changed)
}
