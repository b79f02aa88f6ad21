package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexLines(t *testing.T) {
	idx := FromString("abc\ndef\n\nghi")
	require.Equal(t, ImmediateFilename, idx.Filename())
	require.Equal(t, 4, idx.LineCount())

	line1, err := idx.Line(1)
	require.NoError(t, err)
	require.Equal(t, "abc", string(line1))

	line3, err := idx.Line(3)
	require.NoError(t, err)
	require.Equal(t, "", string(line3))

	line4, err := idx.Line(4)
	require.NoError(t, err)
	require.Equal(t, "ghi", string(line4))

	_, err = idx.Line(0)
	require.Error(t, err)
	_, err = idx.Line(5)
	require.Error(t, err)
}

func TestLineNumberOfOffset(t *testing.T) {
	idx := FromString("abc\ndef\nghi")
	// offsets: a=0 b=1 c=2 \n=3 d=4 e=5 f=6 \n=7 g=8 h=9 i=10
	require.Equal(t, 1, idx.LineNumberOfOffset(0))
	require.Equal(t, 1, idx.LineNumberOfOffset(2))
	require.Equal(t, 2, idx.LineNumberOfOffset(4))
	require.Equal(t, 3, idx.LineNumberOfOffset(8))
	require.Equal(t, -1, idx.LineNumberOfOffset(100))
	require.Equal(t, -1, idx.LineNumberOfOffset(len("abc\ndef\nghi")))
}

func TestColumnOfOffset(t *testing.T) {
	idx := FromString("abc\ndef")
	require.Equal(t, 1, idx.ColumnOfOffset(0))
	require.Equal(t, 3, idx.ColumnOfOffset(2))
	require.Equal(t, 1, idx.ColumnOfOffset(4))
}
