package platform

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-playground/engine/core"
)

// memSource is an in-memory io.ReadSeekCloser that records read sizes.
type memSource struct {
	*bytes.Reader
	maxRead int
	closes  int
}

func newMemSource(s string) *memSource {
	return &memSource{Reader: bytes.NewReader([]byte(s))}
}

func (m *memSource) Read(p []byte) (int, error) {
	m.maxRead = max(m.maxRead, len(p))
	return m.Reader.Read(p)
}

func (m *memSource) Close() error {
	m.closes++
	return nil
}

// failingSource fails every read after the first chunk.
type failingSource struct {
	memSource
	reads int
}

func (f *failingSource) Read(p []byte) (int, error) {
	f.reads++
	if f.reads > 1 {
		return 0, errors.New("disk on fire")
	}
	return f.memSource.Read(p)
}

func readAll(t *testing.T, lr *LineReader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestLineReaderSplitsLines(t *testing.T) {
	lr, err := NewLineReader(newMemSource("v 1 2 3\nvn 0 0 1\n\nf 1//1 2//2 3//3\n"))
	require.NoError(t, err)
	defer lr.Close()

	assert.Equal(t, []string{"v 1 2 3", "vn 0 0 1", "", "f 1//1 2//2 3//3"}, readAll(t, lr))
	assert.Equal(t, 4, lr.LineNumber())

	_, err = lr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderUnterminatedTail(t *testing.T) {
	lr, err := NewLineReader(newMemSource("a\nb"))
	require.NoError(t, err)
	defer lr.Close()

	assert.Equal(t, []string{"a", "b"}, readAll(t, lr))

	_, err = lr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderEmptyInput(t *testing.T) {
	lr, err := NewLineReader(newMemSource(""))
	require.NoError(t, err)
	defer lr.Close()

	_, err = lr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderRespectsChunkSize(t *testing.T) {
	src := newMemSource("first line is long\nsecond\nthird one\n")
	lr, err := NewLineReader(src, WithChunkSize(3))
	require.NoError(t, err)
	defer lr.Close()

	assert.Equal(t, []string{"first line is long", "second", "third one"}, readAll(t, lr))
	assert.Equal(t, 3, src.maxRead)
}

func TestLineReaderCustomDelimiter(t *testing.T) {
	// a two byte delimiter split across chunk boundaries
	lr, err := NewLineReader(newMemSource("one\r\ntwo\r\nthree"), WithDelimiter("\r\n"), WithChunkSize(4))
	require.NoError(t, err)
	defer lr.Close()

	assert.Equal(t, []string{"one", "two", "three"}, readAll(t, lr))
}

func TestLineReaderRewindReproducesSequence(t *testing.T) {
	lr, err := NewLineReader(newMemSource("v 0 0 0\nv 1 0 0\nv 0 1 0"), WithChunkSize(5))
	require.NoError(t, err)
	defer lr.Close()

	first := readAll(t, lr)
	require.NoError(t, lr.Rewind())
	assert.Equal(t, 0, lr.LineNumber())
	assert.Equal(t, first, readAll(t, lr))

	// rewind mid-stream
	require.NoError(t, lr.Rewind())
	line, err := lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "v 0 0 0", line)
	require.NoError(t, lr.Rewind())
	assert.Equal(t, first, readAll(t, lr))
}

func TestLineReaderReadErrorEndsSequence(t *testing.T) {
	src := &failingSource{memSource: *newMemSource("abc\ndef\nghi\n")}
	lr, err := NewLineReader(src, WithChunkSize(6))
	require.NoError(t, err)
	defer lr.Close()

	assert.Equal(t, []string{"abc", "de"}, readAll(t, lr))
}

func TestLineReaderClose(t *testing.T) {
	src := newMemSource("a\n")
	lr, err := NewLineReader(src)
	require.NoError(t, err)

	require.NoError(t, lr.Close())
	require.NoError(t, lr.Close())
	assert.Equal(t, 1, src.closes)

	_, err = lr.Next()
	assert.ErrorIs(t, err, core.ErrInvalidReaderState)
	assert.ErrorIs(t, lr.Rewind(), core.ErrInvalidReaderState)
}

func TestLineReaderLines(t *testing.T) {
	lr, err := NewLineReader(newMemSource("a\nb\nc\nd"))
	require.NoError(t, err)
	defer lr.Close()

	assert.Equal(t, []string{"a", "b", "c", "d"}, slices.Collect(lr.Lines()))

	require.NoError(t, lr.Rewind())
	var got []string
	for line := range lr.Lines() {
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
	// iteration resumes where the loop stopped
	assert.Equal(t, []string{"c", "d"}, slices.Collect(lr.Lines()))
}

func TestLineReaderInvalidOptions(t *testing.T) {
	_, err := NewLineReader(newMemSource(""), WithDelimiter(""))
	assert.ErrorIs(t, err, core.ErrInvalidReaderOption)

	_, err = NewLineReader(newMemSource(""), WithChunkSize(0))
	assert.ErrorIs(t, err, core.ErrInvalidReaderOption)
}

func TestOpenLineReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 1 1 1\nv 2 2 2\n"), 0o644))

	lr, err := OpenLineReader(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"v 1 1 1", "v 2 2 2"}, readAll(t, lr))
	require.NoError(t, lr.Close())

	_, err = OpenLineReader(filepath.Join(dir, "missing.obj"))
	assert.ErrorIs(t, err, core.ErrFileUnreadable)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = OpenLineReader(dir)
	assert.ErrorIs(t, err, core.ErrFileUnreadable)
}
