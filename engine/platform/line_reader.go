package platform

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/spaghettifunk/anima-playground/engine/core"
)

const (
	DefaultDelimiter = "\n"
	DefaultChunkSize = 4096
)

type lineReaderOptions struct {
	delimiter string
	chunkSize int
}

type LineReaderOption func(*lineReaderOptions)

func WithDelimiter(delimiter string) LineReaderOption {
	return func(o *lineReaderOptions) {
		o.delimiter = delimiter
	}
}

func WithChunkSize(size int) LineReaderOption {
	return func(o *lineReaderOptions) {
		o.chunkSize = size
	}
}

func buildOptions(options []LineReaderOption) (*lineReaderOptions, error) {
	opts := &lineReaderOptions{
		delimiter: DefaultDelimiter,
		chunkSize: DefaultChunkSize,
	}
	for _, o := range options {
		o(opts)
	}
	if opts.delimiter == "" {
		return nil, fmt.Errorf("empty delimiter: %w", core.ErrInvalidReaderOption)
	}
	if opts.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", opts.chunkSize, core.ErrInvalidReaderOption)
	}
	return opts, nil
}

// LineReader splits a seekable byte source into delimiter separated lines,
// reading it in fixed size chunks. It is not safe for concurrent use.
type LineReader struct {
	src   io.ReadSeekCloser
	delim []byte
	chunk []byte
	buf   []byte

	// drained is set once the source reported end of input (or failed).
	drained bool
	atEOF   bool
	closed  bool
	line    int
}

// OpenLineReader opens the file at path. The caller owns the returned reader
// and must Close it.
func OpenLineReader(path string, options ...LineReaderOption) (*LineReader, error) {
	opts, err := buildOptions(options)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnreadable, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("open %s: %w: is a directory", path, core.ErrFileUnreadable)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnreadable, err)
	}
	return newLineReader(f, opts), nil
}

// NewLineReader wraps an already opened source. Closing the reader closes src.
func NewLineReader(src io.ReadSeekCloser, options ...LineReaderOption) (*LineReader, error) {
	opts, err := buildOptions(options)
	if err != nil {
		return nil, err
	}
	return newLineReader(src, opts), nil
}

func newLineReader(src io.ReadSeekCloser, opts *lineReaderOptions) *LineReader {
	return &LineReader{
		src:   src,
		delim: []byte(opts.delimiter),
		chunk: make([]byte, opts.chunkSize),
		buf:   make([]byte, 0, opts.chunkSize),
	}
}

// Next returns the next line without its delimiter, or io.EOF once the input
// is exhausted. Trailing data without a delimiter is returned as a last line.
func (lr *LineReader) Next() (string, error) {
	if lr.closed {
		return "", core.ErrInvalidReaderState
	}
	if lr.atEOF {
		return "", io.EOF
	}
	for {
		if i := bytes.Index(lr.buf, lr.delim); i >= 0 {
			line := string(lr.buf[:i])
			n := copy(lr.buf, lr.buf[i+len(lr.delim):])
			lr.buf = lr.buf[:n]
			lr.line++
			return line, nil
		}
		if lr.drained {
			lr.atEOF = true
			if len(lr.buf) == 0 {
				return "", io.EOF
			}
			line := string(lr.buf)
			lr.buf = lr.buf[:0]
			lr.line++
			return line, nil
		}
		// read errors end the sequence the same way EOF does
		n, err := lr.src.Read(lr.chunk)
		lr.buf = append(lr.buf, lr.chunk[:n]...)
		if n == 0 || err != nil {
			lr.drained = true
		}
	}
}

// Lines exposes the remaining lines as a range-over-func sequence. Iteration
// stops at end of input or at the first error.
func (lr *LineReader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, err := lr.Next()
			if err != nil {
				return
			}
			if !yield(line) {
				return
			}
		}
	}
}

// LineNumber is the number of lines returned since the last rewind.
func (lr *LineReader) LineNumber() int {
	return lr.line
}

// Rewind restarts the sequence at the first line.
func (lr *LineReader) Rewind() error {
	if lr.closed {
		return core.ErrInvalidReaderState
	}
	if _, err := lr.src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	lr.buf = lr.buf[:0]
	lr.drained = false
	lr.atEOF = false
	lr.line = 0
	return nil
}

// Close releases the underlying source. Calling it more than once is a no-op.
func (lr *LineReader) Close() error {
	if lr.closed {
		return nil
	}
	lr.closed = true
	lr.buf = nil
	return lr.src.Close()
}
