package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Reader yields one Command per input line.
type Reader struct {
	r   *bufio.Reader
	eof bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next reads and parses the next line. It returns io.EOF once the stream
// is exhausted and a *Error for lines that do not form a valid command.
// A final line without a trailing newline is still parsed.
func (r *Reader) Next() (Command, error) {
	if r.eof {
		return nil, io.EOF
	}

	line, err := r.r.ReadBytes('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		r.eof = true
		if len(bytes.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}
	}

	return ParseCommand(bytes.TrimSpace(line))
}
