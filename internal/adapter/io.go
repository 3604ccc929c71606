package adapter

import (
	"fmt"
	"io"
)

// IO defines an interface for IO operations to enable mocking
//
//go:generate mockgen -source=io.go -destination=../mocks/io.go -package=mocks -mock_names=IO=MockIO
type IO interface {
	// ReadAll reads r until EOF
	ReadAll(r io.Reader) ([]byte, error)
	// ReadAtMost reads r until EOF, failing if more than limit bytes are available
	ReadAtMost(r io.Reader, limit int64) ([]byte, error)
}

// RealIO implements IO using the standard io package
type RealIO struct{}

// NewIO creates a new real IO implementation
func NewIO() IO {
	return &RealIO{}
}

func (i *RealIO) ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

func (i *RealIO) ReadAtMost(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("content exceeds %d bytes", limit)
	}
	return b, nil
}
