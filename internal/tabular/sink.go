package tabular

import (
	"bufio"
	"context"
	"os"

	"codeberg.org/mutker/cpumon/internal/errors"
)

// Mode selects how a FileSink persists a growing buffer
type Mode string

const (
	// ModeRewrite rewrites the whole table on every flush
	ModeRewrite Mode = "rewrite"
	// ModeAppend writes the header once and appends only new rows
	ModeAppend Mode = "append"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRewrite, "":
		return ModeRewrite, nil
	case ModeAppend:
		return ModeAppend, nil
	}
	return "", errors.New().WithData(ErrInvalidMode, s)
}

// FileSink persists an append-only buffer to a CSV file. It is handed the
// full buffer on every flush; after each successful flush the file holds
// exactly the header plus every record, whichever mode is used.
type FileSink[T any] struct {
	path    string
	mode    Mode
	written int
}

func NewFileSink[T any](path string, mode Mode) *FileSink[T] {
	if mode == "" {
		mode = ModeRewrite
	}
	return &FileSink[T]{path: path, mode: mode}
}

func (s *FileSink[T]) Path() string {
	return s.path
}

func (s *FileSink[T]) Flush(_ context.Context, records []T) error {
	if s.mode == ModeRewrite || s.written == 0 || len(records) < s.written {
		if err := Dump(records, s.path); err != nil {
			s.written = 0
			return err
		}
		s.written = len(records)
		return nil
	}

	if err := s.appendRows(records[s.written:]); err != nil {
		// the file may now end in a partial row; rewrite it in full next time
		s.written = 0
		return err
	}
	s.written = len(records)

	return nil
}

func (s *FileSink[T]) appendRows(records []T) error {
	if len(records) == 0 {
		return nil
	}

	errFactory := errors.New()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}

	bw := bufio.NewWriter(f)
	if err := writeRows(bw, records); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errFactory.Wrap(ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}

	return nil
}
