// Package tabular serializes flat record structs to CSV files: one header row
// naming the columns in field declaration order, then one row per record.
// Columns are named by the `csv` struct tag, or the field name when untagged;
// `csv:"-"` skips a field.
package tabular

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/mutker/cpumon/internal/errors"
	"github.com/gocarina/gocsv"
	"github.com/google/renameio/v2"
)

const defaultFilePerm = 0o644

// Write writes a header and one row per record to w
func Write[T any](w io.Writer, records []T) error {
	if err := gocsv.Marshal(records, w); err != nil {
		return errors.New().Wrap(ErrWrite, err)
	}
	return nil
}

func writeRows[T any](w io.Writer, records []T) error {
	if err := gocsv.MarshalWithoutHeaders(records, w); err != nil {
		return errors.New().Wrap(ErrWrite, err)
	}
	return nil
}

// Dump replaces the file at path with the full record sequence. The rows are
// written to a temporary file in the same directory which is then renamed
// over path, so the file always holds a complete table. An existing file
// keeps its permissions. Missing parent directories are not created.
func Dump[T any](records []T, path string) error {
	errFactory := errors.New()

	pf, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(defaultFilePerm),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}
	// No-op once replaced
	defer pf.Cleanup()

	bw := bufio.NewWriter(pf)
	if err := Write(bw, records); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}

	return nil
}

// Read parses a table written by Write. Columns are matched by header name;
// unknown columns are ignored and missing ones leave the zero value.
func Read[T any](r io.Reader) ([]T, error) {
	errFactory := errors.New()

	var records []T
	if err := gocsv.Unmarshal(r, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, errFactory.Wrap(ErrParseField, err)
		}
		return nil, errFactory.Wrap(ErrRead, err)
	}

	return records, nil
}

// Load reads the table stored at path
func Load[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New().Wrap(ErrRead, err)
	}
	defer f.Close()

	return Read[T](bufio.NewReader(f))
}
