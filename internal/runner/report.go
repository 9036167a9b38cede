package runner

import (
	"os"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type reportDocument struct {
	Status   string         `yaml:"status"`
	Started  time.Time      `yaml:"started"`
	Finished time.Time      `yaml:"finished"`
	Loops    []loopDocument `yaml:"loops"`
	Failed   []string       `yaml:"failed,omitempty"`
}

type loopDocument struct {
	Name        string `yaml:"name"`
	Ticks       int    `yaml:"ticks"`
	Records     int    `yaml:"records"`
	WriteErrors int    `yaml:"write_errors"`
	Elapsed     string `yaml:"elapsed"`
	Cancelled   bool   `yaml:"cancelled"`
	Error       string `yaml:"error,omitempty"`
	ErrorCode   string `yaml:"error_code,omitempty"`
}

func (r Report) document() reportDocument {
	doc := reportDocument{
		Status:   StatusOK,
		Started:  r.Started,
		Finished: r.Finished,
		Failed:   r.Failed(),
	}
	if len(doc.Failed) > 0 {
		doc.Status = StatusFailed
	}

	for _, l := range r.Loops {
		ld := loopDocument{
			Name:        l.Name,
			Ticks:       l.Ticks,
			Records:     l.Records,
			WriteErrors: l.WriteErrors,
			Elapsed:     l.Elapsed.String(),
			Cancelled:   l.Cancelled,
		}
		if l.Err != nil {
			ld.Error = l.Err.Error()
			if code, ok := errors.CodeOf(l.Err); ok {
				ld.ErrorCode = string(code)
			}
		}
		doc.Loops = append(doc.Loops, ld)
	}

	return doc
}

// WriteReport stores a YAML summary of the run at path
func WriteReport(path string, r Report) error {
	errFactory := errors.New()

	raw, err := yaml.Marshal(r.document())
	if err != nil {
		return errFactory.Wrap(ErrWriteReport, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errFactory.Wrap(ErrWriteReport, err)
	}

	return nil
}
