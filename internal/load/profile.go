package load

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"gopkg.in/yaml.v3"
)

// Step holds one load level for a fixed time
type Step struct {
	Load     float64 `yaml:"load"`
	Duration float64 `yaml:"duration_s"`
}

func (s Step) duration() time.Duration {
	return seconds(s.Duration)
}

// CoreSequence plays Sequence on one core Repeat times
type CoreSequence struct {
	CPU      int    `yaml:"cpu_num"`
	Repeat   int    `yaml:"repeat"`
	Sequence []Step `yaml:"sequence"`
}

// Profile is a list of per-core load sequences run in parallel. The file
// format is a JSON array; YAML is accepted too.
type Profile []CoreSequence

const maxStepSeconds = float64(math.MaxInt64 / int64(time.Second))

func ReadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New().Wrap(ErrReadProfile, err)
	}
	defer f.Close()

	return ParseProfile(f)
}

func ParseProfile(r io.Reader) (Profile, error) {
	var p Profile
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New().WithMessage(ErrInvalidProfile, "empty profile")
		}
		return nil, errors.New().Wrap(ErrInvalidProfile, err)
	}

	return p, nil
}

// Validate checks every sequence against the cores of this machine. A core
// may appear in at most one sequence.
func (p Profile) Validate(numCPU int) error {
	errFactory := errors.New()

	if len(p) == 0 {
		return errFactory.WithMessage(ErrInvalidProfile, "profile has no sequences")
	}

	seen := make(map[int]bool, len(p))
	for i, seq := range p {
		if err := validateCore(seq.CPU, numCPU); err != nil {
			return err
		}
		if seen[seq.CPU] {
			return errFactory.WithMessage(ErrInvalidProfile,
				fmt.Sprintf("sequence %d: core %d already has a sequence", i, seq.CPU))
		}
		seen[seq.CPU] = true

		if seq.Repeat < 0 {
			return errFactory.WithMessage(ErrInvalidProfile,
				fmt.Sprintf("sequence %d: negative repeat %d", i, seq.Repeat))
		}
		for j, step := range seq.Sequence {
			if err := validateLoad(step.Load); err != nil {
				return err
			}
			if math.IsNaN(step.Duration) || step.Duration < 0 || step.Duration > maxStepSeconds {
				return errFactory.WithMessage(ErrInvalidProfile,
					fmt.Sprintf("sequence %d step %d: invalid duration %v", i, j, step.Duration))
			}
		}
	}

	return nil
}

func validateCore(core, numCPU int) error {
	if core < 0 || core >= numCPU {
		return errors.New().WithData(ErrInvalidCore, struct {
			Core  int
			Cores int
		}{core, numCPU})
	}
	return nil
}

func validateLoad(target float64) error {
	if math.IsNaN(target) || target < 0 || target > 1 {
		return errors.New().WithData(ErrInvalidLoad, target)
	}
	return nil
}
