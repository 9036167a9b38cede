package sensor

import (
	"strconv"
	"strings"

	"codeberg.org/mutker/cpumon/internal/errors"
	"github.com/prometheus/procfs/sysfs"
)

const khzPerMhz = 1000

// readScalingFrequencies returns the current clock of the first count logical
// cores in MHz, as reported by the cpufreq driver under the sysfs mount at
// root. It fails unless every core reports a scaling frequency.
func readScalingFrequencies(root string, count int) ([]uint64, error) {
	errFactory := errors.New()

	if count == 0 {
		return nil, errFactory.New(ErrNoBaseline)
	}

	fs, err := sysfs.NewFS(root)
	if err != nil {
		return nil, errFactory.Wrap(ErrCPUFrequency, err)
	}

	stats, err := fs.SystemCpufreq()
	if err != nil {
		return nil, errFactory.Wrap(ErrCPUFrequency, err)
	}

	frequency := make([]uint64, count)
	found := 0
	for _, st := range stats {
		idx, err := strconv.Atoi(strings.TrimPrefix(st.Name, "cpu"))
		if err != nil || idx < 0 || idx >= count || st.ScalingCurrentFrequency == nil {
			continue
		}
		frequency[idx] = *st.ScalingCurrentFrequency / khzPerMhz
		found++
	}

	if found < count {
		return nil, errFactory.WithData(ErrCPUFrequency, struct {
			Path  string
			Cores int
			Found int
		}{
			Path:  root,
			Cores: count,
			Found: found,
		})
	}

	return frequency, nil
}
