package monitor

import "strings"

// DefaultSensorPrefix matches the Linux coretemp driver's per-core sensors
const DefaultSensorPrefix = "coretemp"

// LabelFilter retains sensors whose label starts with one of its prefixes
type LabelFilter struct {
	prefixes []string
}

func NewLabelFilter(prefixes ...string) LabelFilter {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, DefaultSensorPrefix)
	}

	return LabelFilter{prefixes: kept}
}

// Match reports whether label names a CPU-core sensor
func (f LabelFilter) Match(label string) bool {
	for _, p := range f.prefixes {
		if strings.HasPrefix(label, p) {
			return true
		}
	}
	return false
}

func (f LabelFilter) Prefixes() []string {
	return append([]string(nil), f.prefixes...)
}
