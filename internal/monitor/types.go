package monitor

// TimestampLayout formats capture times as local wall-clock time with
// nanoseconds and zone offset.
const TimestampLayout = "2006-01-02 15:04:05.000000000 -07:00"

// CPUMetric is one logical core's reading at one tick
type CPUMetric struct {
	Timestamp   string  `csv:"timestamp"`
	ThreadLabel string  `csv:"thread_label"`
	Utilization float64 `csv:"utilization"`
	Frequency   uint64  `csv:"frequency"`
}

// Temperature is one CPU-core sensor's reading at one tick
type Temperature struct {
	Timestamp   string  `csv:"timestamp"`
	Label       string  `csv:"label"`
	Temperature float64 `csv:"temperature"`
}
