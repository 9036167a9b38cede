package telemetry

// Config controls the run statistics collector
type Config struct {
	// TextfilePath is where statistics are written in Prometheus text
	// format; empty disables collection
	TextfilePath string
	Namespace    string
}

func DefaultConfig() Config {
	return Config{
		Namespace: defaultNamespace,
	}
}

func (c Config) Enabled() bool {
	return c.TextfilePath != ""
}
