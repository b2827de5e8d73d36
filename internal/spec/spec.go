package spec

type sinkConfigs struct {
	Kafka  KafkaSink  `yaml:"kafka"`
	Stdout StdoutSink `yaml:"stdout"`
}

type KafkaSink struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int16    `yaml:"required_acks"` // 0,1,-1
}

type StdoutSink struct {
	Separator string `yaml:"separator"`
}

type debugSection struct {
	LogChunks     bool `yaml:"log_chunks"`
	ValueMaxBytes int  `yaml:"value_max_bytes"`
}

// UnitSpec names a codec unit and its parameters.
type UnitSpec struct {
	Type   string            `yaml:"type"`
	Params map[string]string `yaml:"params"`
}

// PipelineSpec is an ordered chain of units run as one compound transform.
type PipelineSpec struct {
	Name      string     `yaml:"name"`
	Threshold int        `yaml:"threshold"` // 0 = preferred chunk size of the first unit
	Units     []UnitSpec `yaml:"units"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Pipelines []PipelineSpec `yaml:"pipelines"`

	// Optional. Without a source the pipelines are only reachable over gRPC.
	Source struct {
		Kind     string `yaml:"kind"`
		Driver   string `yaml:"driver"`
		Config   string `yaml:"config"`
		Pipeline string `yaml:"pipeline"`
	} `yaml:"source"`

	Sinks       []string     `yaml:"sinks"`
	SinkConfigs sinkConfigs  `yaml:"sink_configs"`
	Debug       debugSection `yaml:"debug"`
}
