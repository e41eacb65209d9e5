package config

// Config is the complete rufusd configuration.
type Config struct {
	Version string          `yaml:"version" json:"version"`
	Global  GlobalConfig    `yaml:"global" json:"global"`
	Jobs    map[string]*Job `yaml:"jobs" json:"jobs"`
}

// GlobalConfig contains daemon-wide settings.
type GlobalConfig struct {
	Frequency        string  `yaml:"frequency" json:"frequency"` // scheduler tick, duration string
	LogLevel         string  `yaml:"log_level" json:"log_level"` // debug | info | warn | error
	LogFormat        string  `yaml:"log_format" json:"log_format"` // json | text
	HistorySize      int     `yaml:"history_size" json:"history_size"`
	OutputBufferSize int     `yaml:"output_buffer_size" json:"output_buffer_size"`

	MetricsEnabled bool   `yaml:"metrics_enabled" json:"metrics_enabled"`
	MetricsPort    int    `yaml:"metrics_port" json:"metrics_port"`
	MetricsPath    string `yaml:"metrics_path" json:"metrics_path"`

	APIEnabled bool   `yaml:"api_enabled" json:"api_enabled"`
	APIPort    int    `yaml:"api_port" json:"api_port"`
	APIAuth    string `yaml:"api_auth" json:"api_auth"` // Bearer token

	ResourceInterval string `yaml:"resource_interval" json:"resource_interval"` // self resource sampling

	TracingEnabled     bool    `yaml:"tracing_enabled" json:"tracing_enabled"`
	TracingExporter    string  `yaml:"tracing_exporter" json:"tracing_exporter"` // otlp-grpc | stdout
	TracingEndpoint    string  `yaml:"tracing_endpoint" json:"tracing_endpoint"`
	TracingSampleRate  float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
	TracingServiceName string  `yaml:"tracing_service_name" json:"tracing_service_name"`
	TracingUseTLS      bool    `yaml:"tracing_use_tls" json:"tracing_use_tls"`
}

// Job is a configured job definition. Type selects the temporal variant;
// Schedule carries its spec: a time string for at, a duration for in and
// every, a cron line for cron.
type Job struct {
	Enabled  *bool    `yaml:"enabled" json:"enabled"` // default true
	Type     string   `yaml:"type" json:"type"`       // at | in | every | cron
	Schedule string   `yaml:"schedule" json:"schedule"`
	Command  []string `yaml:"command" json:"command"`

	WorkingDir string            `yaml:"working_dir" json:"working_dir"`
	Env        map[string]string `yaml:"env" json:"env"`

	Tags    []string `yaml:"tags" json:"tags"`
	Mutexes []string `yaml:"mutexes" json:"mutexes"`
	Timeout string   `yaml:"timeout" json:"timeout"` // duration string
	Times   *int     `yaml:"times" json:"times"`
	FirstIn string   `yaml:"first_in" json:"first_in"`
	LastIn  string   `yaml:"last_in" json:"last_in"`
	LastAt  string   `yaml:"last_at" json:"last_at"`

	DiscardPast bool `yaml:"discard_past" json:"discard_past"`
	NoOverlap   bool `yaml:"no_overlap" json:"no_overlap"`
	Blocking    bool `yaml:"blocking" json:"blocking"`
}

// IsEnabled reports whether the job should be registered.
func (j *Job) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// SetDefaults fills unset fields with production defaults.
func (c *Config) SetDefaults() {
	if c.Global.Frequency == "" {
		c.Global.Frequency = "300ms"
	}
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = "info"
	}
	if c.Global.LogFormat == "" {
		c.Global.LogFormat = "text"
	}
	if c.Global.HistorySize == 0 {
		c.Global.HistorySize = 60
	}
	if c.Global.OutputBufferSize == 0 {
		c.Global.OutputBufferSize = 1000
	}
	if c.Global.MetricsPort == 0 {
		c.Global.MetricsPort = 9090
	}
	if c.Global.MetricsPath == "" {
		c.Global.MetricsPath = "/metrics"
	}
	if c.Global.APIPort == 0 {
		c.Global.APIPort = 8080
	}
	if c.Global.ResourceInterval == "" {
		c.Global.ResourceInterval = "15s"
	}
	if c.Global.TracingExporter == "" {
		c.Global.TracingExporter = "otlp-grpc"
	}
	if c.Global.TracingEndpoint == "" {
		c.Global.TracingEndpoint = "localhost:4317"
	}
	if c.Global.TracingSampleRate == 0 {
		c.Global.TracingSampleRate = 1.0
	}
	if c.Global.TracingServiceName == "" {
		c.Global.TracingServiceName = "rufusd"
	}
	if c.Jobs == nil {
		c.Jobs = make(map[string]*Job)
	}
}
