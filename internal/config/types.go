package config

type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Source   SourceConfig   `json:"source"`
	Registry RegistryConfig `json:"registry"`
	Delivery DeliveryConfig `json:"delivery"`
	Runner   RunnerConfig   `json:"runner"`
	Stats    *StatsConfig   `json:"stats,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// SourceConfig selects where store change events come from.
//
// Driver values:
//   - "nats": subscribe to store change subjects on a NATS server
type SourceConfig struct {
	Driver        string `json:"driver,omitempty"`
	URL           string `json:"url,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty"`
	Buffer        int    `json:"buffer,omitempty"`
}

// RegistryConfig configures the user-registry reader and lookup pacing.
//
// Driver values:
//   - "sqlite": SQLite file holding the registry projection
//   - "static": fixed in-memory users (dev only)
type RegistryConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`

	Users []StaticUser `json:"users,omitempty"`

	LookupConcurrency int `json:"lookup_concurrency,omitempty"`
	LookupRatePerSec  int `json:"lookup_rate_per_sec,omitempty"`
}

type StaticUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	PushToken   string `json:"push_token,omitempty"`
}

// DeliveryConfig configures the push gateway.
//
// Driver values:
//   - "fcm": Firebase Cloud Messaging
//   - "dryrun": log instead of delivering
type DeliveryConfig struct {
	Driver          string `json:"driver,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`
	ProjectID       string `json:"project_id,omitempty"`

	// CollapseKey selects the broadcast collapse-key strategy:
	// "timestamp" (default), "uuid", or "category".
	CollapseKey string `json:"collapse_key,omitempty"`
}

// RunnerConfig controls invocation workers and the bounded retry applied
// to request-level delivery faults.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type RunnerConfig struct {
	Workers       int    `json:"workers,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

type StatsConfig struct {
	Enabled   bool   `json:"enabled"`
	FlushSpec string `json:"flush_spec,omitempty"`
}
