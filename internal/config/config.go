package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "VISUAL_WARNINGS_CONFIG"
	feedURLEnv     = "VISUAL_WARNINGS_FEED_URL"
	webhookURLEnv  = "VISUAL_WARNINGS_WEBHOOK_URL"
	outputDirEnv   = "VISUAL_WARNINGS_OUTPUT_DIR"
	postgresDSNEnv = "VISUAL_WARNINGS_POSTGRES_DSN"
	metricsAddrEnv = "VISUAL_WARNINGS_METRICS_ADDR"
	logLevelEnv    = "VISUAL_WARNINGS_LOG_LEVEL"

	defaultFeedURL = "https://api.weather.gov/alerts/active?zone=KYC101"
)

// Config holds high-level settings required across the application.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Output    OutputConfig    `yaml:"output"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Poll      PollConfig      `yaml:"poll"`
	Retention RetentionConfig `yaml:"retention"`
	State     StateConfig     `yaml:"state"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// FeedConfig describes the upstream alert feed.
type FeedConfig struct {
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// OutputConfig describes where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// WebhookConfig wires all data required to deliver notifications.
type WebhookConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
}

// PollConfig defines how often the feed is checked.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	RunOnce  bool          `yaml:"runOnce"`
}

// RetentionConfig controls artifact cleanup.
type RetentionConfig struct {
	MaxAge        time.Duration `yaml:"maxAge"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// StateConfig controls seen-set persistence across restarts. With both Path
// and PostgresDSN empty the seen set lives only in memory and every
// currently-active alert is re-notified after a restart.
type StateConfig struct {
	Path        string        `yaml:"path"`
	PostgresDSN string        `yaml:"postgresDsn"`
	TTL         time.Duration `yaml:"ttl"`
}

// MetricsConfig enables the optional Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. The file path comes from VISUAL_WARNINGS_CONFIG.
func Load() Config {
	return LoadPath(os.Getenv(configPathEnv))
}

// LoadPath is Load with an explicit configuration file path, used by the
// --config CLI flag. An empty path means defaults plus env overrides.
func LoadPath(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports startup-fatal problems with the configuration.
func (c Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Retention.MaxAge <= 0 {
		return fmt.Errorf("retention max age must be positive, got %s", c.Retention.MaxAge)
	}
	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.Retention.SweepInterval)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(feedURLEnv); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(postgresDSNEnv); v != "" {
		c.State.PostgresDSN = v
	}
	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.ListenAddr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Feed.URL != "" {
		base.Feed.URL = override.Feed.URL
	}
	if override.Feed.UserAgent != "" {
		base.Feed.UserAgent = override.Feed.UserAgent
	}
	if override.Feed.Timeout > 0 {
		base.Feed.Timeout = override.Feed.Timeout
	}

	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}

	if override.Webhook.URL != "" {
		base.Webhook.URL = override.Webhook.URL
	}
	if override.Webhook.Username != "" {
		base.Webhook.Username = override.Webhook.Username
	}

	if override.Poll.Interval > 0 {
		base.Poll.Interval = override.Poll.Interval
	}
	if override.Poll.RunOnce {
		base.Poll.RunOnce = true
	}

	if override.Retention.MaxAge > 0 {
		base.Retention.MaxAge = override.Retention.MaxAge
	}
	if override.Retention.SweepInterval > 0 {
		base.Retention.SweepInterval = override.Retention.SweepInterval
	}

	if override.State.Path != "" {
		base.State.Path = override.State.Path
	}
	if override.State.PostgresDSN != "" {
		base.State.PostgresDSN = override.State.PostgresDSN
	}
	if override.State.TTL > 0 {
		base.State.TTL = override.State.TTL
	}

	if override.Metrics.ListenAddr != "" {
		base.Metrics.ListenAddr = override.Metrics.ListenAddr
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Feed: FeedConfig{
			URL:       defaultFeedURL,
			UserAgent: "VisualWarningsBeta/1.0 (github.com/zachcoudlntcode/Visual-Warnings-Beta)",
			Timeout:   20 * time.Second,
		},
		Output: OutputConfig{Dir: "output"},
		Poll: PollConfig{
			Interval: time.Minute,
		},
		Retention: RetentionConfig{
			MaxAge:        48 * time.Hour,
			SweepInterval: time.Hour,
		},
		State: StateConfig{
			Path: "data/processed_alerts.json",
			TTL:  24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
