package utils

import (
	"time"

	"github.com/vakitapp/vakit-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate (optional)
	} `yaml:"mqtt"`

	Store struct {
		Directory string `yaml:"directory"` // Root directory for persisted keys
	} `yaml:"store"`

	Location struct {
		Provider          string        `yaml:"provider"`           // "sensor" or "google"
		MapsAPIKey        string        `yaml:"maps_api_key"`       // Google maps API key
		GPSDevicePort     string        `yaml:"gps_device_port"`    // Serial port of the GPS sensor
		GPSDeviceBaudRate int           `yaml:"gps_baud_rate"`      // Baud rate for the GPS sensor
		FreshnessWindow   time.Duration `yaml:"freshness_window"`   // Max age of a cached coordinate (in seconds)
		AllowFallback     bool          `yaml:"allow_fallback"`     // Degrade to fallback on permission denial
		FallbackLatitude  float64       `yaml:"fallback_latitude"`  // Hardcoded fallback coordinate
		FallbackLongitude float64       `yaml:"fallback_longitude"` // Hardcoded fallback coordinate
		Timeout           time.Duration `yaml:"timeout"`            // Per-attempt GPS timeout (in seconds)
		MaxAttempts       int           `yaml:"max_attempts"`       // Live read attempts before fallback
		BaseDelay         time.Duration `yaml:"base_delay"`         // Inter-attempt delay unit (in seconds)
	} `yaml:"location"`

	Remote struct {
		BaseURLs    []string      `yaml:"base_urls"`    // Primary endpoint first, then mirrors
		Timeout     time.Duration `yaml:"timeout"`      // Per-attempt HTTP timeout (in seconds)
		MaxAttempts int           `yaml:"max_attempts"` // Attempts per base URL
		BaseDelay   time.Duration `yaml:"base_delay"`   // Initial backoff delay (in seconds)
		MaxBackoff  time.Duration `yaml:"max_backoff"`  // Backoff cap (in seconds)
		CacheSize   int           `yaml:"cache_size"`   // LRU size for resolved day schedules
	} `yaml:"remote"`

	Services struct {
		Prayer struct {
			Enabled bool   `yaml:"enabled"` // Enable/disable the prayer resolution loop
			City    string `yaml:"city"`    // Fixed city override; empty means resolve by coordinate
			Country string `yaml:"country"` // Country code used with city
		} `yaml:"prayer"`

		Widget struct {
			Topic   string `yaml:"topic"`   // MQTT topic for widget snapshots
			Enabled bool   `yaml:"enabled"` // Enable/disable widget snapshot publishing
			QOS     int    `yaml:"qos"`     // MQTT QoS level for widget snapshots
		} `yaml:"widget"`

		Notification struct {
			Topic   string        `yaml:"topic"`   // MQTT topic for schedule requests
			Enabled bool          `yaml:"enabled"` // Enable/disable notification scheduling
			QOS     int           `yaml:"qos"`     // MQTT QoS level for schedule requests
			Lead    time.Duration `yaml:"lead"`    // Reminder lead before each event (in seconds)
		} `yaml:"notification"`

		Status struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for status reports
			Enabled  bool          `yaml:"enabled"`  // Enable/disable status reports
			Interval time.Duration `yaml:"interval"` // Interval between reports (in seconds)
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status reports
		} `yaml:"status"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LocationRetryPolicy builds the retry policy for GPS reads. Config durations
// are plain numbers interpreted as seconds.
func (c *Config) LocationRetryPolicy() RetryPolicy {
	policy := RetryPolicy{
		Timeout:     time.Duration(c.Location.Timeout) * time.Second,
		MaxAttempts: c.Location.MaxAttempts,
		BaseDelay:   time.Duration(c.Location.BaseDelay) * time.Second,
	}
	defaults := DefaultRetryPolicy()
	if policy.Timeout <= 0 {
		policy.Timeout = defaults.Timeout
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaults.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = defaults.BaseDelay
	}
	policy.BackoffCap = policy.BaseDelay * time.Duration(policy.MaxAttempts)
	return policy
}

// RemoteRetryPolicy builds the retry policy for HTTP fetches.
func (c *Config) RemoteRetryPolicy() RetryPolicy {
	policy := RetryPolicy{
		Timeout:     time.Duration(c.Remote.Timeout) * time.Second,
		MaxAttempts: c.Remote.MaxAttempts,
		BaseDelay:   time.Duration(c.Remote.BaseDelay) * time.Second,
		BackoffCap:  time.Duration(c.Remote.MaxBackoff) * time.Second,
	}
	defaults := DefaultRetryPolicy()
	if policy.Timeout <= 0 {
		policy.Timeout = defaults.Timeout
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaults.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = defaults.BaseDelay
	}
	if policy.BackoffCap <= 0 {
		policy.BackoffCap = defaults.BackoffCap
	}
	return policy
}
