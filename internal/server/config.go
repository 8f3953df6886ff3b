package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/coop-lending/internal/config"
	"github.com/iwvelando/coop-lending/internal/reprocess"
	"github.com/iwvelando/coop-lending/pkg/constants"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the loan API.
type Config struct {
	Address     string `yaml:"address"`
	MaxBodySize string `yaml:"maxBodySize"`
	// Database overrides the database path of the loan configuration.
	Database  string               `yaml:"database"`
	Timeouts  TimeoutConfig        `yaml:"timeouts"`
	Reprocess ReprocessConfig      `yaml:"reprocess"`
	Logging   config.LoggingConfig `yaml:"logging"`

	bodySizeBytes     int64
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	policy            reprocess.Policy
}

// TimeoutConfig holds durations in time.ParseDuration form, e.g. "10s".
type TimeoutConfig struct {
	ReadHeader string `yaml:"readHeader"`
	Shutdown   string `yaml:"shutdown"`
}

// ReprocessConfig sizes the reprocessing pool and picks the policy used when a
// request names none.
type ReprocessConfig struct {
	Workers int    `yaml:"workers"`
	Policy  string `yaml:"policy"`
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// ReadHeaderTimeout is the http.Server ReadHeaderTimeout.
func (c *Config) ReadHeaderTimeout() time.Duration {
	return c.readHeaderTimeout
}

// ShutdownTimeout bounds the graceful shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return c.shutdownTimeout
}

// ReprocessPolicy is the policy applied when a reprocess request names none.
func (c *Config) ReprocessPolicy() reprocess.Policy {
	return c.policy
}

// DatabasePath returns the configured database, falling back to fallback and
// then to constants.DefaultDatabasePath.
func (c *Config) DatabasePath(fallback string) string {
	for _, p := range []string{c.Database, fallback} {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return constants.DefaultDatabasePath
}

// normalize fills defaults and reports every invalid field at once.
func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.Reprocess.Workers <= 0 {
		c.Reprocess.Workers = constants.DefaultReprocessWorkers
	}

	var errs error

	c.bodySizeBytes = constants.DefaultMaxBodySizeBytes
	if sizeStr := strings.TrimSpace(c.MaxBodySize); sizeStr != "" {
		bytes, err := ParseSize(sizeStr)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("maxBodySize: %w", err))
		case bytes > 0:
			c.bodySizeBytes = bytes
		}
	}
	c.MaxBodySize = fmt.Sprintf("%d", c.bodySizeBytes)

	var err error
	if c.readHeaderTimeout, err = parseTimeout(c.Timeouts.ReadHeader, constants.DefaultReadHeaderTimeout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("timeouts.readHeader: %w", err))
	}
	if c.shutdownTimeout, err = parseTimeout(c.Timeouts.Shutdown, constants.DefaultShutdownTimeout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("timeouts.shutdown: %w", err))
	}
	if c.policy, err = reprocess.ParsePolicy(c.Reprocess.Policy); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("reprocess.policy: %w", err))
	}

	if errs != nil {
		return fmt.Errorf("invalid server config: %w", errs)
	}
	return nil
}

func parseTimeout(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", value)
	}
	return d, nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	if numPart == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/multiplier != n) {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
