package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/signup/internal/errors"
)

const (
	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultSubmitDelay is the default simulated submission latency.
	DefaultSubmitDelay = "1s"

	// DefaultNamespace prefixes every metric name.
	DefaultNamespace = "signup"

	// Storage drivers.
	DriverMemory = "memory"
	DriverS3     = "s3"

	// Log formats.
	FormatText = "text"
	FormatJSON = "json"
)

// FileNames are the configuration files LoadDir looks for, in order.
var FileNames = []string{"signup.yaml", "signup.yml", "signup.json"}

// ErrConfigNotFound is wrapped by the error Load returns for a missing file.
var ErrConfigNotFound = stderrors.New("config file not found")

// Config represents the complete signup configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Submit  SubmitConfig  `json:"submit" yaml:"submit"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Live    LiveConfig    `json:"live" yaml:"live"`
	Log     LogConfig     `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings. Durations use Go syntax.
type ServerConfig struct {
	Address         string `json:"address,omitempty" yaml:"address,omitempty"`
	ReadTimeout     string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// SubmitConfig contains settings of the simulated signup API.
type SubmitConfig struct {
	// Delay is waited before every submission.
	Delay string `json:"delay,omitempty" yaml:"delay,omitempty"`

	// Reserved usernames are always rejected.
	Reserved []string `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// StorageConfig selects where account receipts are kept.
type StorageConfig struct {
	// Driver is "memory" or "s3".
	Driver string   `json:"driver,omitempty" yaml:"driver,omitempty"`
	S3     S3Config `json:"s3" yaml:"s3"`
}

// S3Config describes the receipt bucket. Empty credentials fall back to
// the AWS environment variables.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	PathStyle       bool   `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
	AccessKeyID     string `json:"accessKeyID,omitempty" yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LiveConfig contains WebSocket session settings.
type LiveConfig struct {
	ReadTimeout     string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	MaxMessageBytes int64  `json:"maxMessageBytes,omitempty" yaml:"maxMessageBytes,omitempty"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	enabled := true
	return &Config{
		Server: ServerConfig{
			Address:         DefaultAddress,
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "10s",
		},
		Submit: SubmitConfig{
			Delay:    DefaultSubmitDelay,
			Reserved: []string{"admin", "root", "signup"},
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			S3: S3Config{
				Prefix: "accounts/",
				Region: "us-east-1",
			},
		},
		Metrics: MetricsConfig{
			Enabled:   &enabled,
			Namespace: DefaultNamespace,
		},
		Live: LiveConfig{
			ReadTimeout:     "60s",
			MaxMessageBytes: 16 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Find returns the first of FileNames present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// LoadDir loads the configuration file in dir, or returns the defaults
// when there is none.
func LoadDir(dir string) (*Config, error) {
	path, ok := Find(dir)
	if !ok {
		return New(), nil
	}
	return Load(path)
}

// Load reads configuration from the specified file path. Files ending in
// .json are decoded as JSON, everything else as YAML. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("E101").
				Wrap(fmt.Errorf("%w: %s", ErrConfigNotFound, path)).
				WithSuggestion("Create " + FileNames[0] + " or drop the --config flag to use defaults")
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = decodeJSON(data, cfg)
	} else {
		err = decodeYAML(data, cfg)
	}
	if err != nil {
		se := errors.New("E102").Wrap(err)
		if line := errorLine(data, err); line > 0 {
			se.WithLocation(path, line, 0)
		}
		return nil, se.WithSuggestion("Check the keys against the documented configuration structure")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// errorLine finds the input line a decode error refers to, or 0.
func errorLine(data []byte, err error) int {
	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return lineAt(data, syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return lineAt(data, typeErr.Offset)
	}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// Save writes the configuration to path, as JSON or YAML by extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("E102").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E102").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Submit.Delay == "" {
		c.Submit.Delay = d.Submit.Delay
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = d.Storage.S3.Region
	}
	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = d.Metrics.Enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Live.ReadTimeout == "" {
		c.Live.ReadTimeout = d.Live.ReadTimeout
	}
	if c.Live.MaxMessageBytes == 0 {
		c.Live.MaxMessageBytes = d.Live.MaxMessageBytes
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// ApplyEnv overrides settings from environment variables read through
// lookup, normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("SIGNUP_ADDR"); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup("SIGNUP_SUBMIT_DELAY"); ok && v != "" {
		c.Submit.Delay = v
	}
	if v, ok := lookup("SIGNUP_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	durations := []struct {
		key   string
		value string
	}{
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"submit.delay", c.Submit.Delay},
		{"live.readTimeout", c.Live.ReadTimeout},
	}
	for _, d := range durations {
		v, err := parseDuration(d.value)
		if err != nil {
			return errors.New("E103").
				WithDetail(fmt.Sprintf("%s: %q is not a duration.", d.key, d.value)).
				WithSuggestion("Use a value such as 500ms, 1s or 2m")
		}
		if v < 0 {
			return errors.New("E107").
				WithDetail(d.key + " must not be negative.")
		}
	}

	if c.Live.MaxMessageBytes <= 0 {
		return errors.New("E107").
			WithDetail("live.maxMessageBytes must be positive.")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("E105").
				WithSuggestion("Set storage.s3.bucket")
		}
	default:
		return errors.New("E104").
			WithDetail(fmt.Sprintf("storage.driver is %q; it must be \"memory\" or \"s3\".", c.Storage.Driver))
	}

	if _, err := c.LogLevel(); err != nil {
		return errors.New("E106").Wrap(err)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		return errors.New("E106").
			WithDetail(fmt.Sprintf("log.format is %q; it must be text or json.", c.Log.Format))
	}
	return nil
}

// parseDuration accepts Go durations and "" as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Duration returns a parsed duration setting. Invalid values, which
// Validate reports, yield zero.
func Duration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}

// MetricsEnabled reports whether /metrics is served.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}
