// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Audio backend identifiers.
const (
	AudioBackendFS     = "fs"
	AudioBackendBadger = "badger"
	AudioBackendRedis  = "redis"
)

// AudioConfig selects and parametrises the audio cache backend.
type AudioConfig struct {
	Backend       string
	Dir           string // fs backend: directory holding <key>.mp3 files
	BadgerDir     string // badger backend: database directory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration // 0 = entries never expire
}

// TTSConfig parametrises the text-to-speech fetcher.
type TTSConfig struct {
	BaseURL  string
	Lang     string
	Timeout  time.Duration
	Workers  int
	Rate     float64 // requests per second against the TTS endpoint
	Burst    int
	Retries  int
	Disabled bool

	// Outbound policy, applied in serve mode only. Off by default so the
	// one-shot CLI reaches whatever endpoint the operator configured.
	EnforcePolicy bool
	AllowHosts    []string
	AllowCIDRs    []string
}

// APIConfig parametrises the HTTP API in serve mode.
type APIConfig struct {
	Listen           string
	Token            string
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// TelemetryConfig parametrises the OTLP trace exporter.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	Protocol    string // "grpc" or "http"
	SampleRatio float64
	Insecure    bool
}

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	CharsCSV string
	WordsCSV string

	DataDir  string // artifacts (deck + reports) land here
	DeckName string
	DeckFile string // file name of the .apkg inside DataDir

	Audio     AudioConfig
	TTS       TTSConfig
	API       APIConfig
	Telemetry TelemetryConfig

	LogLevel     string
	Watch        bool
	BuildOnStart bool

	Version string
}

// DeckPath returns the absolute path of the deck artifact.
func (c AppConfig) DeckPath() string {
	return filepath.Join(c.DataDir, c.DeckFile)
}

// ReportsDir returns the directory for skip and error reports.
func (c AppConfig) ReportsDir() string {
	return filepath.Join(c.DataDir, "reports")
}

// FileConfig mirrors AppConfig for strict YAML decoding. Pointer fields make
// presence detectable so file values only override what they actually set.
type FileConfig struct {
	CharsCSV     *string `yaml:"chars_csv"`
	WordsCSV     *string `yaml:"words_csv"`
	DataDir      *string `yaml:"data_dir"`
	DeckName     *string `yaml:"deck_name"`
	DeckFile     *string `yaml:"deck_file"`
	LogLevel     *string `yaml:"log_level"`
	Watch        *bool   `yaml:"watch"`
	BuildOnStart *bool   `yaml:"build_on_start"`

	Audio *struct {
		Backend       *string `yaml:"backend"`
		Dir           *string `yaml:"dir"`
		BadgerDir     *string `yaml:"badger_dir"`
		RedisAddr     *string `yaml:"redis_addr"`
		RedisPassword *string `yaml:"redis_password"`
		RedisDB       *int    `yaml:"redis_db"`
		RedisTTL      *string `yaml:"redis_ttl"`
	} `yaml:"audio"`

	TTS *struct {
		BaseURL       *string  `yaml:"base_url"`
		Lang          *string  `yaml:"lang"`
		Timeout       *string  `yaml:"timeout"`
		Workers       *int     `yaml:"workers"`
		Rate          *float64 `yaml:"rate"`
		Burst         *int     `yaml:"burst"`
		Retries       *int     `yaml:"retries"`
		Disabled      *bool    `yaml:"disabled"`
		EnforcePolicy *bool    `yaml:"enforce_policy"`
		AllowHosts    []string `yaml:"allow_hosts"`
		AllowCIDRs    []string `yaml:"allow_cidrs"`
	} `yaml:"tts"`

	API *struct {
		Listen           *string  `yaml:"listen"`
		Token            *string  `yaml:"token"`
		RateLimitEnabled *bool    `yaml:"rate_limit_enabled"`
		RateLimitRPS     *float64 `yaml:"rate_limit_rps"`
		RateLimitBurst   *int     `yaml:"rate_limit_burst"`
	} `yaml:"api"`

	Telemetry *struct {
		Enabled     *bool    `yaml:"enabled"`
		Endpoint    *string  `yaml:"endpoint"`
		Protocol    *string  `yaml:"protocol"`
		SampleRatio *float64 `yaml:"sample_ratio"`
		Insecure    *bool    `yaml:"insecure"`
	} `yaml:"telemetry"`
}

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Wrapper methods for mechanical connection tracking

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	// 1. Load from file (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	// 2. Override with environment variables (highest priority)
	l.mergeEnvConfig(&cfg)

	// SAFETY: Ensure DataDir is absolute to prevent path traversal/platform errors
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	// Relative cache paths anchor under the data dir, not the CWD.
	if cfg.Audio.BadgerDir == "" {
		cfg.Audio.BadgerDir = filepath.Join(cfg.DataDir, "badger")
	} else if !filepath.IsAbs(cfg.Audio.BadgerDir) {
		cfg.Audio.BadgerDir = filepath.Join(cfg.DataDir, cfg.Audio.BadgerDir)
	}
	if !filepath.IsAbs(cfg.Audio.Dir) {
		cfg.Audio.Dir = filepath.Join(cfg.DataDir, cfg.Audio.Dir)
	}

	// 3. Version from binary
	cfg.Version = l.version

	// 4. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		DataDir:  "./data",
		DeckName: "Chinese Dictionary",
		DeckFile: "chinese_dict.apkg",
		Audio: AudioConfig{
			Backend: AudioBackendFS,
			Dir:     "audio_cache",
		},
		TTS: TTSConfig{
			BaseURL: "https://translate.google.com",
			Lang:    "zh",
			Timeout: 10 * time.Second,
			Workers: 4,
			Rate:    5,
			Burst:   2,
			Retries: 3,
		},
		API: APIConfig{
			Listen:           ":8080",
			RateLimitEnabled: true,
			RateLimitRPS:     5,
			RateLimitBurst:   10,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			SampleRatio: 1.0,
			Insecure:    true,
		},
		LogLevel: "info",
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	// Parse YAML with strict mode (unknown fields cause errors)
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, file *FileConfig) error {
	setString(&cfg.CharsCSV, file.CharsCSV)
	setString(&cfg.WordsCSV, file.WordsCSV)
	setString(&cfg.DataDir, file.DataDir)
	setString(&cfg.DeckName, file.DeckName)
	setString(&cfg.DeckFile, file.DeckFile)
	setString(&cfg.LogLevel, file.LogLevel)
	setBool(&cfg.Watch, file.Watch)
	setBool(&cfg.BuildOnStart, file.BuildOnStart)

	if a := file.Audio; a != nil {
		setString(&cfg.Audio.Backend, a.Backend)
		setString(&cfg.Audio.Dir, a.Dir)
		setString(&cfg.Audio.BadgerDir, a.BadgerDir)
		setString(&cfg.Audio.RedisAddr, a.RedisAddr)
		setString(&cfg.Audio.RedisPassword, a.RedisPassword)
		setInt(&cfg.Audio.RedisDB, a.RedisDB)
		if err := setDuration(&cfg.Audio.RedisTTL, a.RedisTTL, "audio.redis_ttl"); err != nil {
			return err
		}
	}
	if t := file.TTS; t != nil {
		setString(&cfg.TTS.BaseURL, t.BaseURL)
		setString(&cfg.TTS.Lang, t.Lang)
		if err := setDuration(&cfg.TTS.Timeout, t.Timeout, "tts.timeout"); err != nil {
			return err
		}
		setInt(&cfg.TTS.Workers, t.Workers)
		setFloat(&cfg.TTS.Rate, t.Rate)
		setInt(&cfg.TTS.Burst, t.Burst)
		setInt(&cfg.TTS.Retries, t.Retries)
		setBool(&cfg.TTS.Disabled, t.Disabled)
		setBool(&cfg.TTS.EnforcePolicy, t.EnforcePolicy)
		if t.AllowHosts != nil {
			cfg.TTS.AllowHosts = append([]string(nil), t.AllowHosts...)
		}
		if t.AllowCIDRs != nil {
			cfg.TTS.AllowCIDRs = append([]string(nil), t.AllowCIDRs...)
		}
	}
	if a := file.API; a != nil {
		setString(&cfg.API.Listen, a.Listen)
		setString(&cfg.API.Token, a.Token)
		setBool(&cfg.API.RateLimitEnabled, a.RateLimitEnabled)
		setFloat(&cfg.API.RateLimitRPS, a.RateLimitRPS)
		setInt(&cfg.API.RateLimitBurst, a.RateLimitBurst)
	}
	if t := file.Telemetry; t != nil {
		setBool(&cfg.Telemetry.Enabled, t.Enabled)
		setString(&cfg.Telemetry.Endpoint, t.Endpoint)
		setString(&cfg.Telemetry.Protocol, t.Protocol)
		setFloat(&cfg.Telemetry.SampleRatio, t.SampleRatio)
		setBool(&cfg.Telemetry.Insecure, t.Insecure)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, field string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}

// parseCommaSeparated splits an env value into a list, keeping the
// existing value when the variable is unset or empty.
func parseCommaSeparated(envVal string, defaults []string) []string {
	if envVal == "" {
		return defaults
	}
	var out []string
	for _, p := range strings.Split(envVal, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mergeEnvConfig applies ZI2ANKI_* environment overrides onto cfg.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.CharsCSV = l.envString("ZI2ANKI_CHARS_CSV", cfg.CharsCSV)
	cfg.WordsCSV = l.envString("ZI2ANKI_WORDS_CSV", cfg.WordsCSV)
	cfg.DataDir = l.envString("ZI2ANKI_DATA_DIR", cfg.DataDir)
	cfg.DeckName = l.envString("ZI2ANKI_DECK_NAME", cfg.DeckName)
	cfg.DeckFile = l.envString("ZI2ANKI_DECK_FILE", cfg.DeckFile)
	cfg.LogLevel = l.envString("ZI2ANKI_LOG_LEVEL", cfg.LogLevel)
	cfg.Watch = l.envBool("ZI2ANKI_WATCH", cfg.Watch)
	cfg.BuildOnStart = l.envBool("ZI2ANKI_BUILD_ON_START", cfg.BuildOnStart)

	cfg.Audio.Backend = l.envString("ZI2ANKI_AUDIO_BACKEND", cfg.Audio.Backend)
	cfg.Audio.Dir = l.envString("ZI2ANKI_AUDIO_DIR", cfg.Audio.Dir)
	cfg.Audio.BadgerDir = l.envString("ZI2ANKI_BADGER_DIR", cfg.Audio.BadgerDir)
	cfg.Audio.RedisAddr = l.envString("ZI2ANKI_REDIS_ADDR", cfg.Audio.RedisAddr)
	cfg.Audio.RedisPassword = l.envString("ZI2ANKI_REDIS_PASSWORD", cfg.Audio.RedisPassword)
	cfg.Audio.RedisDB = l.envInt("ZI2ANKI_REDIS_DB", cfg.Audio.RedisDB)
	cfg.Audio.RedisTTL = l.envDuration("ZI2ANKI_REDIS_TTL", cfg.Audio.RedisTTL)

	cfg.TTS.BaseURL = l.envString("ZI2ANKI_TTS_BASE_URL", cfg.TTS.BaseURL)
	cfg.TTS.Lang = l.envString("ZI2ANKI_TTS_LANG", cfg.TTS.Lang)
	cfg.TTS.Timeout = l.envDuration("ZI2ANKI_TTS_TIMEOUT", cfg.TTS.Timeout)
	cfg.TTS.Workers = l.envInt("ZI2ANKI_TTS_WORKERS", cfg.TTS.Workers)
	cfg.TTS.Rate = l.envFloat("ZI2ANKI_TTS_RATE", cfg.TTS.Rate)
	cfg.TTS.Burst = l.envInt("ZI2ANKI_TTS_BURST", cfg.TTS.Burst)
	cfg.TTS.Retries = l.envInt("ZI2ANKI_TTS_RETRIES", cfg.TTS.Retries)
	cfg.TTS.Disabled = l.envBool("ZI2ANKI_TTS_DISABLED", cfg.TTS.Disabled)
	cfg.TTS.EnforcePolicy = l.envBool("ZI2ANKI_TTS_ENFORCE_POLICY", cfg.TTS.EnforcePolicy)
	cfg.TTS.AllowHosts = parseCommaSeparated(l.envString("ZI2ANKI_TTS_ALLOW_HOSTS", ""), cfg.TTS.AllowHosts)
	cfg.TTS.AllowCIDRs = parseCommaSeparated(l.envString("ZI2ANKI_TTS_ALLOW_CIDRS", ""), cfg.TTS.AllowCIDRs)

	cfg.API.Listen = l.envString("ZI2ANKI_LISTEN", cfg.API.Listen)
	cfg.API.Token = l.envString("ZI2ANKI_API_TOKEN", cfg.API.Token)
	cfg.API.RateLimitEnabled = l.envBool("ZI2ANKI_RATE_LIMIT_ENABLED", cfg.API.RateLimitEnabled)
	cfg.API.RateLimitRPS = l.envFloat("ZI2ANKI_RATE_LIMIT_RPS", cfg.API.RateLimitRPS)
	cfg.API.RateLimitBurst = l.envInt("ZI2ANKI_RATE_LIMIT_BURST", cfg.API.RateLimitBurst)

	cfg.Telemetry.Enabled = l.envBool("ZI2ANKI_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = l.envString("ZI2ANKI_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Protocol = l.envString("ZI2ANKI_OTEL_PROTOCOL", cfg.Telemetry.Protocol)
	cfg.Telemetry.SampleRatio = l.envFloat("ZI2ANKI_OTEL_SAMPLE_RATIO", cfg.Telemetry.SampleRatio)
	cfg.Telemetry.Insecure = l.envBool("ZI2ANKI_OTEL_INSECURE", cfg.Telemetry.Insecure)
}
