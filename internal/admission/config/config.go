package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// AppConfig holds the admission engine configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log    LoggingConfig `koanf:"log" validate:"required"`
	HTTP   HTTPConfig    `koanf:"http" validate:"required"`
	Store  StoreConfig   `koanf:"store" validate:"required"`
	Cache  CacheConfig   `koanf:"cache" validate:"required"`
	Filter FilterConfig  `koanf:"filter" validate:"required"`
	Import ImportConfig  `koanf:"import" validate:"required"`
}

// LoggingConfig controls log verbosity: "debug", "info", "warn", or "error".
type LoggingConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type HTTPConfig struct {
	// Addr is the listen address in host:port form; host may be empty.
	Addr            string        `koanf:"addr" validate:"required,listen_addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type StoreConfig struct {
	// Path is the bbolt database file holding lists, patterns, categories and batches.
	Path string `koanf:"path" validate:"required"`
}

// CacheConfig sizes the decision cache. PatternTTL applies to decisions
// produced by a pattern match and must not exceed DecisionTTL.
type CacheConfig struct {
	Size          int           `koanf:"size" validate:"gte=0"`
	DecisionTTL   time.Duration `koanf:"decision_ttl" validate:"gt=0"`
	PatternTTL    time.Duration `koanf:"pattern_ttl" validate:"gt=0,ltefield=DecisionTTL"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
}

type FilterConfig struct {
	// BlockSeverity is the minimum pattern severity that blocks content.
	BlockSeverity      string        `koanf:"block_severity" validate:"required,severity"`
	BloomCapacity      uint64        `koanf:"bloom_capacity" validate:"gte=1"`
	BloomFPRate        float64       `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`
	StatsFlushInterval time.Duration `koanf:"stats_flush_interval" validate:"gt=0"`
	StatsBuffer        int           `koanf:"stats_buffer" validate:"gte=1"`
}

type ImportConfig struct {
	MaxItems      int `koanf:"max_items" validate:"gte=1"`
	ChunkSize     int `koanf:"chunk_size" validate:"gte=1,ltefield=MaxItems"`
	MaxConcurrent int `koanf:"max_concurrent" validate:"gte=1"`
}

// DEFAULT_APP_CONFIG defines the defaults applied before the optional config
// file and the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LoggingConfig{Level: "info"},
	HTTP: HTTPConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	},
	Store: StoreConfig{Path: "/var/lib/admissiond/admission.db"},
	Cache: CacheConfig{
		Size:          50_000,
		DecisionTTL:   10 * time.Minute,
		PatternTTL:    2 * time.Minute,
		SweepInterval: time.Minute,
	},
	Filter: FilterConfig{
		BlockSeverity:      "low",
		BloomCapacity:      100_000,
		BloomFPRate:        0.01,
		StatsFlushInterval: 5 * time.Second,
		StatsBuffer:        4096,
	},
	Import: ImportConfig{
		MaxItems:      50_000,
		ChunkSize:     100,
		MaxConcurrent: 4,
	},
}

// envKeys maps ADMISSION_* variables (prefix stripped) to koanf keys.
// Unknown variables are ignored.
var envKeys = map[string]string{
	"ENV":                         "env",
	"LOG_LEVEL":                   "log.level",
	"HTTP_ADDR":                   "http.addr",
	"HTTP_READ_TIMEOUT":           "http.read_timeout",
	"HTTP_WRITE_TIMEOUT":          "http.write_timeout",
	"HTTP_SHUTDOWN_TIMEOUT":       "http.shutdown_timeout",
	"STORE_PATH":                  "store.path",
	"CACHE_SIZE":                  "cache.size",
	"CACHE_DECISION_TTL":          "cache.decision_ttl",
	"CACHE_PATTERN_TTL":           "cache.pattern_ttl",
	"CACHE_SWEEP_INTERVAL":        "cache.sweep_interval",
	"FILTER_BLOCK_SEVERITY":       "filter.block_severity",
	"FILTER_BLOOM_CAPACITY":       "filter.bloom_capacity",
	"FILTER_BLOOM_FP_RATE":        "filter.bloom_fp_rate",
	"FILTER_STATS_FLUSH_INTERVAL": "filter.stats_flush_interval",
	"FILTER_STATS_BUFFER":         "filter.stats_buffer",
	"IMPORT_MAX_ITEMS":            "import.max_items",
	"IMPORT_CHUNK_SIZE":           "import.chunk_size",
	"IMPORT_MAX_CONCURRENT":       "import.max_concurrent",
}

const envPrefix = "ADMISSION_"

// configFileEnv names the variable pointing at an optional YAML config file.
const configFileEnv = envPrefix + "CONFIG_FILE"

// validListenAddr accepts "host:port" or ":port" with a port in 1..65535.
func validListenAddr(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || port == "" || strings.ContainsAny(host, " /") {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n > 0
}

// validSeverity accepts any domain severity name.
func validSeverity(fl validator.FieldLevel) bool {
	_, err := domain.ParseSeverity(fl.Field().String())
	return err == nil
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads the YAML file named by ADMISSION_CONFIG_FILE, if set.
var fileLoader = func(k *koanf.Koanf) error {
	path := strings.TrimSpace(os.Getenv(configFileEnv))
	if path == "" {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

// envLoader loads ADMISSION_* variables through envKeys.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			mapped, ok := envKeys[strings.TrimPrefix(key, envPrefix)]
			if !ok {
				return "", nil
			}
			return mapped, strings.TrimSpace(value)
		},
	}), nil)
}

// registerValidation registers the custom "listen_addr" and "severity" rules.
var registerValidation = func(v *validator.Validate) error {
	if err := v.RegisterValidation("listen_addr", validListenAddr); err != nil {
		return err
	}
	return v.RegisterValidation("severity", validSeverity)
}

// Load applies defaults, the optional config file, and the environment,
// then validates the result.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := fileLoader(k); err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// Severity returns the parsed block threshold. Load has already validated it.
func (c FilterConfig) Severity() domain.Severity {
	s, _ := domain.ParseSeverity(c.BlockSeverity)
	return s
}
