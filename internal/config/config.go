package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geofusion/internal/fusion"
)

// Config holds the full application configuration.
type Config struct {
	OpenCage   ProviderConfig `yaml:"opencage" mapstructure:"opencage"`
	Nominatim  ProviderConfig `yaml:"nominatim" mapstructure:"nominatim"`
	LocationIQ ProviderConfig `yaml:"locationiq" mapstructure:"locationiq"`
	Wikidata   ProviderConfig `yaml:"wikidata" mapstructure:"wikidata"`
	Fusion     FusionConfig   `yaml:"fusion" mapstructure:"fusion"`
	Pipeline   PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig   `yaml:"server" mapstructure:"server"`
	Log        LogConfig      `yaml:"log" mapstructure:"log"`
}

// ProviderConfig configures one upstream HTTP service.
type ProviderConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// RateLimit is requests per second; zero disables limiting.
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Disabled    bool    `yaml:"disabled" mapstructure:"disabled"`
}

// Timeout returns TimeoutSecs as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// FusionConfig configures the fusion filter.
type FusionConfig struct {
	Region              fusion.Region `yaml:"region" mapstructure:"region"`
	ImportanceThreshold float64       `yaml:"importance_threshold" mapstructure:"importance_threshold"`
	ConsensusKM         float64       `yaml:"consensus_km" mapstructure:"consensus_km"`
	TrustedProvider     string        `yaml:"trusted_provider" mapstructure:"trusted_provider"`
}

// Options converts the section into filter options.
func (f FusionConfig) Options() fusion.Options {
	return fusion.Options{
		Region:              f.Region,
		ImportanceThreshold: f.ImportanceThreshold,
		ConsensusKM:         f.ConsensusKM,
		TrustedProvider:     f.TrustedProvider,
	}
}

// PipelineConfig tunes concurrency and instrumentation.
type PipelineConfig struct {
	BatchConcurrency  int `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
	EnrichConcurrency int `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
	SlowThresholdMS   int `yaml:"slow_threshold_ms" mapstructure:"slow_threshold_ms"`
}

// SlowThreshold returns SlowThresholdMS as a duration.
func (p PipelineConfig) SlowThreshold() time.Duration {
	return time.Duration(p.SlowThresholdMS) * time.Millisecond
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LoadEnvFiles loads .env files into the process environment. ENV_FILE, when
// set, is the only file loaded; otherwise .env.local then .env. Missing files
// are ignored and existing variables are never overwritten.
func LoadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "config: load env file %s", envFile)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "config: load %s", f)
		}
	}
	return nil
}

// Load reads configuration from .env files, config.yaml (optional) and
// GEOFUSION_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOFUSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Plain provider key names are accepted for compatibility with existing .env files.
	_ = v.BindEnv("opencage.key", "GEOFUSION_OPENCAGE_KEY", "OPENCAGE_API_KEY")
	_ = v.BindEnv("locationiq.key", "GEOFUSION_LOCATIONIQ_KEY", "LOCATIONIQ_API_KEY")

	// Defaults
	region := fusion.DefaultRegion
	opts := fusion.DefaultOptions()
	v.SetDefault("opencage.key", "")
	v.SetDefault("opencage.base_url", "https://api.opencagedata.com/geocode/v1/json")
	v.SetDefault("opencage.user_agent", "")
	v.SetDefault("opencage.rate_limit", 0)
	v.SetDefault("opencage.timeout_secs", 30)
	v.SetDefault("opencage.disabled", false)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("nominatim.user_agent", "")
	v.SetDefault("nominatim.rate_limit", 1)
	v.SetDefault("nominatim.timeout_secs", 30)
	v.SetDefault("nominatim.disabled", false)
	v.SetDefault("locationiq.key", "")
	v.SetDefault("locationiq.base_url", "https://us1.locationiq.com/v1/search.php")
	v.SetDefault("locationiq.user_agent", "")
	v.SetDefault("locationiq.rate_limit", 2)
	v.SetDefault("locationiq.timeout_secs", 30)
	v.SetDefault("locationiq.disabled", false)
	v.SetDefault("wikidata.base_url", "https://www.wikidata.org/w/api.php")
	v.SetDefault("wikidata.user_agent", "")
	v.SetDefault("wikidata.rate_limit", 0)
	v.SetDefault("wikidata.timeout_secs", 15)
	v.SetDefault("wikidata.disabled", false)
	v.SetDefault("fusion.region.min_lat", region.MinLat)
	v.SetDefault("fusion.region.max_lat", region.MaxLat)
	v.SetDefault("fusion.region.min_lon", region.MinLon)
	v.SetDefault("fusion.region.max_lon", region.MaxLon)
	v.SetDefault("fusion.importance_threshold", opts.ImportanceThreshold)
	v.SetDefault("fusion.consensus_km", opts.ConsensusKM)
	v.SetDefault("fusion.trusted_provider", opts.TrustedProvider)
	v.SetDefault("pipeline.batch_concurrency", 4)
	v.SetDefault("pipeline.enrich_concurrency", 8)
	v.SetDefault("pipeline.slow_threshold_ms", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings needed by mode: "search" (raw and extract
// commands), "resolve" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "search", "resolve", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if !c.OpenCage.Disabled && c.OpenCage.Key == "" {
		errs = append(errs, "opencage.key is required (set GEOFUSION_OPENCAGE_KEY or OPENCAGE_API_KEY)")
	}
	if !c.LocationIQ.Disabled && c.LocationIQ.Key == "" {
		errs = append(errs, "locationiq.key is required (set GEOFUSION_LOCATIONIQ_KEY or LOCATIONIQ_API_KEY)")
	}
	if c.OpenCage.Disabled && c.Nominatim.Disabled && c.LocationIQ.Disabled {
		errs = append(errs, "at least one geocoding provider must be enabled")
	}
	if c.Pipeline.EnrichConcurrency < 0 {
		errs = append(errs, "pipeline.enrich_concurrency must be >= 0")
	}

	if mode == "resolve" || mode == "serve" {
		r := c.Fusion.Region
		if r.MinLat < -90 || r.MaxLat > 90 || r.MinLat > r.MaxLat {
			errs = append(errs, "fusion.region latitude bounds must satisfy -90 <= min_lat <= max_lat <= 90")
		}
		if r.MinLon < -180 || r.MaxLon > 180 || r.MinLon > r.MaxLon {
			errs = append(errs, "fusion.region longitude bounds must satisfy -180 <= min_lon <= max_lon <= 180")
		}
		if c.Fusion.ImportanceThreshold < 0 {
			errs = append(errs, "fusion.importance_threshold must be >= 0")
		}
		if c.Fusion.ConsensusKM <= 0 {
			errs = append(errs, "fusion.consensus_km must be > 0")
		}
		if c.Pipeline.BatchConcurrency < 1 || c.Pipeline.BatchConcurrency > 64 {
			errs = append(errs, "pipeline.batch_concurrency must be between 1 and 64")
		}
	}

	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger configures the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
