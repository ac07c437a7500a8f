package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/geofusion/internal/fusion"
)

// inTempDir changes to an empty directory so no config.yaml or .env is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://api.opencagedata.com/geocode/v1/json", cfg.OpenCage.BaseURL)
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Nominatim.BaseURL)
	assert.Equal(t, "https://us1.locationiq.com/v1/search.php", cfg.LocationIQ.BaseURL)
	assert.Equal(t, "https://www.wikidata.org/w/api.php", cfg.Wikidata.BaseURL)
	assert.InDelta(t, 1.0, cfg.Nominatim.RateLimit, 0.001)
	assert.Equal(t, 30*time.Second, cfg.OpenCage.Timeout())
	assert.Equal(t, 15*time.Second, cfg.Wikidata.Timeout())
	assert.Equal(t, 4, cfg.Pipeline.BatchConcurrency)
	assert.Equal(t, 8, cfg.Pipeline.EnrichConcurrency)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.SlowThreshold())
	assert.Equal(t, fusion.DefaultOptions(), cfg.Fusion.Options())
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
fusion:
  importance_threshold: 0.5
  trusted_provider: LocationIQ
  region:
    min_lat: 0
    max_lat: 60
pipeline:
  batch_concurrency: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Pipeline.BatchConcurrency)
	assert.InDelta(t, 0.5, cfg.Fusion.ImportanceThreshold, 0.001)
	assert.Equal(t, "LocationIQ", cfg.Fusion.TrustedProvider)
	assert.InDelta(t, 0, cfg.Fusion.Region.MinLat, 0.001)
	assert.InDelta(t, 60, cfg.Fusion.Region.MaxLat, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 34.0, cfg.Fusion.Region.MinLon, 0.001)
	assert.InDelta(t, 5.0, cfg.Fusion.ConsensusKM, 0.001)
	assert.Equal(t, 8, cfg.Pipeline.EnrichConcurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
log:
  level: debug
opencage:
  key: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOFUSION_LOG_LEVEL", "warn")
	t.Setenv("GEOFUSION_OPENCAGE_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.OpenCage.Key)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	inTempDir(t)

	t.Setenv("GEOFUSION_SERVER_PORT", "3000")
	t.Setenv("GEOFUSION_FUSION_CONSENSUS_KM", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 2.5, cfg.Fusion.ConsensusKM, 0.001)
}

func TestLoadPlainProviderKeys(t *testing.T) {
	inTempDir(t)

	t.Setenv("OPENCAGE_API_KEY", "oc-key")
	t.Setenv("LOCATIONIQ_API_KEY", "liq-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "oc-key", cfg.OpenCage.Key)
	assert.Equal(t, "liq-key", cfg.LocationIQ.Key)
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	inTempDir(t)

	t.Setenv("GEOFUSION_OPENCAGE_KEY", "prefixed")
	t.Setenv("OPENCAGE_API_KEY", "plain")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.OpenCage.Key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)

	// Registered with t.Setenv so the value set by godotenv is cleared afterwards.
	t.Setenv("LOCATIONIQ_API_KEY", "")
	require.NoError(t, os.Unsetenv("LOCATIONIQ_API_KEY"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOCATIONIQ_API_KEY=dotenv-key\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.LocationIQ.Key)
}

func TestLoadEnvFiles_ExplicitFile(t *testing.T) {
	dir := inTempDir(t)

	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("GEOFUSION_TEST_MARKER=custom\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEOFUSION_TEST_OTHER=dotenv\n"), 0644))
	t.Setenv("ENV_FILE", path)
	t.Setenv("GEOFUSION_TEST_MARKER", "")
	require.NoError(t, os.Unsetenv("GEOFUSION_TEST_MARKER"))
	t.Setenv("GEOFUSION_TEST_OTHER", "")
	require.NoError(t, os.Unsetenv("GEOFUSION_TEST_OTHER"))

	require.NoError(t, LoadEnvFiles())
	assert.Equal(t, "custom", os.Getenv("GEOFUSION_TEST_MARKER"))
	_, loaded := os.LookupEnv("GEOFUSION_TEST_OTHER")
	assert.False(t, loaded, ".env must be skipped when ENV_FILE is set")
}

func TestLoadEnvFiles_MissingIgnored(t *testing.T) {
	inTempDir(t)
	t.Setenv("ENV_FILE", "")
	assert.NoError(t, LoadEnvFiles())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.OpenCage.Key = "oc"
	cfg.LocationIQ.Key = "liq"
	cfg.Fusion = FusionConfig{
		Region:              fusion.DefaultRegion,
		ImportanceThreshold: 0.4,
		ConsensusKM:         5,
		TrustedProvider:     "OpenCage",
	}
	cfg.Pipeline.BatchConcurrency = 4
	cfg.Pipeline.EnrichConcurrency = 8
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"search", "resolve", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_MissingKeys(t *testing.T) {
	cfg := validDefaults()
	cfg.OpenCage.Key = ""
	cfg.LocationIQ.Key = ""

	err := cfg.Validate("resolve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "opencage.key is required")
	assert.Contains(t, err.Error(), "locationiq.key is required")
}

func TestValidate_DisabledProviderNeedsNoKey(t *testing.T) {
	cfg := validDefaults()
	cfg.LocationIQ.Key = ""
	cfg.LocationIQ.Disabled = true

	assert.NoError(t, cfg.Validate("search"))
}

func TestValidate_AllProvidersDisabled(t *testing.T) {
	cfg := validDefaults()
	cfg.OpenCage.Disabled = true
	cfg.Nominatim.Disabled = true
	cfg.LocationIQ.Disabled = true

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one geocoding provider")
}

func TestValidate_Fusion(t *testing.T) {
	cfg := validDefaults()
	cfg.Fusion.Region.MinLat = 40
	cfg.Fusion.ConsensusKM = 0
	cfg.Fusion.ImportanceThreshold = -1

	err := cfg.Validate("resolve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "latitude bounds")
	assert.Contains(t, err.Error(), "consensus_km must be > 0")
	assert.Contains(t, err.Error(), "importance_threshold must be >= 0")

	// search mode does not fuse.
	assert.NoError(t, cfg.Validate("search"))
}

func TestValidate_Longitude(t *testing.T) {
	cfg := validDefaults()
	cfg.Fusion.Region.MaxLon = 181

	err := cfg.Validate("resolve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "longitude bounds")
}

func TestValidate_BatchConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.BatchConcurrency = 0
	err := cfg.Validate("resolve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch_concurrency must be between 1 and 64")

	cfg.Pipeline.BatchConcurrency = 65
	assert.Error(t, cfg.Validate("resolve"))

	cfg.Pipeline.BatchConcurrency = 64
	assert.NoError(t, cfg.Validate("resolve"))
}

func TestValidate_EnrichConcurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Pipeline.EnrichConcurrency = -1

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "enrich_concurrency")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.NoError(t, cfg.Validate("resolve"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
