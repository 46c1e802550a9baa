package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	CORSAllowedOrigins         []string
	LogLevel                   logging.Level
	NHLEBaseURL                string
	NHLETimeout                time.Duration
	NHLECircuitEnabled         bool
	NHLECircuitFailureCount    int
	NHLECircuitOpenTimeout     time.Duration
	NHLECircuitHalfOpenMaxReq  int
	DataDir                    string
	TeamDirectoryStore         string
	TeamDirectoryCacheTTL      time.Duration
	TeamDirectoryRefreshCron   string
	DBURL                      string
	DBBinaryParameters         bool
	RedisURL                   string
	RedisDirectoryKey          string
	RosterSyncWorkers          int
	PlayerFetchWorkers         int
	MetricsEnabled             bool
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory seeds variables that are not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	nhleTimeout, err := time.ParseDuration(getEnv("NHLE_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NHLE_TIMEOUT: %w", err)
	}
	if nhleTimeout <= 0 {
		return Config{}, fmt.Errorf("NHLE_TIMEOUT must be > 0")
	}

	nhleCircuitEnabled, err := strconv.ParseBool(getEnv("NHLE_CIRCUIT_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NHLE_CIRCUIT_ENABLED: %w", err)
	}

	nhleCircuitFailureCount, err := getEnvAsInt("NHLE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse NHLE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if nhleCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("NHLE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	nhleCircuitOpenTimeout, err := time.ParseDuration(getEnv("NHLE_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NHLE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if nhleCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("NHLE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	nhleCircuitHalfOpenMaxReq, err := getEnvAsInt("NHLE_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse NHLE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if nhleCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("NHLE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	store, err := parseStore(getEnv("TEAM_DIRECTORY_STORE", StoreFile))
	if err != nil {
		return Config{}, err
	}

	cacheTTL, err := time.ParseDuration(getEnv("TEAM_DIRECTORY_CACHE_TTL", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TEAM_DIRECTORY_CACHE_TTL: %w", err)
	}
	if cacheTTL < 0 {
		return Config{}, fmt.Errorf("TEAM_DIRECTORY_CACHE_TTL must be >= 0")
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if store == StorePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when TEAM_DIRECTORY_STORE=%s", StorePostgres)
	}
	dbBinaryParameters, err := strconv.ParseBool(getEnv("DB_BINARY_PARAMETERS", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_BINARY_PARAMETERS: %w", err)
	}

	redisURL := strings.TrimSpace(getEnv("REDIS_URL", ""))
	if store == StoreRedis && redisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL is required when TEAM_DIRECTORY_STORE=%s", StoreRedis)
	}

	rosterSyncWorkers, err := getEnvAsInt("ROSTER_SYNC_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_SYNC_WORKERS: %w", err)
	}
	if rosterSyncWorkers < 1 {
		return Config{}, fmt.Errorf("ROSTER_SYNC_WORKERS must be >= 1")
	}

	playerFetchWorkers, err := getEnvAsInt("PLAYER_FETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse PLAYER_FETCH_WORKERS: %w", err)
	}
	if playerFetchWorkers < 1 {
		return Config{}, fmt.Errorf("PLAYER_FETCH_WORKERS must be >= 1")
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "nhl-actions"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		NHLEBaseURL:                strings.TrimSpace(getEnv("NHLE_BASE_URL", "https://api-web.nhle.com/v1")),
		NHLETimeout:                nhleTimeout,
		NHLECircuitEnabled:         nhleCircuitEnabled,
		NHLECircuitFailureCount:    nhleCircuitFailureCount,
		NHLECircuitOpenTimeout:     nhleCircuitOpenTimeout,
		NHLECircuitHalfOpenMaxReq:  nhleCircuitHalfOpenMaxReq,
		DataDir:                    strings.TrimSpace(getEnv("DATA_DIR", "data")),
		TeamDirectoryStore:         store,
		TeamDirectoryCacheTTL:      cacheTTL,
		TeamDirectoryRefreshCron:   strings.TrimSpace(getEnv("TEAM_DIRECTORY_REFRESH_CRON", "")),
		DBURL:                      dbURL,
		DBBinaryParameters:         dbBinaryParameters,
		RedisURL:                   redisURL,
		RedisDirectoryKey:          strings.TrimSpace(getEnv("REDIS_DIRECTORY_KEY", "nhl:teams:directory")),
		RosterSyncWorkers:          rosterSyncWorkers,
		PlayerFetchWorkers:         playerFetchWorkers,
		MetricsEnabled:             metricsEnabled,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseStore(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case StoreFile, StoreMemory, StorePostgres, StoreRedis:
		return value, nil
	default:
		return "", fmt.Errorf("invalid TEAM_DIRECTORY_STORE %q: valid values are %s, %s, %s, %s", v, StoreFile, StoreMemory, StorePostgres, StoreRedis)
	}
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
