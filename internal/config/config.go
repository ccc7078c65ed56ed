package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

const (
	ProviderFotMob      = "fotmob"
	ProviderAPIFootball = "apifootball"

	StateBackendFile     = "file"
	StateBackendPostgres = "postgres"
	StateBackendMemory   = "memory"

	QuotaModeBudget  = "budget"
	QuotaModeSpacing = "spacing"
)

// Config stores runtime configuration for the matchbot.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level
	LogFormat      string
	DryRun         bool

	StateBackend            string
	StateDir                string
	DBURL                   string
	DBDisablePreparedBinary bool
	MigrationsDir           string

	CompetitionsFile string
	Competitions     []competition.Competition

	UpstreamProvider    string
	UpstreamBaseURL     string
	UpstreamAPIKey      string
	UpstreamUserAgent   string
	UpstreamTimeout     time.Duration
	UpstreamSeason      int
	UpstreamQuotaMode   string
	UpstreamMinInterval time.Duration
	DailyCallLimit      int
	PerMinuteCallLimit  int
	MaxRetries          int
	CircuitEnabled      bool
	CircuitFailureCount int
	CircuitRecovery     time.Duration
	StandingsCacheTTL   time.Duration
	WeeklyWindow        time.Duration

	RedditAuthURL        string
	RedditBaseURL        string
	RedditClientID       string
	RedditClientSecret   string
	RedditUsername       string
	RedditPassword       string
	RedditUserAgent      string
	RedditSubreddit      string
	RedditTimeout        time.Duration
	RedditCircuitEnabled bool
	RedditModActions     bool
	BotContact           string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	BetterStackEnabled         bool
	BetterStackEndpoint        string
	BetterStackToken           string
	BetterStackTimeout         time.Duration
	BetterStackMinLevel        logging.Level
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// Load reads configuration from the environment, after applying an optional
// .env file (ENV_FILE, default ".env"). Variables already set win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logFormatDefault := "json"
	if appEnv == EnvDev {
		logFormatDefault = "console"
	}
	logFormat := strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", logFormatDefault)))
	if logFormat != "json" && logFormat != "console" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: valid values are json, console", logFormat)
	}

	dryRun, err := strconv.ParseBool(getEnv("DRY_RUN", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DRY_RUN: %w", err)
	}

	stateBackend := strings.ToLower(strings.TrimSpace(getEnv("STATE_BACKEND", StateBackendFile)))
	switch stateBackend {
	case StateBackendFile, StateBackendPostgres, StateBackendMemory:
	default:
		return Config{}, fmt.Errorf("invalid STATE_BACKEND %q: valid values are %s, %s, %s", stateBackend, StateBackendFile, StateBackendPostgres, StateBackendMemory)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if stateBackend == StateBackendPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STATE_BACKEND=%s", StateBackendPostgres)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	competitionsFile := strings.TrimSpace(getEnv("COMPETITIONS_FILE", ""))
	competitions := competition.Defaults()
	if competitionsFile != "" {
		competitions, err = LoadCompetitions(competitionsFile)
		if err != nil {
			return Config{}, err
		}
	}

	provider := strings.ToLower(strings.TrimSpace(getEnv("UPSTREAM_PROVIDER", ProviderFotMob)))
	baseURLDefault := "https://www.fotmob.com/api"
	switch provider {
	case ProviderFotMob:
	case ProviderAPIFootball:
		baseURLDefault = "https://v3.football.api-sports.io"
	default:
		return Config{}, fmt.Errorf("invalid UPSTREAM_PROVIDER %q: valid values are %s, %s", provider, ProviderFotMob, ProviderAPIFootball)
	}
	upstreamAPIKey := strings.TrimSpace(getEnv("UPSTREAM_API_KEY", ""))
	if provider == ProviderAPIFootball && upstreamAPIKey == "" {
		return Config{}, fmt.Errorf("UPSTREAM_API_KEY is required when UPSTREAM_PROVIDER=%s", ProviderAPIFootball)
	}

	upstreamTimeout, err := getEnvAsDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	upstreamSeason, err := getEnvAsInt("UPSTREAM_SEASON", time.Now().Year())
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_SEASON: %w", err)
	}

	quotaMode := strings.ToLower(strings.TrimSpace(getEnv("UPSTREAM_QUOTA_MODE", QuotaModeBudget)))
	if quotaMode != QuotaModeBudget && quotaMode != QuotaModeSpacing {
		return Config{}, fmt.Errorf("invalid UPSTREAM_QUOTA_MODE %q: valid values are %s, %s", quotaMode, QuotaModeBudget, QuotaModeSpacing)
	}
	minInterval, err := getEnvAsDuration("UPSTREAM_MIN_INTERVAL", "200ms")
	if err != nil {
		return Config{}, err
	}

	dailyLimit, err := getEnvAsPositiveInt("UPSTREAM_DAILY_LIMIT", 100)
	if err != nil {
		return Config{}, err
	}
	perMinuteLimit, err := getEnvAsPositiveInt("UPSTREAM_PER_MINUTE_LIMIT", 10)
	if err != nil {
		return Config{}, err
	}
	maxRetries, err := getEnvAsPositiveInt("UPSTREAM_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	circuitEnabled, err := strconv.ParseBool(getEnv("UPSTREAM_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsPositiveInt("UPSTREAM_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	circuitRecovery, err := getEnvAsDuration("UPSTREAM_CIRCUIT_RECOVERY", "300s")
	if err != nil {
		return Config{}, err
	}
	standingsCacheTTL, err := getEnvAsDuration("STANDINGS_CACHE_TTL", "30m")
	if err != nil {
		return Config{}, err
	}
	weeklyWindow, err := getEnvAsDuration("WEEKLY_WINDOW", "168h")
	if err != nil {
		return Config{}, err
	}

	redditTimeout, err := getEnvAsDuration("REDDIT_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	redditCircuitEnabled, err := strconv.ParseBool(getEnv("REDDIT_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REDDIT_CIRCUIT_ENABLED: %w", err)
	}
	redditModActions, err := strconv.ParseBool(getEnv("REDDIT_MOD_ACTIONS", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REDDIT_MOD_ACTIONS: %w", err)
	}
	redditClientID := strings.TrimSpace(getEnv("REDDIT_CLIENT_ID", ""))
	if !dryRun && appEnv == EnvProd && redditClientID == "" {
		return Config{}, fmt.Errorf("REDDIT_CLIENT_ID is required in %s unless DRY_RUN=true", EnvProd)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	betterStackEnabled, err := strconv.ParseBool(getEnv("BETTERSTACK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return Config{}, fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := getEnvAsDuration("BETTERSTACK_TIMEOUT", "3s")
	if err != nil {
		return Config{}, err
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("SERVICE_NAME", "matchthread-sync"),
		ServiceVersion:             getEnv("SERVICE_VERSION", "dev"),
		LogLevel:                   logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:                  logFormat,
		DryRun:                     dryRun,
		StateBackend:               stateBackend,
		StateDir:                   getEnv("STATE_DIR", "./state"),
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		MigrationsDir:              strings.TrimSpace(getEnv("MIGRATIONS_DIR", "")),
		CompetitionsFile:           competitionsFile,
		Competitions:               competitions,
		UpstreamProvider:           provider,
		UpstreamBaseURL:            strings.TrimRight(getEnv("UPSTREAM_BASE_URL", baseURLDefault), "/"),
		UpstreamAPIKey:             upstreamAPIKey,
		UpstreamUserAgent:          getEnv("UPSTREAM_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) matchthread-sync"),
		UpstreamTimeout:            upstreamTimeout,
		UpstreamSeason:             upstreamSeason,
		UpstreamQuotaMode:          quotaMode,
		UpstreamMinInterval:        minInterval,
		DailyCallLimit:             dailyLimit,
		PerMinuteCallLimit:         perMinuteLimit,
		MaxRetries:                 maxRetries,
		CircuitEnabled:             circuitEnabled,
		CircuitFailureCount:        circuitFailureCount,
		CircuitRecovery:            circuitRecovery,
		StandingsCacheTTL:          standingsCacheTTL,
		WeeklyWindow:               weeklyWindow,
		RedditAuthURL:              strings.TrimRight(getEnv("REDDIT_AUTH_URL", "https://www.reddit.com"), "/"),
		RedditBaseURL:              strings.TrimRight(getEnv("REDDIT_BASE_URL", "https://oauth.reddit.com"), "/"),
		RedditClientID:             redditClientID,
		RedditClientSecret:         getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUsername:             getEnv("REDDIT_USERNAME", ""),
		RedditPassword:             getEnv("REDDIT_PASSWORD", ""),
		RedditUserAgent:            getEnv("REDDIT_USER_AGENT", "linux:matchthread-sync:v1.0"),
		RedditSubreddit:            getEnv("REDDIT_SUBREDDIT", "LeagueOfIreland"),
		RedditTimeout:              redditTimeout,
		RedditCircuitEnabled:       redditCircuitEnabled,
		RedditModActions:           redditModActions,
		BotContact:                 strings.TrimSpace(getEnv("BOT_CONTACT", "/u/LOIMatchThreads")),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		BetterStackEnabled:         betterStackEnabled,
		BetterStackEndpoint:        betterStackEndpoint,
		BetterStackToken:           getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackTimeout:         betterStackTimeout,
		BetterStackMinLevel:        logging.ParseLevel(getEnv("BETTERSTACK_MIN_LEVEL", "warn")),
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", "matchthread-sync"),
		PyroscopeAuthToken:         getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:     getEnv("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}

	return cfg, nil
}

// CompetitionByKey finds a configured competition.
func (c Config) CompetitionByKey(key string) (competition.Competition, bool) {
	key = strings.TrimSpace(key)
	for _, item := range c.Competitions {
		if item.Key == key {
			return item, true
		}
	}
	return competition.Competition{}, false
}

func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
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

func getEnvAsPositiveInt(key string, fallback int) (int, error) {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
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
