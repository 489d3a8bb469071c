package config

import "time"

// Config stores environment configuration for Spyglass.
type Config struct {
	Port         string
	ServiceToken string

	// Aggregation defaults
	SearchTimeout   time.Duration
	TrendsTimeout   time.Duration
	MaxWorkers      int
	UseCache        bool
	FallbackToCache bool

	// Cache
	CacheBackend  string // "memory" or "redis"
	CacheTTL      time.Duration
	CacheSweep    time.Duration // 0 disables the background sweeper
	RedisURL      string
	RedisKeyspace string

	// Source selection and overrides
	Sources           []string
	WildberriesURL    string
	OzonURL           string
	YandexMarketURL   string
	GoogleTrendsURL   string
	SourceHTTPTimeout time.Duration
	MaxRetries        int
}

// SourceURL returns the configured API URL override for a source, empty
// when the source's built-in default should be used.
func (c Config) SourceURL(name string) string {
	switch name {
	case "wildberries":
		return c.WildberriesURL
	case "ozon":
		return c.OzonURL
	case "yandex_market":
		return c.YandexMarketURL
	case "google_trends":
		return c.GoogleTrendsURL
	default:
		return ""
	}
}

// DefaultSources lists the sources enabled when SOURCES is unset.
var DefaultSources = []string{"wildberries", "ozon", "yandex_market", "google_trends"}

// LoadConfig loads the Spyglass configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:         GetEnv("PORT", "18090"),
		ServiceToken: GetEnv("SERVICE_TOKEN", ""),

		SearchTimeout:   GetEnvDuration("SEARCH_TIMEOUT", 30*time.Second),
		TrendsTimeout:   GetEnvDuration("TRENDS_TIMEOUT", 30*time.Second),
		MaxWorkers:      GetEnvInt("MAX_CONCURRENT_FETCHES", 3),
		UseCache:        GetEnvBool("USE_CACHE", true),
		FallbackToCache: GetEnvBool("FALLBACK_TO_CACHE", true),

		CacheBackend:  GetEnv("CACHE_BACKEND", "memory"),
		CacheTTL:      GetEnvDuration("CACHE_TTL", 6*time.Hour),
		CacheSweep:    GetEnvDuration("CACHE_SWEEP_INTERVAL", 0),
		RedisURL:      GetEnv("REDIS_URL", ""),
		RedisKeyspace: GetEnv("REDIS_KEYSPACE", "spyglass"),

		Sources:           GetEnvSlice("SOURCES", DefaultSources),
		WildberriesURL:    GetEnv("WILDBERRIES_API_URL", ""),
		OzonURL:           GetEnv("OZON_API_URL", ""),
		YandexMarketURL:   GetEnv("YANDEX_MARKET_API_URL", ""),
		GoogleTrendsURL:   GetEnv("GOOGLE_TRENDS_API_URL", ""),
		SourceHTTPTimeout: GetEnvDuration("SOURCE_HTTP_TIMEOUT", 15*time.Second),
		MaxRetries:        GetEnvInt("SOURCE_MAX_RETRIES", 3),
	}
}
