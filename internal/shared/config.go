package shared

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMongoURI = "mongodb://localhost:27017"
	DefaultPort     = "5000"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	MySQLDSN      string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	UploadDir     string
	UploadBackend string
	MinIO         MinIOConfig

	JWTSecret         string
	TokenTTL          time.Duration
	AdminAuthRequired bool
	AdminUsername     string
	AdminPassword     string

	SeedOnStart bool
	LoginRPS    float64
	SlugWorkers int

	// proxies allowed to name the client via X-Forwarded-For
	TrustedProxies []netip.Prefix

	// remote seed catalog for cmd/seed
	CatalogURL string
	CatalogKey string
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    ":" + env("PORT", DefaultPort),
		MetricsAddr: env("METRICS_ADDR", ""),

		StoreDriver:   strings.ToLower(env("STORE_DRIVER", "mongo")),
		MongoURI:      env("MONGODB_URI", DefaultMongoURI),
		MongoDatabase: env("MONGODB_DATABASE", "healthdir"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/healthdir?parseTime=true&charset=utf8mb4&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		UploadDir:     env("UPLOAD_DIR", "uploads"),
		UploadBackend: strings.ToLower(env("UPLOAD_BACKEND", "disk")),
		MinIO: MinIOConfig{
			Endpoint:   env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  env("MINIO_ACCESS_KEY", ""),
			SecretKey:  env("MINIO_SECRET_KEY", ""),
			Bucket:     env("MINIO_BUCKET", "healthdir"),
			UseSSL:     boolean("MINIO_USE_SSL", false),
			PublicBase: env("MINIO_PUBLIC_BASE", ""),
		},

		JWTSecret:         env("JWT_SECRET", ""),
		TokenTTL:          time.Duration(atoi("TOKEN_TTL_MINUTES", 720)) * time.Minute,
		AdminAuthRequired: boolean("ADMIN_AUTH_REQUIRED", false),
		AdminUsername:     env("ADMIN_USERNAME", "admin"),
		AdminPassword:     env("ADMIN_PASSWORD", "admin123"),

		SeedOnStart: boolean("SEED_ON_START", true),
		LoginRPS:    float("LOGIN_RPS", 1),
		SlugWorkers: atoi("SLUG_WORKERS", 4),

		TrustedProxies: prefixes("TRUSTED_PROXIES"),

		CatalogURL: env("CATALOG_URL", ""),
		CatalogKey: env("CATALOG_API_KEY", ""),
	}
	if c.AdminAuthRequired && c.JWTSecret == "" {
		log.Warn().Msg("ADMIN_AUTH_REQUIRED is set but JWT_SECRET is empty; the static token guards /admin")
	}
	if c.SlugWorkers < 1 {
		c.SlugWorkers = 1
	}
	if c.LoginRPS <= 0 {
		c.LoginRPS = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func float(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// prefixes parses a comma-separated list of CIDRs or bare addresses.
// Malformed entries are logged and skipped.
func prefixes(k string) []netip.Prefix {
	var out []netip.Prefix
	for _, part := range strings.Split(os.Getenv(k), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if p, err := netip.ParsePrefix(part); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(part); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		log.Warn().Str("env", k).Str("value", part).Msg("ignoring malformed proxy address")
	}
	return out
}
