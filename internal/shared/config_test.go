package shared

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "MONGODB_URI", "STORE_DRIVER", "REDIS_ADDR", "UPLOAD_DIR", "JWT_SECRET", "SLUG_WORKERS", "LOGIN_RPS", "TRUSTED_PROXIES"} {
		t.Setenv(k, "")
	}
	c := FromEnv()

	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Equal(t, DefaultMongoURI, c.MongoURI)
	assert.Equal(t, "mongo", c.StoreDriver)
	assert.Empty(t, c.RedisAddr)
	assert.Equal(t, "uploads", c.UploadDir)
	assert.Empty(t, c.JWTSecret)
	assert.Equal(t, 4, c.SlugWorkers)
	assert.Equal(t, 1.0, c.LoginRPS)
	assert.Empty(t, c.TrustedProxies)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("ADMIN_AUTH_REQUIRED", "true")
	t.Setenv("LOGIN_RPS", "2.5")
	t.Setenv("SLUG_WORKERS", "0")
	t.Setenv("MINIO_USE_SSL", "not-a-bool")

	c := FromEnv()

	assert.Equal(t, ":8081", c.HTTPAddr)
	assert.Equal(t, "mongodb://db:27017", c.MongoURI)
	assert.Equal(t, "mysql", c.StoreDriver)
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.True(t, c.AdminAuthRequired)
	assert.Equal(t, 2.5, c.LoginRPS)
	assert.Equal(t, 1, c.SlugWorkers)
	assert.False(t, c.MinIO.UseSSL)
}

func TestFromEnv_NonPositiveLoginRateFallsBack(t *testing.T) {
	for _, v := range []string{"0", "-3"} {
		t.Setenv("LOGIN_RPS", v)
		assert.Equal(t, 1.0, FromEnv().LoginRPS, v)
	}
}

func TestFromEnv_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, 192.168.1.7 ,bogus, fd00::1/64")

	c := FromEnv()

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
		netip.MustParsePrefix("fd00::/64"),
	}, c.TrustedProxies)
}
