// Package bootstrap opens the backends selected by the configuration. It is
// shared by the API and the seed CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	redisad "healthdir/internal/adapters/redis"
	"healthdir/internal/adapters/uploads"
	"healthdir/internal/domain"
	"healthdir/internal/shared"
	"healthdir/internal/storage/memory"
	mongorepo "healthdir/internal/storage/mongo"
	mysqlrepo "healthdir/internal/storage/mysql"
)

// Store is an opened Repository plus its lifecycle hooks.
type Store struct {
	domain.Repository
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

func OpenStore(ctx context.Context, cfg shared.Config) (Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case "mongo":
		client, err := mongorepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return Store{}, fmt.Errorf("connect mongo: %w", err)
		}
		repo := mongorepo.New(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return Store{}, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("db", cfg.MongoDatabase).Msg("mongo connection ok")
		return Store{Repository: repo, Ping: repo.Ping, Close: client.Disconnect}, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return Store{}, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return Store{}, fmt.Errorf("db.Ping: %w", err)
		}
		repo := mysqlrepo.New(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return Store{}, fmt.Errorf("mysql schema: %w", err)
		}
		log.Info().Msg("mysql connection ok")
		return Store{Repository: repo, Ping: repo.Ping, Close: func(context.Context) error { return db.Close() }}, nil

	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return Store{Repository: memory.New(), Close: func(context.Context) error { return nil }}, nil
	}
	return Store{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// OpenCache returns nil when no Redis address is configured or Redis is
// unreachable; reads then always hit the store.
func OpenCache(ctx context.Context, cfg shared.Config) (domain.Cache, func() error) {
	if cfg.RedisAddr == "" {
		return nil, func() error { return nil }
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
		_ = c.Close()
		return nil, func() error { return nil }
	}
	return c, c.Close
}

// OpenImages returns the image store and, for the disk backend, the directory
// to serve under /uploads/.
func OpenImages(ctx context.Context, cfg shared.Config) (domain.ImageStore, string, error) {
	switch cfg.UploadBackend {
	case "minio":
		m, err := uploads.NewMinIO(ctx, uploads.MinIOConfig{
			Endpoint:   cfg.MinIO.Endpoint,
			AccessKey:  cfg.MinIO.AccessKey,
			SecretKey:  cfg.MinIO.SecretKey,
			Bucket:     cfg.MinIO.Bucket,
			UseSSL:     cfg.MinIO.UseSSL,
			PublicBase: cfg.MinIO.PublicBase,
		})
		if err != nil {
			return nil, "", fmt.Errorf("minio: %w", err)
		}
		return m, "", nil
	case "disk", "":
		d, err := uploads.NewDisk(cfg.UploadDir)
		if err != nil {
			return nil, "", err
		}
		return d, d.Dir(), nil
	}
	return nil, "", fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.UploadBackend)
}
