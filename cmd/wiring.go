package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	infradb "github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	store "github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/render"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/storage"
	"github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/Builder-Lawyers/hosting-backend/pkg/env"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newUoWFactory(ctx context.Context) (*db.UOWFactory, error) {
	pool, err := pgxpool.New(ctx, db.NewConfig().GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to db: %v", err)
	}
	if err := infradb.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return db.NewUoWFactory(pool), nil
}

// newStore opens the hosting root with the configured claim backend and clears leftovers of
// interrupted runs. The returned close func releases the redis client, if any.
func newStore(ctx context.Context, cfg *config.HostingConfig) (*store.FSStore, func(), error) {
	var (
		claimer store.Claimer
		closeFn = func() {}
	)
	switch cfg.ClaimBackend {
	case config.ClaimBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     env.GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: env.GetEnv("REDIS_PASSWORD", ""),
			DB:       env.GetEnvInt("REDIS_DB", 0),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %v", err)
		}
		claimer = store.NewRedisClaimer(client, cfg.ClaimTTL)
		closeFn = func() { _ = client.Close() }
	case config.ClaimBackendFS:
		dirClaimer, err := store.NewDirClaimer(filepath.Join(cfg.Root, store.ClaimsDir), cfg.ClaimTTL)
		if err != nil {
			return nil, nil, err
		}
		claimer = dirClaimer
	default:
		return nil, nil, fmt.Errorf("unknown claim backend %q", cfg.ClaimBackend)
	}

	fsStore, err := store.NewFSStore(cfg, claimer)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := fsStore.Sweep(ctx); err != nil {
		slog.Warn("err sweeping hosting root", "root", cfg.Root, "err", err)
	}
	return fsStore, closeFn, nil
}

func newManager(cfg *config.HostingConfig, fsStore *store.FSStore) (*hosting.Manager, error) {
	renderer, err := render.NewRenderer(render.Config{})
	if err != nil {
		return nil, err
	}
	return hosting.NewManager(cfg, renderer, fsStore, nil), nil
}

// newMirror returns nil when mirroring is disabled.
func newMirror(ctx context.Context) (*storage.Mirror, error) {
	mirrorConfig := storage.NewMirrorConfig()
	if !mirrorConfig.Enabled {
		return nil, nil
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't load aws config, %v", err)
	}
	s3 := storage.NewStorage(awsCfg, mirrorConfig.Bucket)
	if err := s3.CreateBucket(ctx); err != nil {
		slog.Debug("mirror bucket not created", "bucket", mirrorConfig.Bucket, "err", err)
	}
	return storage.NewMirror(s3, mirrorConfig), nil
}
