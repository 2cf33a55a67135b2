package testinfra

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pool   *pgxpool.Pool
	pgErr  error

	redisOnce   sync.Once
	redisClient *redis.Client
	redisErr    error

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error
)

// Postgres returns a pool on a shared container with the hosting schema applied.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	pgOnce.Do(func() {
		pool, pgErr = setupDB()
	})
	require.NoError(t, pgErr)
	return pool
}

func Redis(t *testing.T) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	redisOnce.Do(func() {
		redisClient, redisErr = setupRedis()
	})
	require.NoError(t, redisErr)
	return redisClient
}

// AWS returns a config pointing at a localstack S3.
func AWS(t *testing.T) aws.Config {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	awsOnce.Do(func() {
		awsCfg, awsErr = setupAWS()
	})
	require.NoError(t, awsErr)
	return awsCfg
}

func setupDB() (*pgxpool.Pool, error) {
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:17.2-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %v", err)
	}

	pgHostPort, err := pgC.Endpoint(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("postgres endpoint: %v", err)
	}
	pgDSN := fmt.Sprintf("postgres://postgres:password@%s/testdb?sslmode=disable", pgHostPort)

	p, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool connect: %v", err)
	}

	ok := false
	for i := 0; i < 20; i++ {
		slog.Info("ping db", "try", i)
		ctxPing, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		err = p.Ping(ctxPing)
		cancel()
		if err == nil {
			ok = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ok {
		return nil, fmt.Errorf("db did not respond after 20 attempts")
	}

	if err := db.Migrate(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func setupRedis() (*redis.Client, error) {
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start redis: %v", err)
	}
	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %v", err)
	}
	return client, nil
}

func setupAWS() (aws.Config, error) {
	ctx := context.Background()

	ls, err := localstack.Run(ctx,
		"localstack/localstack:1.4.0",
		testcontainers.WithEnv(map[string]string{"SERVICES": "s3"}),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to start localstack: %v", err)
	}
	mappedPort, err := ls.MappedPort(ctx, "4566/tcp")
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to get port: %v", err)
	}
	host, err := ls.Host(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to get host: %v", err)
	}

	os.Setenv("AWS_ACCESS_KEY_ID", "test")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	os.Setenv("AWS_REGION", "us-east-1")
	os.Setenv("AWS_ENDPOINT_URL", "http://"+host+":"+mappedPort.Port())

	slog.Info("SETUP AWS CONFIG")
	return awsConfig.LoadDefaultConfig(ctx)
}
