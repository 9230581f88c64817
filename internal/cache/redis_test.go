package cache

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
)

func stubClient(t *testing.T, captured *string) {
	t.Helper()
	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	newRedisClient = func(opts *redis.Options) *redis.Client {
		*captured = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}
}

func TestInitRedisWithCustomAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")
	var capturedAddr string
	stubClient(t, &capturedAddr)

	InitRedis(context.Background())
	if capturedAddr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", capturedAddr)
	}
}

func TestInitRedisDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	var capturedAddr string
	stubClient(t, &capturedAddr)

	InitRedis(context.Background())
	if capturedAddr != "localhost:6379" {
		t.Fatalf("expected default addr, got %s", capturedAddr)
	}
}

func TestInitRedisParsesURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:secret@cache:6380/2")
	var capturedAddr string
	stubClient(t, &capturedAddr)

	InitRedis(context.Background())
	if capturedAddr != "cache:6380" {
		t.Fatalf("expected parsed addr, got %s", capturedAddr)
	}
	if Client.Options().DB != 2 || Client.Options().Password != "secret" {
		t.Fatalf("expected db and password from url, got %+v", Client.Options())
	}
}

func TestInitRedisPingsClient(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	db, mock := redismock.NewClientMock()

	origNewClient := newRedisClient
	t.Cleanup(func() {
		newRedisClient = origNewClient
		Client = nil
	})
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return db
	}
	mock.ExpectPing().SetVal("PONG")

	InitRedis(context.Background())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
	if Client != db {
		t.Fatal("expected package client to be set")
	}
}
