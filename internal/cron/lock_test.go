package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

func TestRedisLockIsExclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	key := client.JobLockKey("maintenance")
	ctx := context.Background()

	first, err := NewRedisLock(client, key, time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, err := NewRedisLock(client, key, time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, ok=%v err=%v", ok, err)
	}

	// releasing without ownership leaves the flag alone
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !mr.Exists(key) {
		t.Fatal("flag removed by non-owner")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, ok=%v err=%v", ok, err)
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error without store")
	}
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	if _, err := NewRedisLock(client, "", 0); err == nil {
		t.Fatal("expected error without key")
	}
	lock, err := NewRedisLock(client, "k", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v", lock.ttl)
	}
}
