package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestCheck_AllUp(t *testing.T) {
	c := NewChecker().
		Add("database", pingFunc(func(context.Context) error { return nil })).
		Add("redis", nil)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	r := c.Check(context.Background())
	if !r.Healthy() {
		t.Fatalf("want healthy, got %+v", r)
	}
	if len(r.Components) != 1 || r.Components["database"].Status != "up" {
		t.Fatalf("unexpected components: %+v", r.Components)
	}
	if r.Timestamp != "2024-01-02T03:04:05Z" {
		t.Fatalf("timestamp = %q", r.Timestamp)
	}
}

func TestCheck_Degraded(t *testing.T) {
	c := NewChecker().
		Add("database", pingFunc(func(context.Context) error { return nil })).
		Add("redis", pingFunc(func(context.Context) error { return errors.New("connection refused") }))

	r := c.Check(context.Background())
	if r.Healthy() || r.Status != StatusDegraded {
		t.Fatalf("want degraded, got %+v", r)
	}
	if got := r.Components["redis"]; got.Status != "down" || got.Error != "connection refused" {
		t.Fatalf("unexpected redis component: %+v", got)
	}
}

func TestCheck_SQLDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("db gone"))

	r := NewChecker().Add("database", db).Check(context.Background())
	if r.Components["database"].Status != "down" {
		t.Fatalf("want database down, got %+v", r.Components)
	}
}

func TestOpenRedis(t *testing.T) {
	client, err := OpenRedis("")
	if err != nil || client != nil {
		t.Fatalf("empty url: %v, %v", client, err)
	}

	if _, err := OpenRedis("://bad"); err == nil {
		t.Fatal("expected error for malformed url")
	}

	client, err = OpenRedis("redis://localhost:6379/0")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer client.Close()
	if client.Options().Addr != "localhost:6379" {
		t.Fatalf("addr = %q", client.Options().Addr)
	}
}

func TestRedisPinger_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	if err := NewRedisPinger(client).PingContext(context.Background()); err == nil {
		t.Fatal("expected ping to fail")
	}
}
