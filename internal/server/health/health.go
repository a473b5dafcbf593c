// Package health reports whether the service's backing components answer.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	componentUp   = "up"
	componentDown = "down"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB and by a redis client adapter.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Component struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
	Timestamp  string               `json:"timestamp"`
}

// Healthy reports whether every component is up.
func (r Report) Healthy() bool { return r.Status == StatusOK }

// Checker pings registered components concurrently.
type Checker struct {
	components map[string]Pinger
	now        func() time.Time
}

func NewChecker() *Checker {
	return &Checker{components: map[string]Pinger{}, now: time.Now}
}

// Add registers a component under name. A nil pinger is ignored.
func (c *Checker) Add(name string, p Pinger) *Checker {
	if p != nil {
		c.components[name] = p
	}
	return c
}

func (c *Checker) Check(ctx context.Context) Report {
	report := Report{
		Status:     StatusOK,
		Components: make(map[string]Component, len(c.components)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range c.components {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			comp := Component{Status: componentUp}
			if err := p.PingContext(ctx); err != nil {
				comp = Component{Status: componentDown, Error: err.Error()}
			}

			mu.Lock()
			report.Components[name] = comp
			if comp.Status != componentUp {
				report.Status = StatusDegraded
			}
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	report.Timestamp = c.now().UTC().Format(time.RFC3339Nano)
	return report
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct {
	client redis.UniversalClient
}

func NewRedisPinger(client redis.UniversalClient) *RedisPinger {
	return &RedisPinger{client: client}
}

// OpenRedis parses a redis:// URL into a client. An empty url returns nil.
func OpenRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (p *RedisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
