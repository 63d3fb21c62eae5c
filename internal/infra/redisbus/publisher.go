// Package redisbus publishes scoring notifications on a Redis pub/sub channel
// so other back-office processes can push them to connected clients.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// DefaultChannel is used when Options.Channel is empty.
const DefaultChannel = "hotelscore:notifications"

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Publisher is a domain.Notifier over Redis PUBLISH.
type Publisher struct {
	rdb     *goredis.Client
	channel string
	log     *logger.Logger
}

// New connects and pings Redis.
func New(ctx context.Context, opts Options, log *logger.Logger) (*Publisher, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(opts.Channel)
	if ch == "" {
		ch = DefaultChannel
	}
	if log == nil {
		log = logger.Nop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Publisher{rdb: rdb, channel: ch, log: log.With("component", "redisbus")}, nil
}

// Channel returns the pub/sub channel name.
func (p *Publisher) Channel() string { return p.channel }

// Notify publishes n as JSON.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis publisher not initialized")
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

// Subscribe forwards published notifications to onMsg until ctx ends.
// It returns once the subscription is confirmed.
func (p *Publisher) Subscribe(ctx context.Context, onMsg func(domain.Notification)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var n domain.Notification
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					p.log.Warn("bad notification payload", "error", err)
					continue
				}
				onMsg(n)
			}
		}
	}()
	return nil
}

// Ping checks the connection.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
