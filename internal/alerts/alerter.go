// Package alerts aggregates storage cleanup failures and notifies operators
// when they pile up. Orphaned objects cost money and indicate a storage
// incident, but a single failed delete is routine; alerting is windowed and
// thresholded so operators only hear about sustained trouble.
package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/mail"
)

var failureCounterScript = redis.NewScript(`
local count = redis.call("INCRBY", KEYS[1], ARGV[2])
if count == tonumber(ARGV[2]) then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

const (
	defaultThreshold = 10
	defaultWindow    = 15 * time.Minute
	// keyRetention keeps failed object keys around long enough for manual
	// cleanup after an incident.
	keyRetention = 7 * 24 * time.Hour
)

// Config configures the cleanup failure alerter.
type Config struct {
	RedisAddr     string
	RedisPassword string
	Prefix        string
	Threshold     int64
	Window        time.Duration
	Recipient     string
	Mailer        mail.Mailer
}

// CleanupAlerter counts failed object deletions in Redis windows and emails
// operators once per window when the count crosses the threshold. A nil
// alerter is safe to call and does nothing.
type CleanupAlerter struct {
	client    *redis.Client
	prefix    string
	threshold int64
	window    time.Duration
	recipient string
	mailer    mail.Mailer
}

// New creates a cleanup alerter backed by Redis counters. Returns nil when
// no Redis address is configured.
func New(cfg Config) *CleanupAlerter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "closet:alerts"
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	mailer := cfg.Mailer
	if mailer == nil {
		mailer = mail.NopMailer{}
	}
	return &CleanupAlerter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
		}),
		prefix:    prefix,
		threshold: threshold,
		window:    window,
		recipient: strings.TrimSpace(cfg.Recipient),
		mailer:    mailer,
	}
}

// RecordCleanupFailure counts the failed keys in the current window, stashes
// them for manual cleanup, and emails operators when the window count
// crosses the threshold. Never fails the calling operation.
func (a *CleanupAlerter) RecordCleanupFailure(ctx context.Context, userID string, keys []string) {
	if a == nil || a.client == nil || len(keys) == 0 {
		return
	}
	logger := util.LoggerFromContext(ctx)

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	windowMs := a.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	counterKey := fmt.Sprintf("%s:cleanup:%d", a.prefix, slot)

	if err := a.client.SAdd(opCtx, a.prefix+":orphans", toAny(keys)...).Err(); err != nil {
		logger.Warn("failed to record orphaned keys", "error", err)
	} else {
		a.client.Expire(opCtx, a.prefix+":orphans", keyRetention)
	}

	count, err := failureCounterScript.Run(opCtx, a.client, []string{counterKey}, windowMs, len(keys)).Int64()
	if err != nil {
		logger.Warn("failed to count cleanup failure", "error", err)
		return
	}
	if count < a.threshold {
		return
	}
	// Notify once per window: only the increment that crosses the threshold
	// sends mail.
	if count-int64(len(keys)) >= a.threshold {
		return
	}
	a.notify(opCtx, userID, count)
}

func (a *CleanupAlerter) notify(ctx context.Context, userID string, count int64) {
	logger := util.LoggerFromContext(ctx)
	if a.recipient == "" {
		logger.Error("cleanup failure threshold crossed, no alert recipient configured",
			"count", count, "window", a.window.String())
		return
	}
	msg := mail.Message{
		To:      a.recipient,
		Subject: "Wardrobe storage cleanup failures",
		Text: fmt.Sprintf(
			"%d image objects could not be deleted in the last %s (last failing user: %s).\n"+
				"Failed keys are stored in the %s:orphans Redis set for manual cleanup.",
			count, a.window.String(), userID, a.prefix),
	}
	if err := a.mailer.Send(ctx, msg); err != nil {
		logger.Error("failed to send cleanup alert", "error", err)
		return
	}
	logger.Info("cleanup alert sent", "count", count, "recipient", a.recipient)
}

// OrphanedKeys lists object keys recorded as undeletable, for cleanup
// tooling.
func (a *CleanupAlerter) OrphanedKeys(ctx context.Context) ([]string, error) {
	if a == nil || a.client == nil {
		return nil, nil
	}
	return a.client.SMembers(ctx, a.prefix+":orphans").Result()
}

// Close releases the Redis client.
func (a *CleanupAlerter) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
