package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/constructia/billing/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyCheckoutClient  = "billing:checkout:client:%s"
	keyWebhookProvider = "billing:webhook:provider:%s"
	keySettleLock      = "billing:settle:lock:%s"
)

// IngressLimiter throttles the two public write paths: checkout opening and
// webhook ingestion. With no redis configured it allows everything, so a
// single-node deployment runs without one.
type IngressLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker
	policy *config.BillingPolicyHolder

	lockTTL time.Duration
}

func NewIngressLimiter(cfg config.Config, policy *config.BillingPolicyHolder) *IngressLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &IngressLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		policy:  policy,
		lockTTL: 30 * time.Second,
	}
}

func (l *IngressLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *IngressLimiter) AllowCheckout(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	p := l.policy.Get()
	return l.bucket.Allow(ctx,
		fmt.Sprintf(keyCheckoutClient, strings.TrimSpace(clientKey)),
		p.CheckoutRatePerSec, p.CheckoutBurst,
	)
}

func (l *IngressLimiter) AllowWebhook(ctx context.Context, provider string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	p := l.policy.Get()
	return l.bucket.Allow(ctx,
		fmt.Sprintf(keyWebhookProvider, strings.TrimSpace(provider)),
		p.WebhookRatePerSec, p.WebhookBurst,
	)
}

// TryLockTransaction serializes settlement work for one transaction across
// nodes. The database unique index stays the correctness guarantee; the lock
// only avoids wasted parallel work.
func (l *IngressLimiter) TryLockTransaction(ctx context.Context, transactionID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keySettleLock, strings.TrimSpace(transactionID)), l.lockTTL)
}

func (l *IngressLimiter) ReleaseTransaction(ctx context.Context, transactionID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keySettleLock, strings.TrimSpace(transactionID)), token)
}
