package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wiproedx/synergeticsopenedx/utils/cache"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

// CouponAttemptGuard locks users out of coupon redemption after repeated
// unknown codes, so codes cannot be enumerated.
type CouponAttemptGuard struct {
	store cache.Store
}

// NewCouponAttemptGuard creates a guard. A nil store disables it.
func NewCouponAttemptGuard(store cache.Store) *CouponAttemptGuard {
	return &CouponAttemptGuard{store: store}
}

func attemptKey(userID uint) string { return fmt.Sprintf("coupon_attempts:count:%d", userID) }
func lockKey(userID uint) string    { return fmt.Sprintf("coupon_attempts:lock:%d", userID) }

// lockDuration is the progressive lockout for the given failure count.
func lockDuration(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	}
	return 0
}

// Check rejects requests from locked-out users. Must run after
// AuthMiddleware.Required.
func (g *CouponAttemptGuard) Check() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g == nil || g.store == nil {
			return c.Next()
		}
		userID, ok := GetUserID(c)
		if !ok {
			return c.Next()
		}

		key := lockKey(userID)
		locked, err := g.store.Exists(c.UserContext(), key)
		if err != nil {
			// Cache outages must not block purchases.
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		ttl, _ := g.store.TTL(c.UserContext(), key)
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = 60
		}
		c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many invalid coupon codes. Try again in %d seconds", retryAfter))
	}
}

// RecordFailure counts an unknown code and applies the lockout.
func (g *CouponAttemptGuard) RecordFailure(ctx context.Context, userID uint) {
	if g == nil || g.store == nil {
		return
	}
	attempts, err := g.store.Increment(ctx, attemptKey(userID))
	if err != nil {
		return
	}
	if attempts == 1 {
		_ = g.store.Expire(ctx, attemptKey(userID), 15*time.Minute)
	}
	if d := lockDuration(attempts); d > 0 {
		_ = g.store.Set(ctx, lockKey(userID), "locked", d)
	}
}

// RecordSuccess clears the user's failure count.
func (g *CouponAttemptGuard) RecordSuccess(ctx context.Context, userID uint) {
	if g == nil || g.store == nil {
		return
	}
	_ = g.store.Delete(ctx, attemptKey(userID), lockKey(userID))
}
