package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"golang.org/x/time/rate"
)

// RateLimiterConfig bundles the limits applied to the different route groups
type RateLimiterConfig struct {
	GeneralLimit  int
	GeneralWindow time.Duration
	AuthLimit     int
	AuthWindow    time.Duration
	LookupLimit   int
	LookupWindow  time.Duration
}

// DefaultRateLimiterConfig returns the limits used when none are configured
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralLimit:  300,
		GeneralWindow: time.Minute,
		AuthLimit:     10,
		AuthWindow:    time.Minute,
		LookupLimit:   30,
		LookupWindow:  time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter middleware with the provided configuration
func NewRateLimiter(config RateLimiterConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GeneralLimit,
		Expiration: config.GeneralWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests. Please try again later.",
				"retry_after": config.GeneralWindow.Seconds(),
			})
		},
	})
}

// NewAuthRateLimiter creates a rate limiter specifically for authentication endpoints
func NewAuthRateLimiter(config RateLimiterConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AuthLimit,
		Expiration: config.AuthWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"message":     "Too many authentication attempts. Please try again later.",
				"retry_after": config.AuthWindow.Seconds(),
			})
		},
	})
}

// NewLookupRateLimiter creates a rate limiter for the metadata lookup endpoints,
// which fan out to external providers with their own quotas
func NewLookupRateLimiter(config RateLimiterConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.LookupLimit,
		Expiration: config.LookupWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"message":     "Too many lookup requests. Please try again later.",
				"retry_after": config.LookupWindow.Seconds(),
			})
		},
	})
}

// RateLimitByUser creates a rate limiter that applies limits per user rather
// than per IP. Unauthenticated requests fall back to the client address.
func RateLimitByUser(queriesPerWindow int, window time.Duration) fiber.Handler {
	var (
		mu           sync.Mutex
		limiterStore = make(map[string]*rate.Limiter)
		windowStart  = time.Now().Truncate(window)
	)

	return func(c *fiber.Ctx) error {
		user, ok := GetUserFromContext(c)
		var key string

		if ok && user.ID != 0 {
			key = strconv.FormatInt(user.ID, 10)
		} else {
			key = c.IP()
		}

		mu.Lock()
		// Drop all counters when the window rolls over
		if now := time.Now().Truncate(window); !now.Equal(windowStart) {
			windowStart = now
			limiterStore = make(map[string]*rate.Limiter)
		}

		userLimiter, exists := limiterStore[key]
		if !exists {
			userLimiter = rate.NewLimiter(rate.Every(window/time.Duration(queriesPerWindow)), queriesPerWindow)
			limiterStore[key] = userLimiter
		}
		mu.Unlock()

		if !userLimiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests. Please try again later.",
				"retry_after": window.Seconds(),
			})
		}

		return c.Next()
	}
}
