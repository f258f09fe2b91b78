package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/pyquest-go-api/internal/audit"
	"github.com/noah-isme/pyquest-go-api/internal/ratelimit"
	"github.com/noah-isme/pyquest-go-api/internal/utils"
)

// RateLimitConfig groups the knobs for the submission rate limiter.
type RateLimitConfig struct {
	Limiter *ratelimit.Limiter
	Max     int
	Window  time.Duration
	Sink    audit.Sink
}

// RateLimit enforces a fixed-window per-caller submission quota. Every
// response carries the X-RateLimit-* headers; rejections are audited.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *fiber.Ctx) error {
		key := limiterKey(c)
		decision := cfg.Limiter.Allow(key, cfg.Max, cfg.Window)

		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			if cfg.Sink != nil {
				cfg.Sink.Record(c.UserContext(), audit.Event{
					Level:     audit.LevelWarn,
					Code:      "RATE_LIMIT_EXCEEDED",
					Route:     c.Path(),
					Identity:  key,
					RequestID: GetRequestID(c),
					Message:   "submission quota exhausted",
				})
			}
			return utils.SendErrorWithCode(c, fiber.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many submissions, slow down")
		}

		return c.Next()
	}
}

func limiterKey(c *fiber.Ctx) string {
	if id := GetStudentID(c); id != 0 {
		return strconv.FormatUint(uint64(id), 10) + "|" + c.IP()
	}
	return c.IP()
}
