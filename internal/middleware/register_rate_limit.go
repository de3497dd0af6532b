package middleware

import (
    "strings"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/redis/go-redis/v9"

    "github.com/stepwise-app/stepwise/internal/apperr"
)

// RegisterRateLimit caps registration attempts per email or IP using Redis
// if available.
func RegisterRateLimit(cache *redis.Client, max int, window time.Duration) fiber.Handler {
    if max <= 0 {
        max = 5
    }
    if window <= 0 {
        window = time.Minute
    }
    return func(c *fiber.Ctx) error {
        if cache == nil {
            return c.Next() // no-op without Redis
        }
        var req struct {
            Email string `json:"email"`
        }
        _ = c.BodyParser(&req)
        who := strings.TrimSpace(req.Email)
        if who == "" {
            who = c.IP()
        }
        key := "rl:register:" + who
        cnt, err := cache.Incr(c.UserContext(), key).Result()
        if err != nil {
            return c.Next() // fail-open on cache errors
        }
        if cnt == 1 {
            cache.Expire(c.UserContext(), key, window)
        }
        if cnt > int64(max) {
            return apperr.RateLimited("too many registration attempts, try again later")
        }
        return c.Next()
    }
}
