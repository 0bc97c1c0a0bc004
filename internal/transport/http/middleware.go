package http

import (
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/S342D32/Mini-Perplexity/internal/metrics"
	"github.com/S342D32/Mini-Perplexity/internal/transport/http/api"
)

// TokenVerifier resolves a bearer token to a user ID.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Authenticate attaches the user ID of a valid bearer token to the
// context. Requests without a token pass through anonymously; a present
// but invalid token is rejected. Browsers cannot set headers on websocket
// requests, so the token is also read from the "token" query parameter.
func Authenticate(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.QueryParam("token")
			if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
				bearer, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unsupported authorization scheme"})
				}
				token = bearer
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return next(c)
			}

			userID, err := v.VerifyToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}
			c.Set(api.UserIDKey, userID)
			return next(c)
		}
	}
}

type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &limiterPool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

// rateLimit rejects clients, keyed by user or IP, that exceed the pool's
// rate with 429.
func rateLimit(p *limiterPool, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if userID, ok := c.Get(api.UserIDKey).(string); ok && userID != "" {
				key = "user:" + userID
			}
			if !p.Allow(key) {
				m.RateLimited()
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
