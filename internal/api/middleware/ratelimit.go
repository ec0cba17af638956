package middleware

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ticketi/ticketi-api/internal/api/handler/v1/response"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterMaxEntries = 10000
)

var ErrRateLimited = errors.New("too many purchase attempts, slow down")

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles each caller with its own token bucket. Callers are
// keyed by user id once authenticated, by client ip otherwise. At most
// maxEntries callers are tracked; when full, idle callers go first, then the
// least recently seen.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	maxEntries int
	now        func() time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(perSecond),
		burst:      burst,
		maxEntries: limiterMaxEntries,
		now:        time.Now,
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= l.maxEntries {
			l.evictIdle(now)
		}
		if len(l.visitors) >= l.maxEntries {
			l.evictOldest()
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, key)
		}
	}
}

func (l *RateLimiter) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, v := range l.visitors {
		if oldestKey == "" || v.lastSeen.Before(oldest) {
			oldestKey, oldest = key, v.lastSeen
		}
	}
	delete(l.visitors, oldestKey)
}

func (l *RateLimiter) Limit() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := "ip:" + ctx.ClientIP()
		if userID, ok := ctx.Get(UserIDKey); ok {
			key = fmt.Sprintf("user:%v", userID)
		}

		if !l.Allow(key) {
			ctx.Header("Retry-After", "1")
			response.RenderErr(ctx, response.ErrTooManyRequests(ErrRateLimited))
			return
		}

		ctx.Next()
	}
}
