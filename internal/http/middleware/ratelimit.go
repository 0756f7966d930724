// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file throttles the anonymous form posts. Every visitor draws from a
// token bucket (golang.org/x/time/rate) keyed by BucketKey; a denied post is
// answered 429 with a Retry-After that reflects when the bucket refills.
// Idempotent replays are never throttled, so a client retrying a submission
// it already made is not punished for a flaky network.
//
// Buckets live in process memory and buckets idle for longer than the sweep
// interval are dropped. A multi-instance deployment gets one budget per
// instance.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// MsgRateLimited is the user-facing text of a 429 response.
const MsgRateLimited = "Too many submissions, please try again shortly"

// idleBucketTTL is how long an untouched bucket is kept. It is also the
// Retry-After of a limiter that never refills (rate 0).
const idleBucketTTL = 10 * time.Minute

var formsThrottled = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "form_submissions_throttled_total",
		Help: "Form posts rejected by the per-visitor rate limit.",
	},
	[]string{"route"},
)

func init() {
	prometheus.MustRegister(formsThrottled)
}

// BucketKey maps a request to the identity whose bucket it draws from.
type BucketKey func(*gin.Context) string

// ByClient buckets by client IP. Form posts are anonymous, so the address is
// the only identity available. Forwarded headers only count from trusted
// proxies (see gin.Engine.SetTrustedProxies).
func ByClient() BucketKey {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// ByFormAndClient gives each visitor one bucket per form, so someone who
// used the contact form can still apply through join-us.
func ByFormAndClient() BucketKey {
	return func(c *gin.Context) string {
		form := c.FullPath()
		if form == "" {
			form = c.Request.URL.Path
		}
		return form + "|ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// FormLimiter enforces per-visitor submission budgets. Safe for concurrent use.
type FormLimiter struct {
	limit rate.Limit
	burst int
	key   BucketKey
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewFormLimiter allows rps posts per second with bursts of burst per key.
// burst values below 1 are raised to 1.
func NewFormLimiter(rps float64, burst int, key BucketKey) *FormLimiter {
	return &FormLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		idle:    idleBucketTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// take spends one token of key's bucket. When the bucket is empty it reports
// how long until a token is available and spends nothing.
func (l *FormLimiter) take(key string) (wait time.Duration, ok bool) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) >= l.idle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, found := l.buckets[key]
	if !found {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	lim := b.lim
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return l.idle, false
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, false
	}
	return 0, true
}

// size reports how many buckets are tracked.
func (l *FormLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// IsRateBypass reports whether IdempotencyValidator exempted this request
// from throttling because it replays an earlier submission.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler returns the throttling middleware. A rejected post gets
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds>
//	{"success":false,"request_id":"…","code":"too_many_requests","message":"…"}
func (l *FormLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		wait, ok := l.take(l.key(c))
		if ok {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		formsThrottled.WithLabelValues(route).Inc()
		LoggerFrom(c).Warn().Dur("retry_after", wait).Msg("form submission throttled")
		c.Header("Retry-After", retryAfterSeconds(wait))
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", MsgRateLimited)
	}
}

// retryAfterSeconds renders d as whole seconds, rounded up and at least 1.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}
