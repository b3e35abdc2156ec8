// Package httpserver provides the HTTP/HTTPS server for refstate.
package httpserver

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/pkg/cmap"
)

const (
	// visitorIdle is how long an unused per-IP limiter is kept.
	visitorIdle = 3 * time.Minute

	// pruneEvery is the number of requests between idle sweeps.
	pruneEvery = 1024
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// visitors holds one token bucket per client IP.
type visitors struct {
	m     *cmap.Map[*visitor]
	limit rate.Limit
	burst int
	seen  atomic.Uint64
}

func newVisitors(perSecond float64) *visitors {
	return &visitors{
		m:     cmap.New[*visitor](),
		limit: rate.Limit(perSecond),
		burst: int(math.Ceil(perSecond * 2)),
	}
}

// allow takes one token from ip's bucket and sweeps idle buckets now and then.
func (vs *visitors) allow(ip string, now time.Time) bool {
	// Upsert returns the previous value, so keep the stored one from fn.
	var v *visitor
	vs.m.Upsert(ip, func(old *visitor, ok bool) *visitor {
		if !ok || old == nil {
			old = &visitor{limiter: rate.NewLimiter(vs.limit, vs.burst)}
		}
		v = old
		return old
	})
	v.lastSeen.Store(now.UnixNano())

	if vs.seen.Add(1)%pruneEvery == 0 {
		vs.prune(now.Add(-visitorIdle))
	}
	return v.limiter.AllowN(now, 1)
}

// prune drops buckets unused since cutoff.
func (vs *visitors) prune(cutoff time.Time) {
	idle := func(v *visitor) bool { return v.lastSeen.Load() < cutoff.UnixNano() }

	var stale []string
	vs.m.Range(func(ip string, v *visitor) bool {
		if idle(v) {
			stale = append(stale, ip)
		}
		return true
	})
	for _, ip := range stale {
		vs.m.DeleteIf(ip, idle)
	}
}

// RateLimit limits each client IP to perSecond requests with a burst of
// twice that. Rejected requests get 429 and Retry-After.
func RateLimit(perSecond float64) Middleware {
	vs := newVisitors(perSecond)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !vs.allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeError(w, r, http.StatusTooManyRequests, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
