package ports

import (
	"log/slog"
	"net/http"

	"github.com/steplings/progression/internal/logging"
	"github.com/steplings/progression/internal/ratelimiting"
	"github.com/steplings/progression/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

type rateLimit struct {
	refillPerSecond ratelimiting.RefillPerSecond
	burstSize       ratelimiting.BurstSize
	keyFunc         func(r *http.Request) string
}

var ipRateLimit = rateLimit{
	refillPerSecond: 4,
	burstSize:       240,
	keyFunc:         ratelimiting.IPKeyFunc,
}

// NOTE: Rate limiting based on user controlled value
var userIDRateLimit = rateLimit{
	refillPerSecond: 1,
	burstSize:       60,
	keyFunc:         ratelimiting.UserIDKeyFunc,
}

// Step counters sync in the background, a few times per minute at most
var playerWriteRateLimit = rateLimit{
	refillPerSecond: 0.5,
	burstSize:       30,
	keyFunc:         ratelimiting.PlayerKeyFunc,
}

func makeOnLimitExceeded(rateLimiter ratelimiting.RequestRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logging.FromContext(ctx).InfoContext(ctx, "Rate limit exceeded", "key", rateLimiter.KeyFor(r))
		writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
	}
}

// buildPortMiddleware returns the middleware chain shared by every port.
// Each port gets its own rate limiters.
func buildPortMiddleware(
	port string,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	limits ...rateLimit,
) func(http.HandlerFunc) http.HandlerFunc {
	middlewares := []func(http.HandlerFunc) http.HandlerFunc{
		buildMetricsMiddleware(port),
		logging.NewRequestLoggerMiddleware(rootLogger.With(slog.String("port", port))),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(port),
		BuildCORSMiddleware(allowedOrigins),
	}

	for _, limit := range limits {
		// The limiters live as long as the process
		limiter, _ := ratelimiting.NewTokenBucketRateLimiter(limit.refillPerSecond, limit.burstSize)
		requestLimiter := ratelimiting.NewRequestBasedRateLimiter(limiter, limit.keyFunc)
		middlewares = append(middlewares, NewRateLimitMiddleware(requestLimiter, makeOnLimitExceeded(requestLimiter)))
	}

	return ComposeMiddlewares(middlewares...)
}
