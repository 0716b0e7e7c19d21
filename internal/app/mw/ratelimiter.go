package mw

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/ratelimiter"
	"github.com/ozontech/s3-uploader/internal/app/types"
	"github.com/ozontech/s3-uploader/metric"
)

const RateLimiterDefaultClient = "_"

// knownAPIs are the first URI segments served by the HTTP server.
var knownAPIs = map[string]struct{}{
	"upload": {},
}

type rateLimiter interface {
	RateLimit(context.Context, string) (bool, ratelimiter.RateLimitInfo, error)
}

type RateLimiter struct {
	rateLimiter
	perHandler bool
}

func NewRateLimiter(api string, cfg config.RateLimiter) (RateLimiter, error) {
	if _, ok := knownAPIs[api]; !ok {
		return RateLimiter{}, fmt.Errorf("invalid rate limiter api %q", api)
	}

	limiter, err := ratelimiter.New(cfg)
	if err != nil {
		return RateLimiter{}, fmt.Errorf("init %q rate limiter: %w", api, err)
	}

	return RateLimiter{
		rateLimiter: limiter,
		perHandler:  cfg.PerHandler,
	}, nil
}

func handleClientRateLimit(
	ctx context.Context, clientToRateLimiter map[string]RateLimiter, handler string,
) (bool, ratelimiter.RateLimitInfo, error) {
	client := types.GetClientKey(ctx)
	if client == "" {
		client = RateLimiterDefaultClient
	}

	limiter, ok := clientToRateLimiter[client]
	if !ok {
		limiter = clientToRateLimiter[RateLimiterDefaultClient]
	}

	key := client
	if limiter.perHandler {
		key = fmt.Sprintf("%s_%s", client, handler)
	}

	limit, rlc, err := limiter.RateLimit(ctx, key)
	if limit {
		metric.ServerRateLimits.Inc()
	}

	return limit, rlc, err
}

func writeRateLimitHTTPHeaders(w http.ResponseWriter, rlInfo ratelimiter.RateLimitInfo) {
	if v := rlInfo.Limit; v >= 0 {
		w.Header().Add("X-RateLimit-Limit", strconv.Itoa(v))
	}

	if v := rlInfo.Remaining; v >= 0 {
		w.Header().Add("X-RateLimit-Remaining", strconv.Itoa(v))
	}

	if v := rlInfo.ResetAfter; v >= 0 {
		vi := int(math.Ceil(v.Seconds()))
		w.Header().Add("X-RateLimit-Reset", strconv.Itoa(vi))
	}

	if v := rlInfo.RetryAfter; v >= 0 {
		vi := int(math.Ceil(v.Seconds()))
		w.Header().Add("Retry-After", strconv.Itoa(vi))
	}
}
