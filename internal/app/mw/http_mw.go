package mw

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid"
	"github.com/ozontech/s3-uploader/internal/api/httputil"
	"github.com/ozontech/s3-uploader/internal/app/tokenlimiter"
	"github.com/ozontech/s3-uploader/internal/app/types"
	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/metric"
	"github.com/ozontech/s3-uploader/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-Id"

	componentHTTP = "http"
)

type routePatternKey struct{}

func setRoutePattern(ctx context.Context, pattern string) context.Context {
	l := len(pattern)
	if l > 1 && pattern[l-1] == '/' {
		pattern = pattern[:l-1]
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

func getRoutePattern(ctx context.Context) string {
	if v := ctx.Value(routePatternKey{}); v != nil {
		return v.(string)
	}
	return ""
}

func HTTPLogInterceptor(logger *tracing.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := httputil.NewWriter(w)

			fullMethod := strings.Join(
				[]string{r.Method, r.RequestURI, r.Proto}, " ",
			)

			reqLogArgs := requestLogArgs{
				component:     componentHTTP,
				header:        r.Header,
				fullMethod:    fullMethod,
				contentLength: r.ContentLength,
				client:        types.GetClientKey(r.Context()),
			}

			logRequestBeforeHandler(r.Context(), logger, reqLogArgs)

			start := time.Now()
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			statusCodeInt := ww.StatusCode
			errType := httpRespErrorTypeFromStatusCode(statusCodeInt)

			reqLogArgs.statusCode = http.StatusText(statusCodeInt)
			reqLogArgs.took = took

			if errType == respClientError {
				reqLogArgs.clientError = ww.ErrorMessage
				if reqLogArgs.clientError == "" {
					reqLogArgs.clientError = "unknown error"
				}
			} else if errType == respServerError {
				reqLogArgs.serverError = ww.ErrorMessage
				if reqLogArgs.serverError == "" {
					reqLogArgs.serverError = "unknown error"
				}
			}

			logRequestAfterHandler(r.Context(), logger, reqLogArgs)
		}
		return http.HandlerFunc(fn)
	}
}

func HTTPMetricInterceptor() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			routePattern := getRoutePattern(ctx)

			metric.ServerRequestReceived.WithLabelValues(componentHTTP, routePattern).Inc()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			metric.HandledIncomingRequest(ctx, componentHTTP, routePattern, http.StatusText(ww.Status()), took)
		}
		return http.HandlerFunc(fn)
	}
}

func HTTPTraceInterceptor() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.StartSpan(r.Context(), getRoutePattern(r.Context()))
			defer span.End()

			span.SetAttributes(attribute.String("request_id", types.GetRequestID(ctx)))

			r = r.WithContext(ctx)

			ww := httputil.NewWriter(w)

			next.ServeHTTP(ww, r)

			if ww.StatusCode >= 400 {
				span.SetAttributes(
					attribute.Bool("error", true),
					attribute.String("error_message", ww.ErrorMessage),
					attribute.Int("status_code", ww.StatusCode),
				)
			}
		}
		return http.HandlerFunc(fn)
	}
}

func HTTPRecoverInterceptor() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					fullMethod := strings.Join(
						[]string{req.Method, req.RequestURI, req.Proto}, " ",
					)
					err := handleRecover(fullMethod, r)

					ww := httputil.NewWriter(w)
					ww.AllowAnyOrigin()
					ww.Error(err, http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, req)
		}
		return http.HandlerFunc(fn)
	}
}

// HTTPRequestIDInterceptor propagates X-Request-Id or generates a new one
// and stores it in the request context.
func HTTPRequestIDInterceptor() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				id, err := uuid.NewV7()
				if err != nil {
					logger.Error("failed to generate request id", zap.Error(err))
				} else {
					reqID = id.String()
				}
			}

			if reqID != "" {
				w.Header().Set(RequestIDHeader, reqID)
				r = r.WithContext(context.WithValue(r.Context(), types.RequestIDKey{}, reqID))
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// HTTPClientKeyInterceptor stores the client address in the request context.
// X-Forwarded-For is honored only for requests from trusted proxies.
func HTTPClientKeyInterceptor(trusted TrustedProxies) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			client := parseClientAddr(r, trusted)
			r = r.WithContext(context.WithValue(r.Context(), types.ClientKey{}, client))
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func HTTPRateLimitInterceptor(rateLimiters map[string]map[string]RateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			uriApi, _, uriMethod, err := parseURI(r.RequestURI)
			if err != nil {
				logger.Error("failed to parse URI", zap.Error(err))
				http.NotFound(w, r)
				return
			}
			clientToRateLimiter, ok := rateLimiters[uriApi]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			limited, rlc, err := handleClientRateLimit(ctx, clientToRateLimiter, uriMethod)
			if err != nil {
				logger.Error("failed to rate limit request", zap.Error(err))
				writeError(w, err, http.StatusInternalServerError)
				return
			}
			writeRateLimitHTTPHeaders(w, rlc)
			if limited {
				logger.Warn("request was rate limited", zap.String("client", types.GetClientKey(ctx)))
				writeError(w, errLimitExceeded, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// HTTPInflightLimitInterceptor rejects requests of a client that already
// has limiter's maximum of requests in progress.
func HTTPInflightLimitInterceptor(limiter *tokenlimiter.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			client := types.GetClientKey(r.Context())
			if !limiter.Acquire(client) {
				metric.ServerInflightLimits.Inc()
				logger.Warn("too many uploads in flight", zap.String("client", client))
				writeError(w, errTooManyInflight, http.StatusTooManyRequests)
				return
			}
			defer limiter.Release(client)

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func HTTPNotFoundInterceptor() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.RawPath
			if path == "" {
				path = r.URL.Path
			}

			rCtx := chi.RouteContext(r.Context())
			tmpRouteCtx := chi.NewRouteContext()
			if !rCtx.Routes.Match(tmpRouteCtx, r.Method, path) {
				http.NotFound(w, r)
				return
			}

			r = r.WithContext(setRoutePattern(r.Context(), tmpRouteCtx.RoutePattern()))
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func writeError(w http.ResponseWriter, err error, code int) {
	ww := httputil.NewWriter(w)
	ww.AllowAnyOrigin()
	ww.Error(err, code)
}
