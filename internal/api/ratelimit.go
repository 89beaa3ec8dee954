package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitByIP is a huma middleware that throttles an operation per
// client IP using the server's token limiter.
func (s *Server) rateLimitByIP(ctx huma.Context, next func(huma.Context)) {
	if s.opts.TokenLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.Header, ctx.RemoteAddr())
	if !s.opts.TokenLimiter.Allow(key) {
		s.logger.Warn("rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP extracts the client IP, preferring X-Forwarded-For and
// X-Real-IP over the remote address.
func clientIP(header func(string) string, remoteAddr string) string {
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := header("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
