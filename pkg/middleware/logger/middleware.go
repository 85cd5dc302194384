package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/auth"
	"go.uber.org/zap"
)

// Middleware writes one access log line per request.
type Middleware struct {
	access *zap.Logger
}

// NewMiddleware logs to l; nil discards.
func NewMiddleware(l *zap.Logger) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{access: l}
}

func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Read and restore the body so downstream can consume it.
			var body []byte
			if r.Body != nil {
				if b, err := io.ReadAll(r.Body); err == nil {
					body = b
				}
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				var u auth.User
				isAuth := false
				if ca != nil {
					u = ca.GetUser(r.Context())
					isAuth = ca.IsAuthenticated(r.Context())
				}

				fields := []zap.Field{
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("username", u.Username),
					zap.String("role", u.Role.Name),
					zap.String("authenticationProvider", u.AuthenticationSource.Provider),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				}
				if shouldLogBody(r, body) {
					fields = append(fields, zap.ByteString("requestData", body))
				}
				m.access.Info("", fields...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
