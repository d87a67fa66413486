// Package http serves the tracker web UI and JSON API.
//
// The server subscribes to the ledger and keeps the most recent rendered
// view, so page loads never walk the transaction list.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tracker/internal/core"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/render"
	"tracker/internal/services"
	appweb "tracker/web"
)

// ReadinessCheck reports whether dependencies such as the database are
// reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	templates   *template.Template
	service     *services.TransactionService
	currency    string
	ready       ReadinessCheck
	rateLimiter *rateLimiter
	metrics     securityMetrics
	logger      *slog.Logger

	view        atomic.Pointer[render.View]
	unsubscribe func()

	shutdownOnce sync.Once
}

// Option customizes a Server.
type Option func(*Server)

// WithReadinessCheck makes /readyz fail while check returns an error.
func WithReadinessCheck(check ReadinessCheck) Option {
	return func(s *Server) { s.ready = check }
}

// WithRateLimit sets the number of POST requests a client may make per minute.
func WithRateLimit(requestsPerMinute int) Option {
	return func(s *Server) {
		s.rateLimiter.stop()
		s.rateLimiter = newRateLimiter(requestsPerMinute)
	}
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *services.TransactionService, currency string, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		service:     svc,
		currency:    currency,
		rateLimiter: newRateLimiter(defaultRequestsPerMinute),
		logger:      slog.Default().With(applog.FieldComponent, applog.ComponentHTTP),
	}
	for _, opt := range opts {
		opt(s)
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleAPICreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleAPIDeleteTransaction)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.Handler = s.withSecurityHeaders(mux)

	l := svc.Ledger()
	s.unsubscribe = l.Subscribe(s.onLedgerEvent)
	s.storeView(render.Build(l.Snapshot(), currency))

	return s
}

// onLedgerEvent re-renders the view after every ledger change.
func (s *Server) onLedgerEvent(ev ledger.Event) {
	s.storeView(render.Build(ev.Snapshot, s.currency))
	s.logger.Debug("View refreshed",
		applog.FieldOperation, applog.OpRender,
		"kind", string(ev.Kind),
		applog.FieldRevision, ev.Snapshot.Revision)
}

// storeView replaces the current view unless a newer revision is already
// stored. Listeners run outside the ledger lock and may race.
func (s *Server) storeView(v render.View) {
	for {
		cur := s.view.Load()
		if cur != nil && cur.Revision > v.Revision {
			return
		}
		if s.view.CompareAndSwap(cur, &v) {
			return
		}
	}
}

// View returns the most recently rendered view.
func (s *Server) View() render.View {
	if v := s.view.Load(); v != nil {
		return *v
	}
	return render.Build(s.service.Ledger().Snapshot(), s.currency)
}

// Shutdown stops background routines, detaches from the ledger and shuts the
// HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds a request id, security headers, rate limiting of
// POST requests and request logging.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		ctx := applog.WithRequestID(r.Context(), requestID)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).WithComponent(applog.ComponentHTTP))
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead && !s.rateLimiter.allow(clientIP, &s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'; form-action 'self'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		fields := applog.NewFields().
			WithRequestID(requestID).
			WithHTTPRequest(r.Method, r.URL.Path, r.Header.Get("User-Agent")).
			WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds())
		fields[applog.FieldClientIP] = clientIP
		s.logger.InfoContext(ctx, "Request completed", fields.ToSlice()...)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogger returns the logger carrying r's request id.
func requestLogger(r *http.Request) *applog.Logger {
	return applog.FromContext(r.Context())
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// categoryOption is one entry of the category select.
type categoryOption struct {
	Key   string
	Label string
}

func categoryOptions() []categoryOption {
	cats := core.Categories()
	out := make([]categoryOption, len(cats))
	for i, c := range cats {
		out[i] = categoryOption{Key: c.String(), Label: c.Label()}
	}
	return out
}

// chartGradient turns the chart segments into a conic-gradient.
func chartGradient(chart render.Chart) template.CSS {
	if chart.Empty || len(chart.Segments) == 0 {
		return ""
	}
	stops := make([]string, 0, len(chart.Segments))
	for _, seg := range chart.Segments {
		stops = append(stops, fmt.Sprintf("%s %d%% %d%%", seg.Color, seg.Start, seg.Start+seg.Percent))
	}
	return template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
}
