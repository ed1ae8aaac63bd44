// Package server exposes the receipt API, the statistics endpoint, and the
// embedded web interface over HTTP.
package server

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kzel/receiptwise/internal/receipt"
)

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for receipts and analytics
type Server struct {
	service   *receipt.Service
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// New creates a new Server with a default mux
func New(service *receipt.Service, basicAuth BasicAuth) *Server {
	return NewWithMux(service, basicAuth, http.NewServeMux())
}

// NewWithMux creates a new Server with a custom mux for testing
func NewWithMux(service *receipt.Service, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="ReceiptWise"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux.
// Routes must be registered from most specific to least specific to avoid
// conflicts.
func (s *Server) registerRoutes() {
	// Static assets
	s.mux.HandleFunc("GET /static/app.css", s.requireAuth(s.handleStaticCSS))
	s.mux.HandleFunc("GET /static/app.js", s.requireAuth(s.handleStaticJS))

	// Unauthenticated operational endpoints
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Receipt CRUD (most specific paths first)
	s.mux.HandleFunc("GET /api/receipts/{id}/image", s.requireAuth(counted("receipt_image", s.handleGetReceiptImage)))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(counted("receipt_get", s.handleGetReceipt)))
	s.mux.HandleFunc("DELETE /api/receipts/{id}", s.requireAuth(counted("receipt_delete", s.handleDeleteReceipt)))
	s.mux.HandleFunc("GET /api/receipts", s.requireAuth(counted("receipt_list", s.handleListReceipts)))
	s.mux.HandleFunc("POST /api/receipts", s.requireAuth(counted("receipt_upload", s.handleUploadReceipt)))

	// Analytics and export
	s.mux.HandleFunc("GET /api/stats", s.requireAuth(counted("stats", s.handleStats)))
	s.mux.HandleFunc("GET /api/export", s.requireAuth(counted("export", s.handleExport)))

	// Web interface (catch-all, register last)
	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware so OPTIONS preflights are answered
	// for every route
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(s.mux.ServeHTTP)(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
