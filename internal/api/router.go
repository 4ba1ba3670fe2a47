package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-chat/internal/chat"
	"campus-chat/internal/logging"
	"campus-chat/internal/profile"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher interface for SSE support
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Services are the chat components the router exposes
type Services struct {
	Directory   *chat.Directory
	Threads     *chat.ThreadStore
	Gate        *chat.RequestGate
	Coordinator *chat.Coordinator
	Profiles    *profile.Service
}

// Router holds the HTTP multiplexer and dependencies
type Router struct {
	mux            *http.ServeMux
	sessionHandler *SessionHandler
	messageHandler *MessageHandler
	eventsHandler  *SessionEventsHandler
	profileHandler *ProfileHandler
	broadcaster    *EventBroadcaster
	staticDir      string
	logger         *zap.Logger
}

// NewRouter creates a new router with all routes configured.
// The router's broadcaster becomes the notifier of every service.
func NewRouter(svc Services, staticDir string, logger *zap.Logger) *Router {
	broadcaster := NewEventBroadcaster(logger)
	svc.Directory.SetNotifier(broadcaster)
	svc.Threads.SetNotifier(broadcaster)
	svc.Coordinator.SetNotifier(broadcaster)

	r := &Router{
		mux:            http.NewServeMux(),
		sessionHandler: NewSessionHandler(svc.Directory, svc.Threads, svc.Gate, svc.Coordinator, logger),
		messageHandler: NewMessageHandler(svc.Directory, svc.Threads, svc.Coordinator, logger),
		eventsHandler:  NewSessionEventsHandler(broadcaster, svc.Directory, logger),
		broadcaster:    broadcaster,
		staticDir:      staticDir,
		logger:         logging.Named(logger, "http"),
	}
	if svc.Profiles != nil {
		r.profileHandler = NewProfileHandler(svc.Profiles, logger)
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes
func (r *Router) setupRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", HealthHandler)

	// Directory and request gating
	r.mux.HandleFunc("GET /api/sessions", r.sessionHandler.List)
	r.mux.HandleFunc("GET /api/sessions/{id}", r.sessionHandler.Get)
	r.mux.HandleFunc("POST /api/sessions/{id}/accept", r.sessionHandler.Accept)
	r.mux.HandleFunc("POST /api/sessions/{id}/decline", r.sessionHandler.Decline)

	// Threads
	r.mux.HandleFunc("GET /api/sessions/{id}/messages", r.messageHandler.GetMessages)
	r.mux.HandleFunc("POST /api/sessions/{id}/messages", r.messageHandler.SendMessage)
	r.mux.HandleFunc("POST /api/sessions/{id}/interrupt", r.messageHandler.Interrupt)

	// SSE events route
	r.mux.HandleFunc("GET /api/sessions/{id}/events", r.eventsHandler.HandleEvents)

	if r.profileHandler != nil {
		r.mux.HandleFunc("GET /api/profiles/{id}", r.profileHandler.Get)
		r.mux.HandleFunc("PUT /api/profiles/{id}", r.profileHandler.Update)
		r.mux.HandleFunc("POST /api/profiles/{id}/avatar", r.profileHandler.Avatar)
	}

	// Static file serving (for frontend)
	if r.staticDir != "" {
		r.mux.HandleFunc("GET /", r.serveStatic)
	}
}

// serveStatic serves static files from the static directory
func (r *Router) serveStatic(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	filePath := filepath.Join(r.staticDir, filepath.Clean("/"+path))

	// Serve index.html for SPA routing
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		filePath = filepath.Join(r.staticDir, "index.html")
	}

	http.ServeFile(w, req, filePath)
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	// Add CORS headers for development
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if req.Method == http.MethodOptions {
		r.logger.Debug("CORS preflight", zap.String("path", req.URL.Path))
		w.WriteHeader(http.StatusOK)
		return
	}

	// Skip logging for static files, health checks, and SSE endpoints
	shouldLog := strings.HasPrefix(req.URL.Path, "/api/") && !strings.HasSuffix(req.URL.Path, "/events")

	wrapped := newResponseWriter(w)
	r.mux.ServeHTTP(wrapped, req)

	if shouldLog {
		r.logger.Info("Request completed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)))
	}
}

// Broadcaster returns the event broadcaster
func (r *Router) Broadcaster() *EventBroadcaster {
	return r.broadcaster
}
