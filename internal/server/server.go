package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/backstock/internal/backup"
	"github.com/dukerupert/backstock/internal/config"
	"github.com/dukerupert/backstock/internal/handler"
	"github.com/dukerupert/backstock/internal/middleware"
	"github.com/dukerupert/backstock/internal/store"
	ws "github.com/dukerupert/backstock/internal/websocket"
)

type Server struct {
	db            *sql.DB
	cfg           config.Config
	hub           *ws.Hub
	pageH         *handler.PageHandler
	apiH          *handler.APIHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	groceryStore := store.NewGroceryStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, logger.With("component", "backup"))

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		pageH:         handler.NewPageHandler(groceryStore, hub, logger.With("component", "pages")),
		apiH:          handler.NewAPIHandler(groceryStore, backupStore, backupMgr, logger.With("component", "api")),
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /", s.pageH.Index)
	mux.Handle("POST /", s.rateLimited(http.HandlerFunc(s.pageH.Dispatch)))
	mux.HandleFunc("GET /report", s.pageH.ReportPage)

	// JSON API
	mux.HandleFunc("GET /api/report/data", s.apiH.ReportData)
	mux.HandleFunc("GET /api/items", s.apiH.ListItems)
	mux.HandleFunc("GET /api/backups", s.apiH.ListBackups)
	mux.HandleFunc("POST /api/backups/run", s.apiH.RunBackup)

	// WebSocket + health
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
	mux.HandleFunc("GET /health", s.healthHandler)

	// Middleware chain, innermost first: CSRF sees the capped body,
	// everything is logged.
	var h http.Handler = mux
	h = middleware.CSRF(s.cfg.IsProduction())(h)
	h = middleware.MaxBytes(16 << 20)(h)
	h = middleware.SecurityHeaders(s.cfg.IsProduction())(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.Handler) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, 60, time.Minute)(h)
}
