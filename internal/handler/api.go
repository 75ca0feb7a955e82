package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/backstock/internal/backup"
	"github.com/dukerupert/backstock/internal/model"
	"github.com/dukerupert/backstock/internal/report"
	"github.com/dukerupert/backstock/internal/store"
)

// APIHandler serves the JSON endpoints: report data, raw item listing,
// and backup management.
type APIHandler struct {
	store       *store.GroceryStore
	backupStore *store.BackupStore
	backupMgr   *backup.Manager
	logger      *slog.Logger
}

func NewAPIHandler(gs *store.GroceryStore, bs *store.BackupStore, bm *backup.Manager, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		store:       gs,
		backupStore: bs,
		backupMgr:   bm,
		logger:      logger,
	}
}

// ReportData handles GET /api/report/data.
func (h *APIHandler) ReportData(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List()
	if err != nil {
		h.logger.Error("list items for report data", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load report data"})
		return
	}

	data := report.Build(items)
	if data == nil {
		// Explicit no-data sentinel rather than a zeroed report.
		writeJSON(w, http.StatusOK, map[string]any{"total_items": 0, "no_data": true})
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// ListItems handles GET /api/items.
func (h *APIHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List()
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	if items == nil {
		items = []model.GroceryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListBackups handles GET /api/backups.
func (h *APIHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backupStore.List(50)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.backupMgr.Status(),
		"backups": backups,
	})
}

// RunBackup handles POST /api/backups/run.
func (h *APIHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	if !h.backupMgr.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "backups are not configured"})
		return
	}

	id, err := h.backupMgr.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "backup failed"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"backup_id": id})
}
