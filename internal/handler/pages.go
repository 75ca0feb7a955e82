package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/backstock/internal/inventory"
	"github.com/dukerupert/backstock/internal/middleware"
	"github.com/dukerupert/backstock/internal/model"
	"github.com/dukerupert/backstock/internal/report"
	"github.com/dukerupert/backstock/internal/store"
	"github.com/dukerupert/backstock/internal/websocket"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxUploadBytes = 16 << 20 // 16 MiB, matches the transport cap

// PageHandler renders the inventory page, processes its form submissions,
// and renders the analytics report.
type PageHandler struct {
	store     *store.GroceryStore
	hub       *websocket.Hub
	templates *template.Template
	logger    *slog.Logger
}

func NewPageHandler(gs *store.GroceryStore, hub *websocket.Hub, logger *slog.Logger) *PageHandler {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"fmtMoney": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	}).ParseFS(templateFS, "templates/*.html"))

	return &PageHandler{
		store:     gs,
		hub:       hub,
		templates: tmpl,
		logger:    logger,
	}
}

// pageData feeds the index template.
type pageData struct {
	Title      string
	Items      []model.GroceryItem
	Flash      string
	FlashError bool
	CSRFToken  string
	Searched   bool
	SearchCol  string
	SearchTerm string
}

// Index handles GET /.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.renderIndex(w, r, pageData{})
}

// Dispatch handles POST /: the raw form is parsed once into a tagged
// action, then matched exhaustively.
func (h *PageHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request entity too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.renderIndex(w, r, pageData{Flash: "Unable to process the form submission.", FlashError: true})
		return
	}

	action := ParseAction(r)

	var data pageData
	switch action.Kind {
	case ActionAdd:
		data = h.handleAdd(action)
	case ActionEdit:
		data = h.handleEdit(action)
	case ActionDelete:
		data = h.handleDelete(action)
	case ActionSearch:
		data = h.handleSearch(action)
	case ActionAddRandom:
		data = h.handleAddRandom(action)
	case ActionCSVImport:
		data = h.handleCSVImport(r)
	case ActionNone:
		data = pageData{Flash: "Unable to process the request.", FlashError: true}
	}

	h.renderIndex(w, r, data)
}

func (h *PageHandler) handleAdd(a Action) pageData {
	if a.ItemErr != nil {
		return pageData{Flash: "Unable to add item. Please check the form values.", FlashError: true}
	}

	if err := h.store.Create(a.Item); err != nil {
		h.logger.Error("add item", "id", a.Item.ID, "error", err)
		return pageData{Flash: "Unable to add item. Please check the form values.", FlashError: true}
	}

	h.hub.Broadcast(websocket.ItemMessage("created", a.Item.ID, nil))
	return pageData{Flash: fmt.Sprintf("Successfully added item %d.", a.Item.ID)}
}

func (h *PageHandler) handleEdit(a Action) pageData {
	if a.ItemErr != nil {
		return pageData{Flash: "Unable to update item. Please check the form values.", FlashError: true}
	}

	existing, err := h.store.GetByID(a.Item.ID)
	if err != nil {
		h.logger.Error("edit item lookup", "id", a.Item.ID, "error", err)
		return pageData{Flash: "Unable to update item.", FlashError: true}
	}
	if existing == nil {
		return pageData{Flash: "Unable to update item: no item with that id.", FlashError: true}
	}

	// Edits never move date_added.
	a.Item.DateAdded = existing.DateAdded

	if _, err := h.store.Update(a.Item); err != nil {
		h.logger.Error("update item", "id", a.Item.ID, "error", err)
		return pageData{Flash: "Unable to update item.", FlashError: true}
	}

	h.hub.Broadcast(websocket.ItemMessage("updated", a.Item.ID, nil))
	return pageData{Flash: fmt.Sprintf("Successfully updated item %d.", a.Item.ID)}
}

func (h *PageHandler) handleDelete(a Action) pageData {
	if a.DeleteIDErr != nil {
		return pageData{Flash: "Unable to delete item: invalid id.", FlashError: true}
	}

	existing, err := h.store.GetByID(a.DeleteID)
	if err != nil {
		h.logger.Error("delete item lookup", "id", a.DeleteID, "error", err)
		return pageData{Flash: "Unable to delete item.", FlashError: true}
	}
	if existing == nil {
		return pageData{Flash: "Unable to delete item: no item with that id.", FlashError: true}
	}

	if err := h.store.Delete(a.DeleteID); err != nil {
		h.logger.Error("delete item", "id", a.DeleteID, "error", err)
		return pageData{Flash: "Unable to delete item.", FlashError: true}
	}

	h.hub.Broadcast(websocket.ItemMessage("deleted", a.DeleteID, nil))
	return pageData{Flash: fmt.Sprintf("Successfully deleted item %d.", a.DeleteID)}
}

func (h *PageHandler) handleSearch(a Action) pageData {
	items, err := h.store.Search(a.SearchColumn, a.SearchTerm)
	if err != nil {
		h.logger.Error("search items", "column", a.SearchColumn, "error", err)
		return pageData{Flash: "Unable to complete the search.", FlashError: true}
	}

	return pageData{
		Items:      items,
		Searched:   true,
		SearchCol:  a.SearchColumn,
		SearchTerm: a.SearchTerm,
		Flash:      fmt.Sprintf("Found %d item(s).", len(items)),
	}
}

func (h *PageHandler) handleAddRandom(a Action) pageData {
	count := inventory.ClampCount(a.RandomCountRaw)

	items := inventory.RandomItems(count)
	if err := h.store.CreateGenerated(items); err != nil {
		h.logger.Error("insert random items", "count", count, "error", err)
		return pageData{Flash: "Unable to generate random items.", FlashError: true}
	}

	h.hub.Broadcast(websocket.ItemMessage("generated", 0, map[string]any{"count": count}))
	return pageData{Flash: fmt.Sprintf("Successfully generated %d random item(s).", count)}
}

func (h *PageHandler) handleCSVImport(r *http.Request) pageData {
	file, _, err := r.FormFile("csv-input")
	if err != nil {
		return pageData{Flash: "Unable to import CSV: no file was uploaded.", FlashError: true}
	}
	defer file.Close()

	items, err := inventory.ParseCSV(file)
	if err != nil {
		h.logger.Warn("parse csv import", "error", err)
		return pageData{Flash: "Unable to import CSV. Please check the file format.", FlashError: true}
	}
	if len(items) == 0 {
		return pageData{Flash: "Unable to import CSV: the file contained no rows.", FlashError: true}
	}

	if err := h.store.CreateBatch(items); err != nil {
		h.logger.Error("insert csv items", "count", len(items), "error", err)
		return pageData{Flash: "Unable to import CSV. Please check the file format.", FlashError: true}
	}

	h.hub.Broadcast(websocket.ItemMessage("imported", 0, map[string]any{"count": len(items)}))
	return pageData{Flash: fmt.Sprintf("Successfully imported %d item(s) from CSV.", len(items))}
}

// renderIndex fills in the item list (unless the action already supplied
// search results) and writes the page.
func (h *PageHandler) renderIndex(w http.ResponseWriter, r *http.Request, data pageData) {
	if data.Items == nil && !data.Searched {
		items, err := h.store.List()
		if err != nil {
			h.logger.Error("list items", "error", err)
			http.Error(w, "failed to load inventory", http.StatusInternalServerError)
			return
		}
		data.Items = items
	}

	data.Title = "Backstock Inventory"
	data.CSRFToken = middleware.CSRFToken(r.Context())

	h.render(w, "index.html", data)
}

// reportPageData feeds the report template.
type reportPageData struct {
	Title     string
	Report    *report.Data
	ShowStock bool
	ShowDept  bool
	ShowValue bool
}

// ReportPage handles GET /report. Optional viz query parameters select
// which visualizations render; none selected means all.
func (h *PageHandler) ReportPage(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List()
	if err != nil {
		h.logger.Error("list items for report", "error", err)
		http.Error(w, "failed to load report data", http.StatusInternalServerError)
		return
	}

	data := reportPageData{
		Title:  "Inventory Analytics Report",
		Report: report.Build(items),
	}

	viz := r.URL.Query()["viz"]
	if len(viz) == 0 {
		data.ShowStock, data.ShowDept, data.ShowValue = true, true, true
	} else {
		for _, v := range viz {
			switch v {
			case "stock_health":
				data.ShowStock = true
			case "department":
				data.ShowDept = true
			case "value":
				data.ShowValue = true
			}
		}
	}

	h.render(w, "report.html", data)
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", "template", name, "error", err)
	}
}

// parseForm parses either form encoding; multipart shows up on CSV
// uploads.
func parseForm(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}
