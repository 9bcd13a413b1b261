// Package httpapi exposes the document-checking service over HTTP:
// authentication, document upload, check start/status/result and the
// rule catalogue export consumed by the frontend.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/msklnkk/Electronic-corrector/docfeat"
	"github.com/msklnkk/Electronic-corrector/reportpdf"
	"github.com/msklnkk/Electronic-corrector/rules"
	"github.com/msklnkk/Electronic-corrector/service"
	"github.com/msklnkk/Electronic-corrector/store"
)

// Config configures the API surface.
type Config struct {
	// JWTSecret signs session tokens. Required.
	JWTSecret []byte

	// DataDir is where uploaded documents are stored.
	DataDir string

	// MaxUploadSize bounds one uploaded file (default: 50 MB).
	MaxUploadSize int64

	// ReportFontPath is passed through to the PDF renderer.
	ReportFontPath string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = 50 * 1024 * 1024
	}
	if c.DataDir == "" {
		c.DataDir = "data/uploads"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// API wires the HTTP handlers to the service layer.
type API struct {
	svc       *service.Service
	store     *store.Store
	catalogue *rules.Catalogue
	renderer  *reportpdf.Renderer
	cfg       Config
	logger    *slog.Logger
}

// New creates the API.
func New(svc *service.Service, st *store.Store, catalogue *rules.Catalogue, cfg Config) *API {
	cfg.defaults()
	return &API{
		svc:       svc,
		store:     st,
		catalogue: catalogue,
		renderer:  reportpdf.New(reportpdf.Config{FontPath: cfg.ReportFontPath}),
		cfg:       cfg,
		logger:    cfg.Logger,
	}
}

// Router builds the chi router with all routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/auth/login", a.login)

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)
		r.Post("/api/documents", a.uploadDocument)
		r.Get("/api/documents/{documentID}", a.getDocument)
		r.Post("/api/documents/{documentID}/check", a.startCheck)
		r.Get("/api/documents/{documentID}/mistakes", a.listMistakes)
		r.Get("/api/checks/{checkID}", a.getCheck)
		r.Get("/api/checks/{checkID}/report", a.getReport)
		r.Get("/api/checks/{checkID}/report.pdf", a.getReportPDF)
		r.Get("/api/rules", a.listRules)
	})

	return r
}

func (a *API) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(a.cfg.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "невозможно разобрать форму загрузки")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "файл не передан")
		return
	}
	defer file.Close()

	if _, err := docfeat.Detect(header.Filename); err != nil {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("неподдерживаемый формат файла, допустимы: %s",
				strings.Join(docfeat.SupportedFormats(), ", ")))
		return
	}

	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		a.serverError(w, "create upload dir", err)
		return
	}
	dstPath := filepath.Join(a.cfg.DataDir,
		uuid.NewString()+strings.ToLower(filepath.Ext(header.Filename)))
	dst, err := os.Create(dstPath)
	if err != nil {
		a.serverError(w, "create upload file", err)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dstPath)
		a.serverError(w, "write upload file", err)
		return
	}

	doc, err := a.store.CreateDocument(r.Context(), header.Filename, dstPath)
	if err != nil {
		os.Remove(dstPath)
		a.serverError(w, "create document", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"status":      doc.Status,
	})
}

func (a *API) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := a.store.GetDocument(r.Context(), chi.URLParam(r, "documentID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "документ не найден")
		return
	}
	if err != nil {
		a.serverError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"status":      doc.Status,
		"score":       doc.Score,
		"uploaded_at": doc.UploadedAt,
	})
}

func (a *API) startCheck(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	checkID, err := a.svc.StartCheck(r.Context(), documentID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "документ не найден")
		return
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "сервис перегружен, повторите позже")
		return
	case err != nil:
		a.serverError(w, "start check", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"check_id": checkID,
		"status":   store.CheckPending,
	})
}

func (a *API) getCheck(w http.ResponseWriter, r *http.Request) {
	chk, err := a.svc.GetCheck(r.Context(), chi.URLParam(r, "checkID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "проверка не найдена")
		return
	}
	if err != nil {
		a.serverError(w, "get check", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"check_id":     chk.ID,
		"document_id":  chk.DocumentID,
		"status":       chk.Status,
		"score":        chk.Score,
		"is_compliant": chk.IsCompliant,
		"error":        chk.Error,
		"created_at":   chk.CreatedAt,
		"checked_at":   chk.CheckedAt,
	})
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.svc.GetReport(r.Context(), chi.URLParam(r, "checkID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "отчет еще не готов")
		return
	}
	if err != nil {
		a.serverError(w, "get report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) getReportPDF(w http.ResponseWriter, r *http.Request) {
	report, err := a.svc.GetReport(r.Context(), chi.URLParam(r, "checkID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "отчет еще не готов")
		return
	}
	if err != nil {
		a.serverError(w, "get report", err)
		return
	}
	data, err := a.renderer.Render(report)
	if err != nil {
		a.serverError(w, "render report", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *API) listMistakes(w http.ResponseWriter, r *http.Request) {
	mistakes, err := a.store.ListMistakes(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		a.serverError(w, "list mistakes", err)
		return
	}
	out := make([]map[string]any, 0, len(mistakes))
	for _, m := range mistakes {
		out = append(out, map[string]any{
			"mistake_id": m.ID,
			"rule_id":    m.RuleID,
			"severity":   m.Severity,
			"message":    m.Message,
			"suggestion": m.Suggestion,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"mistakes": out})
}

func (a *API) listRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rules":   a.catalogue.All(),
		"summary": a.catalogue.Summarize(),
	})
}

func (a *API) serverError(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
