package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "mufapcli/internal/errors"
	"mufapcli/internal/files"
	custommw "mufapcli/internal/middleware"
	"mufapcli/internal/query"
)

// DataHandler serves the report grid API: paginated data pages, display
// column lists and source file downloads, with RFC 7807 errors.
type DataHandler struct {
	service      QueryServiceInterface
	files        *files.Manager
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service QueryServiceInterface, fm *files.Manager, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		files:        fm,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes with proper Chi patterns
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Grid protocol: the UI posts paging/search/sort state per draw.
	r.Route("/{report}", func(r chi.Router) {
		r.Use(h.ReportCtx)
		r.Use(custommw.ContentTypeValidator("application/x-www-form-urlencoded", "multipart/form-data"))
		r.Post("/", h.QueryReport)
		r.Get("/columns", h.GetColumns)
	})

	// Download route - the wildcard keeps nested paths like
	// PKRV/file.csv in one parameter.
	r.Get("/download/*", h.DownloadSourceFile)

	return r
}

// ReportCtx middleware validates the report identifier
func (h *DataHandler) ReportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := chi.URLParam(r, "report")
		if report == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("report", "Report type is required"))
			return
		}
		if _, err := query.ConfigFor(report); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"UNKNOWN_REPORT",
				fmt.Sprintf("Unknown report type '%s'", report),
				map[string]interface{}{
					"report": report,
				},
			))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// QueryReport handles POST /api/data/{report} with RFC 7807 errors
func (h *DataHandler) QueryReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	report := chi.URLParam(r, "report")

	req, err := parseGridRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "querying report",
		slog.String("request_id", reqID),
		slog.String("report", report),
		slog.Int("start", req.Start),
		slog.Int("length", req.Length),
		slog.String("search", req.Search),
	)

	resp, err := h.service.Query(r.Context(), report, req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to query report",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("report", report),
		)
		h.handleQueryError(w, r, report, err)
		return
	}

	render.JSON(w, r, resp)
}

// GetColumns handles GET /api/data/{report}/columns with RFC 7807 errors
func (h *DataHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	report := chi.URLParam(r, "report")

	h.logger.InfoContext(r.Context(), "fetching report columns",
		slog.String("request_id", reqID),
		slog.String("report", report),
	)

	cols, err := h.service.Columns(r.Context(), report)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get report columns",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("report", report),
		)
		h.handleQueryError(w, r, report, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"report":  report,
		"columns": cols,
		"count":   len(cols),
	})
}

// handleQueryError maps query service errors to API errors
func (h *DataHandler) handleQueryError(w http.ResponseWriter, r *http.Request, report string, err error) {
	switch {
	case errors.Is(err, query.ErrUnknownReport):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"UNKNOWN_REPORT",
			fmt.Sprintf("Unknown report type '%s'", report),
			map[string]interface{}{
				"report": report,
			},
		))
	case errors.Is(err, query.ErrTableNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrReportNotFound)
	case errors.Is(err, query.ErrNoDisplayColumns):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_QUERY",
			fmt.Sprintf("Report '%s' has no displayable columns", report),
			map[string]interface{}{
				"report": report,
			},
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// DownloadSourceFile handles GET /api/data/download/{filepath} with
// nested path support
func (h *DataHandler) DownloadSourceFile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	raw := chi.URLParam(r, "*")

	// URL decode the filepath to handle encoded slashes (%2F -> /)
	decodedPath, err := url.QueryUnescape(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_PATH",
			"Invalid file path encoding",
			map[string]interface{}{
				"filepath": raw,
				"error":    err.Error(),
			},
		))
		return
	}

	h.logger.InfoContext(r.Context(), "downloading source file",
		slog.String("request_id", reqID),
		slog.String("filepath", decodedPath),
	)

	full, err := h.files.Resolve(decodedPath)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to resolve source file",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("filepath", decodedPath),
		)

		switch {
		case errors.Is(err, files.ErrNotFound):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"FILE_NOT_FOUND",
				fmt.Sprintf("File '%s' not found", decodedPath),
				map[string]interface{}{
					"filepath": decodedPath,
				},
			))
		case errors.Is(err, files.ErrOutsideRoot):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusBadRequest,
				"INVALID_PATH",
				"File path is not allowed",
				map[string]interface{}{
					"filepath": decodedPath,
				},
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(full)))
	http.ServeFile(w, r, full)
}

// parseGridRequest reads the grid's draw state from a form POST. Bad or
// missing numeric fields fall back to zero values; the query service
// applies the documented defaults.
func parseGridRequest(r *http.Request) (query.Request, error) {
	if err := r.ParseForm(); err != nil {
		return query.Request{}, err
	}

	return query.Request{
		Draw:        formInt(r, "draw", 0),
		Start:       formInt(r, "start", 0),
		Length:      formInt(r, "length", 0),
		Search:      r.FormValue("search[value]"),
		OrderColumn: formInt(r, "order[0][column]", 0),
		OrderDir:    r.FormValue("order[0][dir]"),
	}, nil
}

func formInt(r *http.Request, key string, fallback int) int {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
