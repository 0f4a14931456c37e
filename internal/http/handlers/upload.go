package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"query-advisor/internal/events"
	"query-advisor/internal/observability"
	"query-advisor/internal/querylog"
)

const maxReportedErrors = 20

type UploadHandler struct {
	repo         *querylog.Repository
	suggester    Suggester
	emitter      *events.Emitter
	log          *slog.Logger
	maxBodyBytes int64
}

func NewUploadHandler(repo *querylog.Repository, s Suggester, emitter *events.Emitter, log *slog.Logger, maxBodyBytes int64) *UploadHandler {
	if log == nil {
		log = slog.Default()
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil, "", log)
	}
	return &UploadHandler{repo: repo, suggester: s, emitter: emitter, log: log, maxBodyBytes: maxBodyBytes}
}

// UploadResponse is the success response body for upload endpoint
type UploadResponse struct {
	Message    string   `json:"message"`
	TotalLines int      `json:"total_lines"`
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors"`
	Filename   string   `json:"filename"`
}

// Upload godoc
// @Summary Upload a query log file
// @Description Accepts multipart/form-data with field "file" (.log or .txt) in the line format exec_time=<s>;records=<n>;indexes=<text>;columns=<a,b>;sql=<query>. Valid lines are stored; malformed lines are reported.
// @Tags query-log
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "query log file"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/query-log/upload [post]
func (h *UploadHandler) Upload() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file")
			return
		}
		defer safeClose(file)

		if err := validateUpload(header); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp := UploadResponse{Errors: []string{}, Filename: header.Filename}
		var entries []querylog.QueryLog
		ctx := r.Context()
		err = querylog.ParseStream(ctx, file,
			func(q querylog.QueryLog) error {
				resp.TotalLines++
				entries = append(entries, q)
				return nil
			},
			func(perr error) {
				resp.TotalLines++
				resp.Skipped++
				if len(resp.Errors) < maxReportedErrors {
					resp.Errors = append(resp.Errors, perr.Error())
				}
				h.log.Warn("query log parse error", "err", perr.Error())
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot parse file: %v", err))
			return
		}

		if len(entries) > 0 {
			if err := h.repo.InsertBatch(ctx, entries); err != nil {
				h.log.Error("insert uploaded logs failed", "err", err)
				writeError(w, http.StatusInternalServerError, "failed to store query logs")
				return
			}
			resp.Inserted = len(entries)
			for _, q := range entries {
				observability.IncIngested()
				h.suggester.RecordIngestion()
				h.emitter.Emit(ctx, events.TypeQueryLogCreated, q)
			}
		}

		resp.Message = "upload processed"
		if resp.Inserted == 0 {
			resp.Message = "no valid records found; nothing inserted"
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func validateUpload(h *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".log", ".txt":
	default:
		return fmt.Errorf("unsupported file extension: %s (allowed: .log, .txt)", ext)
	}
	// Clients may send application/octet-stream.
	ct := strings.ToLower(h.Header.Get("Content-Type"))
	if ct != "" && !(strings.HasPrefix(ct, "text/plain") || ct == "application/octet-stream") {
		return fmt.Errorf("unsupported content-type: %s", ct)
	}
	return nil
}

func safeClose(c io.Closer) {
	_ = c.Close()
}
