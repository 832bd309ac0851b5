package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/de-tools/redflag/pkg/adapters"
	"github.com/de-tools/redflag/pkg/models/api"
	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/analysis"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/rs/zerolog"
)

const (
	defaultDocumentID = "document.txt"
	// multipartMemory is how much of a multipart form is buffered in memory
	multipartMemory = 8 << 20
)

// supportedExtensions are the uploads accepted as already-extracted text.
var supportedExtensions = map[string]struct{}{
	".txt":  {},
	".text": {},
	".md":   {},
}

var errUnsupportedFile = errors.New("unsupported file type")

type Service interface {
	Analyze(ctx context.Context, documentID, text string, opts analysis.Options) (domain.Report, error)
	Providers() []string
}

type Handler struct {
	svc            Service
	maxUploadBytes int64
	version        string
}

func NewHandler(svc Service, maxUploadBytes int64, version string) *Handler {
	return &Handler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		version:        version,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"message": "redflag document risk analyzer",
		"version": h.version,
		"endpoints": map[string]string{
			"analyze": "POST /api/v1/analyze - analyze one text document",
			"batch":   "POST /api/v1/analyze/batch - analyze several text documents",
			"health":  "GET /health - health check",
			"metrics": "GET /metrics - prometheus metrics",
		},
	})
}

// Health reports degraded when no semantic provider is configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]bool{"api": true, "rules": true}
	providers := h.svc.Providers()
	for _, p := range providers {
		services[p] = true
	}
	status := "healthy"
	if len(providers) == 0 {
		status = "degraded"
	}
	writeJSON(r.Context(), w, http.StatusOK, api.HealthResponse{
		Status:   status,
		Version:  h.version,
		Services: services,
	})
}

// Analyze accepts either a multipart form with a "file" field or a raw
// text/plain body named by the "document" query parameter.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	opts, err := parseOptions(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var documentID, text string
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeError(ctx, w, uploadStatus(err), fmt.Errorf("invalid upload: %w", err))
			return
		}
		headers := r.MultipartForm.File["file"]
		if len(headers) == 0 {
			writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("missing file field"))
			return
		}
		documentID = headers[0].Filename
		text, err = readUpload(headers[0])
		if err != nil {
			writeError(ctx, w, uploadStatus(err), err)
			return
		}
	} else {
		documentID = r.URL.Query().Get("document")
		if documentID == "" {
			documentID = defaultDocumentID
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(ctx, w, uploadStatus(err), fmt.Errorf("failed to read body: %w", err))
			return
		}
		if !utf8.Valid(body) {
			writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("document is not valid UTF-8 text"))
			return
		}
		text = string(body)
	}

	report, err := h.svc.Analyze(ctx, documentID, text, opts)
	if err != nil {
		status := analysisStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error().Err(err).Str("document", documentID).Msg("analysis failed")
		}
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, adapters.MapReportDomainToApi(report))
}

// AnalyzeBatch analyzes every file of the "files" field in order. A failing
// file is reported in its own entry and does not fail the request.
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, err := parseOptions(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if !isMultipart(r) {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("expected multipart/form-data"))
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(ctx, w, uploadStatus(err), fmt.Errorf("invalid upload: %w", err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("no files uploaded"))
		return
	}

	resp := api.BatchResponse{Results: make([]api.BatchItem, 0, len(headers))}
	for _, header := range headers {
		item := api.BatchItem{Filename: header.Filename}
		report, err := h.analyzeUpload(ctx, header, opts)
		if err != nil {
			item.Status = api.BatchStatusFailed
			item.Error = err.Error()
		} else {
			mapped := adapters.MapReportDomainToApi(report)
			item.Status = api.BatchStatusSuccess
			item.Result = &mapped
		}
		resp.Results = append(resp.Results, item)
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *Handler) analyzeUpload(ctx context.Context, header *multipart.FileHeader, opts analysis.Options) (domain.Report, error) {
	text, err := readUpload(header)
	if err != nil {
		return domain.Report{}, err
	}
	return h.svc.Analyze(ctx, header.Filename, text, opts)
}

func readUpload(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q (only .txt and .md text files are supported)", errUnsupportedFile, ext)
	}

	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", errUnsupportedFile, header.Filename)
	}
	return string(data), nil
}

func parseOptions(r *http.Request) (analysis.Options, error) {
	q := r.URL.Query()
	opts := analysis.DefaultOptions()

	var err error
	if opts.UseRules, err = boolParam(q.Get("use_rules"), true); err != nil {
		return opts, fmt.Errorf("invalid use_rules: %w", err)
	}
	if opts.UseSemantic, err = boolParam(q.Get("use_semantic"), true); err != nil {
		return opts, fmt.Errorf("invalid use_semantic: %w", err)
	}
	for _, p := range strings.Split(q.Get("providers"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.Providers = append(opts.Providers, p)
		}
	}
	return opts, nil
}

func boolParam(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func analysisStatus(err error) int {
	switch {
	case errors.Is(err, analysis.ErrEmptyDocument), errors.Is(err, semantic.ErrUnknownProvider):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	writeJSON(ctx, w, status, api.ErrorResponse{Error: err.Error()})
}
