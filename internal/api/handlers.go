// File: internal/api/handlers.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/orchestrator"
	"github.com/xkilldash9x/guardian/internal/scoring"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Handlers manages the HTTP request handling for the API server.
type Handlers struct {
	log  *zap.Logger
	deps Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *zap.Logger, deps Deps) *Handlers {
	return &Handlers{
		log:  logger.Named("api_handlers"),
		deps: deps,
	}
}

// RegisterRoutes mounts the versioned API on r. Callers add auth middleware
// before calling it.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/threats", h.HandleProcessThreat)
	r.Post("/threats/analyze", h.HandleAnalyzeThreat)
	r.Get("/alerts/{alertID}", h.HandleGetAlert)
	r.Get("/evidence/{evidenceID}", h.HandleGetEvidence)
	r.Post("/impersonation/reports", h.HandleImpersonationReport)
}

// HandleHealthCheck is a simple handler to confirm the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleProcessThreat accepts precomputed signals, including legacy field
// names, and runs the pipeline.
func (h *Handlers) HandleProcessThreat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	req, err := orchestrator.DecodeThreatRequest(body)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.process(w, r, req, nil)
}

// HandleAnalyzeThreat collects scorer signals for raw content before running
// the pipeline.
func (h *Handlers) HandleAnalyzeThreat(w http.ResponseWriter, r *http.Request) {
	if h.deps.Collector == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Signal collection is not configured.")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	req.SubjectHandle = strings.TrimSpace(req.SubjectHandle)
	if req.SubjectHandle == "" {
		h.respondWithError(w, http.StatusBadRequest, "subject_handle is required.")
		return
	}

	collected, err := h.deps.Collector.Collect(r.Context(), req.SubjectHandle, req.Content, req.MediaURLs)
	if err != nil {
		if schemas.IsInputError(err) {
			h.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("Signal collection failed", zap.Error(err))
		h.respondWithError(w, http.StatusBadGateway, "Signal collection failed.")
		return
	}

	threat := schemas.ThreatRequest{
		Analysis:      collected.Analysis,
		Content:       req.Content,
		SubjectHandle: req.SubjectHandle,
		Platform:      orchestrator.InferPlatform(req.Platform, req.SourceURL),
		SourceURL:     req.SourceURL,
		Impersonation: req.Impersonation,
	}
	h.process(w, r, threat, &collected)
}

func (h *Handlers) process(w http.ResponseWriter, r *http.Request, req schemas.ThreatRequest, collected *scoring.Collection) {
	resp, err := h.deps.Processor.ProcessThreat(r.Context(), req)
	if err != nil {
		if schemas.IsInputError(err) {
			h.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("Threat processing failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if collected == nil {
		h.respondWithSuccess(w, http.StatusOK, resp)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, AnalyzeResponse{
		ThreatResponse: resp,
		Analysis:       collected.Analysis,
		Media:          collected.Media,
	})
}

// HandleGetAlert returns the active-alert registry entry for an alert ID.
func (h *Handlers) HandleGetAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")
	alert, err := h.deps.Processor.GetAlertStatus(r.Context(), alertID)
	if err != nil {
		h.respondLookupError(w, "Alert", alertID, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, alert)
}

// HandleGetEvidence returns a stored evidence record.
func (h *Handlers) HandleGetEvidence(w http.ResponseWriter, r *http.Request) {
	evidenceID := chi.URLParam(r, "evidenceID")
	rec, err := h.deps.Evidence.Get(r.Context(), evidenceID)
	if err != nil {
		h.respondLookupError(w, "Evidence", evidenceID, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, rec)
}

// HandleImpersonationReport inspects an account against the protected handles.
func (h *Handlers) HandleImpersonationReport(w http.ResponseWriter, r *http.Request) {
	var info schemas.AccountInfo
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&info); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(info.Username) == "" {
		h.respondWithError(w, http.StatusBadRequest, "username is required.")
		return
	}

	report := h.deps.Inspector.Inspect(info)
	h.log.Info("Impersonation report generated",
		zap.String("username", info.Username),
		zap.String("platform", info.Platform),
		zap.Float64("risk_score", report.RiskScore))
	h.respondWithSuccess(w, http.StatusOK, report)
}

func (h *Handlers) respondLookupError(w http.ResponseWriter, kind, id string, err error) {
	if errors.Is(err, schemas.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found.", kind, id))
		return
	}
	h.log.Error("Lookup failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
	h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Internal error retrieving %s.", strings.ToLower(kind)))
}

// respondWithError sends a standardized JSON error response.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.respondWithStatus(w, statusCode, "error", map[string]string{"error": message})
}

// respondWithSuccess sends a standardized JSON success response.
func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.respondWithStatus(w, statusCode, "success", data)
}

// respondWithStatus sends a standardized JSON response with a specific status string.
func (h *Handlers) respondWithStatus(w http.ResponseWriter, statusCode int, status string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := Response{Status: status}

	if errMap, ok := data.(map[string]string); ok && errMap["error"] != "" {
		resp.Error = errMap["error"]
	} else {
		resp.Data = data
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
