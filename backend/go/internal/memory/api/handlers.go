package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"MedMemory/backend/go/internal/episode"
	"MedMemory/backend/go/internal/memory/service"
	"MedMemory/backend/go/internal/memory/store"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings one backend.
type HealthCheck func(ctx context.Context) error

// Handler serves the memory API.
type Handler struct {
	service *service.MemoryService
	logger  *logger.Logger
	checks  map[string]HealthCheck
	now     func() time.Time
}

// NewHandler creates a new Handler. checks are reported by /healthz.
func NewHandler(svc *service.MemoryService, logger *logger.Logger, checks map[string]HealthCheck) *Handler {
	return &Handler{service: svc, logger: logger, checks: checks, now: time.Now}
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type windowRequest struct {
	Prev    *models.TimeWindow `json:"prev" binding:"required"`
	New     *models.TimeWindow `json:"new" binding:"required"`
	GapDays int                `json:"gap_days"`
}

type factPair[T any] struct {
	Current         T     `json:"current" binding:"required"`
	New             T     `json:"new" binding:"required"`
	ApproximateTime *bool `json:"approximate_time"`
	HighRisk        *bool `json:"high_risk"`
}

func (p factPair[T]) scoreOptions() episode.ScoreOptions {
	return episode.ScoreOptions{ApproximateTime: p.ApproximateTime, HighRisk: p.HighRisk}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.WithError(models.NewErrorInfo(err, "validation")).Warn("Invalid request payload")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// respondError maps service errors to HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidStatement):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(models.NewErrorInfo(err, "internal")).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// AssessStatement handles POST /statements/assess.
func (h *Handler) AssessStatement(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.Assess(req.Text))
}

// ParseTime handles POST /time/parse. parsed is null when the text carries no
// time phrase.
func (h *Handler) ParseTime(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parsed": h.service.ParseTime(req.Text)})
}

// UpdateWindow handles POST /time/window.
func (h *Handler) UpdateWindow(c *gin.Context) {
	var req windowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	action, window := h.service.UpdateWindow(*req.Prev, *req.New, req.GapDays)
	c.JSON(http.StatusOK, gin.H{"action": action, "window": window})
}

func (h *Handler) bindMedications(c *gin.Context) (factPair[*models.MedicationFact], bool) {
	var req factPair[*models.MedicationFact]
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return req, false
	}
	now := h.now()
	req.Current.EnsureDefaults(now)
	req.New.EnsureDefaults(now)
	return req, true
}

func (h *Handler) bindSymptoms(c *gin.Context) (factPair[*models.SymptomFact], bool) {
	var req factPair[*models.SymptomFact]
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return req, false
	}
	now := h.now()
	req.Current.EnsureDefaults(now)
	req.New.EnsureDefaults(now)
	return req, true
}

// DecideMedication handles POST /medications/decide.
func (h *Handler) DecideMedication(c *gin.Context) {
	req, ok := h.bindMedications(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": h.service.DecideMedication(req.Current, req.New)})
}

// DecideSymptom handles POST /symptoms/decide.
func (h *Handler) DecideSymptom(c *gin.Context) {
	req, ok := h.bindSymptoms(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": h.service.DecideSymptom(req.Current, req.New)})
}

// MedicationConfidence handles POST /medications/confidence.
func (h *Handler) MedicationConfidence(c *gin.Context) {
	req, ok := h.bindMedications(c)
	if !ok {
		return
	}
	action, conf := h.service.MedicationConfidence(req.Current, req.New, req.scoreOptions())
	c.JSON(http.StatusOK, gin.H{"action": action, "confidence": conf})
}

// SymptomConfidence handles POST /symptoms/confidence.
func (h *Handler) SymptomConfidence(c *gin.Context) {
	req, ok := h.bindSymptoms(c)
	if !ok {
		return
	}
	action, conf := h.service.SymptomConfidence(req.Current, req.New, req.scoreOptions())
	c.JSON(http.StatusOK, gin.H{"action": action, "confidence": conf})
}

// IngestStatement handles POST /statements.
func (h *Handler) IngestStatement(c *gin.Context) {
	var rec models.StatementRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.service.Ingest(c.Request.Context(), rec)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListMedications handles GET /subjects/:subject/medications.
func (h *Handler) ListMedications(c *gin.Context) {
	facts, err := h.service.CurrentMedications(c.Request.Context(), c.Param("subject"), c.Query("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": facts})
}

// ListSymptoms handles GET /subjects/:subject/symptoms.
func (h *Handler) ListSymptoms(c *gin.Context) {
	facts, err := h.service.CurrentSymptoms(c.Request.Context(), c.Param("subject"), c.Query("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symptoms": facts})
}

// ListDecisions handles GET /subjects/:subject/decisions?limit=N.
func (h *Handler) ListDecisions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		h.badRequest(c, errors.New("limit must be a positive integer"))
		return
	}
	records, err := h.service.Decisions(c.Request.Context(), c.Param("subject"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": records})
}

// ListRejected handles GET /subjects/:subject/rejected.
func (h *Handler) ListRejected(c *gin.Context) {
	notes, err := h.service.Rejected(c.Request.Context(), c.Param("subject"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rejected": notes})
}

// SubjectGraph handles GET /subjects/:subject/graph.
func (h *Handler) SubjectGraph(c *gin.Context) {
	edges, err := h.service.Graph(c.Request.Context(), c.Param("subject"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges})
}

// LineageVersions handles GET /lineages/:lineage/versions.
func (h *Handler) LineageVersions(c *gin.Context) {
	versions, err := h.service.History(c.Request.Context(), c.Param("lineage"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// Healthz runs every registered check with a short timeout.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
}
