package tailor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
	"resume-tailor/resume/service"
)

// Handler exposes the validator and application engine over HTTP.
type Handler struct {
	Metrics *metrics.Registry
}

// NewHandler constructs a Handler.
func NewHandler(reg *metrics.Registry) *Handler {
	return &Handler{Metrics: reg}
}

// RegisterRoutes attaches edit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/edits/validate", h.validate)
	rg.POST("/edits/apply", h.apply)
}

type editsRequest struct {
	Lines []string        `json:"lines"`
	Edits json.RawMessage `json:"edits"`
	Risk  string          `json:"risk"`
	Force bool            `json:"force"`
}

type validateResponse struct {
	Valid    bool     `json:"valid"`
	Findings []string `json:"findings"`
}

type applyResponse struct {
	Lines    []string `json:"lines"`
	Diff     string   `json:"diff"`
	Warnings []string `json:"warnings"`
}

func (h *Handler) validate(c *gin.Context) {
	buf, set, risk, _, ok := h.decode(c)
	if !ok {
		return
	}
	findings := service.ValidateEdits(set, buf, risk)
	h.Metrics.ObserveValidation(len(findings))
	respond.OK(c, validateResponse{Valid: len(findings) == 0, Findings: nonNil(findings)})
}

func (h *Handler) apply(c *gin.Context) {
	buf, set, risk, force, ok := h.decode(c)
	if !ok {
		return
	}
	findings := service.ValidateEdits(set, buf, risk)
	h.Metrics.ObserveValidation(len(findings))
	if len(findings) > 0 && !force {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_failed", "edit set has validation findings", gin.H{
			"findings": findings,
		})
		return
	}

	out, err := service.ApplyEdits(buf, set)
	if err != nil {
		var editErr *service.EditError
		if errors.As(err, &editErr) {
			respond.Error(c, http.StatusUnprocessableEntity, "edit_error", editErr.Error(), gin.H{
				"opIndex": editErr.Index,
				"op":      editErr.Kind,
				"line":    editErr.Line,
			})
			return
		}
		respond.Error(c, http.StatusBadRequest, "invalid_edits", err.Error(), nil)
		return
	}

	diff, err := service.Diff(buf, out)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render diff", nil)
		return
	}
	respond.OK(c, applyResponse{Lines: out.Lines(), Diff: diff, Warnings: nonNil(findings)})
}

func (h *Handler) decode(c *gin.Context) (model.Buffer, edits.Set, service.Risk, bool, bool) {
	var req editsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return model.Buffer{}, edits.Set{}, 0, false, false
	}
	if len(req.Edits) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "edits is required", nil)
		return model.Buffer{}, edits.Set{}, 0, false, false
	}
	risk, err := service.ParseRisk(req.Risk)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return model.Buffer{}, edits.Set{}, 0, false, false
	}
	set, err := edits.Decode(req.Edits)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_edits", err.Error(), nil)
		return model.Buffer{}, edits.Set{}, 0, false, false
	}
	return model.NewBuffer(req.Lines), set, risk, req.Force, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
