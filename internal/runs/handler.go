package runs

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

// Handler serves recorded bulk runs.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches run routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/runs", h.list)
	rg.GET("/runs/:id", h.get)
}

type runResponse struct {
	ID         string        `json:"id"`
	OutputDir  string        `json:"outputDir"`
	Model      string        `json:"model"`
	Risk       string        `json:"risk"`
	OnError    string        `json:"onError"`
	Parallel   int           `json:"parallel"`
	FailFast   bool          `json:"failFast"`
	ResumeHash string        `json:"resumeHash,omitempty"`
	TotalJobs  int           `json:"totalJobs"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	Jobs       []jobResponse `json:"jobs,omitempty"`
}

type jobResponse struct {
	ID           string   `json:"id"`
	Position     int      `json:"position"`
	SourcePath   string   `json:"sourcePath"`
	Title        string   `json:"title,omitempty"`
	Company      string   `json:"company,omitempty"`
	Status       string   `json:"status"`
	FitScore     *float64 `json:"fitScore"`
	EditCount    int      `json:"editCount"`
	WarningCount int      `json:"warningCount"`
	Attempts     int      `json:"attempts"`
	Error        string   `json:"error,omitempty"`
	DurationMs   float64  `json:"durationMs"`
}

type listResponse struct {
	Items  []runResponse `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (h *Handler) list(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be an integer", nil)
		return
	}
	limit, offset = clampPage(limit, offset)

	items, err := h.Repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list runs", nil)
		return
	}
	out := listResponse{Items: make([]runResponse, 0, len(items)), Limit: limit, Offset: offset}
	for _, run := range items {
		out.Items = append(out.Items, toResponse(run))
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	run, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load run", nil)
		return
	}
	respond.OK(c, toResponse(run))
}

func toResponse(run Run) runResponse {
	out := runResponse{
		ID:         run.ID,
		OutputDir:  run.OutputDir,
		Model:      run.Model,
		Risk:       run.Risk,
		OnError:    run.OnError,
		Parallel:   run.Parallel,
		FailFast:   run.FailFast,
		ResumeHash: run.ResumeHash,
		TotalJobs:  run.TotalJobs,
		Succeeded:  run.Succeeded,
		Failed:     run.Failed,
		Skipped:    run.Skipped,
		Status:     run.Status,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	for _, j := range run.Jobs {
		out.Jobs = append(out.Jobs, jobResponse{
			ID:           j.JobID,
			Position:     j.Position,
			SourcePath:   j.SourcePath,
			Title:        j.Title,
			Company:      j.Company,
			Status:       j.Status,
			FitScore:     j.FitScore,
			EditCount:    j.EditCount,
			WarningCount: j.WarningCount,
			Attempts:     j.Attempts,
			Error:        j.Error,
			DurationMs:   j.DurationMs,
		})
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
