package handlers

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipforge/internal/clip"
	"clipforge/internal/httpkit"
	"clipforge/internal/jobstore"
	"clipforge/internal/pkg/errors"
	"clipforge/internal/shorthand"
	"clipforge/internal/template"
)

// JobResponse is the job snapshot returned by submission and status
// endpoints. OutputURL is set once the job completes.
type JobResponse struct {
	JobID       string          `json:"job_id"`
	Status      jobstore.Status `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	OutputURL   string          `json:"output_url,omitempty"`
}

func toJobResponse(job *jobstore.Job) JobResponse {
	resp := JobResponse{
		JobID:       job.ID,
		Status:      job.Status,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
	}
	if job.Status == jobstore.StatusCompleted {
		resp.OutputURL = "/clip/" + job.ID + "/download"
	}
	return resp
}

// PostClip accepts a full clip description and schedules a render.
func (h *Handler) PostClip(w http.ResponseWriter, r *http.Request) {
	var spec clip.Spec
	if err := httpkit.DecodeJSON(r, &spec); err != nil {
		httpkit.WriteErr(w, 400, string(errors.CodeValidation), "invalid json body", nil)
		return
	}

	if err := shorthand.NormalizeAll(spec.Elements); err != nil {
		httpkit.WriteError(w, err)
		return
	}
	spec.EnsureIDs()
	if err := spec.Validate(); err != nil {
		httpkit.WriteError(w, err)
		return
	}

	h.submit(w, r, &spec)
}

// TemplateClipRequest is the body of POST /template-clip.
type TemplateClipRequest struct {
	TemplateID string         `json:"template_id"`
	Elements   []clip.Element `json:"elements"`
}

// PostTemplateClip resolves partial elements against a named template and
// schedules a render of the result.
func (h *Handler) PostTemplateClip(w http.ResponseWriter, r *http.Request) {
	var req TemplateClipRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, string(errors.CodeValidation), "invalid json body", nil)
		return
	}
	if req.TemplateID == "" {
		httpkit.WriteErr(w, 400, string(errors.CodeValidation), "template_id is required",
			map[string]any{"field": "template_id"})
		return
	}

	tpl, err := h.templates.Get(req.TemplateID)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	spec, err := template.Resolve(tpl, req.Elements)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	h.submit(w, r, spec)
}

// checkFonts resolves every referenced font family up front, so a spec
// naming an unknown family is rejected before any job exists.
func (h *Handler) checkFonts(spec *clip.Spec) error {
	if h.fonts == nil {
		return nil
	}
	for i := range spec.Elements {
		e := &spec.Elements[i]
		if e.Type != clip.TypeText || e.Style == nil {
			continue
		}
		if _, err := h.fonts.Resolve(e.Style.FontFamily); err != nil {
			return err
		}
	}
	return nil
}

// submit creates the job record, hands the spec to the render pool, and
// answers 202 with the initial snapshot.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, spec *clip.Spec) {
	ctx := r.Context()

	if err := h.checkFonts(spec); err != nil {
		httpkit.WriteError(w, err)
		return
	}

	job := jobstore.NewJob(uuid.NewString())
	if err := h.store.Create(ctx, job); err != nil {
		h.log.LogError(ctx, "failed to create job record", err)
		httpkit.WriteError(w, err)
		return
	}

	h.pool.Submit(ctx, job.ID, spec)
	h.log.FromContext(ctx).Info("job accepted",
		"job_id", job.ID,
		"elements", len(spec.Elements),
		"duration", spec.EffectiveDuration())

	httpkit.WriteJSON(w, http.StatusAccepted, toJobResponse(job))
}

// GetJob returns the current snapshot of one job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, 200, toJobResponse(job))
}

// ListJobs returns snapshots of all known jobs, newest first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.List(r.Context())
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	httpkit.WriteJSON(w, 200, map[string]any{"jobs": out})
}

// DownloadClip streams the rendered output of a completed job.
func (h *Handler) DownloadClip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.store.Get(ctx, jobID)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	switch job.Status {
	case jobstore.StatusProcessing:
		httpkit.WriteErr(w, http.StatusConflict, string(errors.CodeJobNotReady),
			"job is still processing", map[string]any{"job_id": jobID})
		return
	case jobstore.StatusFailed:
		httpkit.WriteErr(w, http.StatusConflict, string(errors.CodeJobNotReady),
			"job failed", map[string]any{"job_id": jobID, "error": job.Error})
		return
	}

	rc, contentType, size, err := h.sp.GetObject(ctx, job.OutputKey)
	if err != nil {
		h.log.LogError(ctx, "failed to open rendered output", err, "job_id", jobID)
		httpkit.WriteErr(w, 500, string(errors.CodeInternal), "failed to open rendered output", nil)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(job.OutputKey)+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.LogError(ctx, "download interrupted", err, "job_id", jobID)
	}
}
