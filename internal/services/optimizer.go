package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/justsurfingit/Resume-Journal/internal/models"
)

const optimizerSystemPrompt = `You are a resume editor. You reorder a candidate's existing jobs and bullet points so the most relevant experience for a job description comes first. You never invent, rewrite or drop content.

Respond with ONLY a JSON object, no prose, of this exact shape:
{
  "job_order": {"<job id>": <rank starting at 1>},
  "point_orders": {
    "<job id>": {"<point id>": {"order": <rank starting at 1>, "score": <relevance between 0 and 1>}}
  }
}
Use the numeric ids shown in square brackets. Every job id must appear in job_order.`

// Rejection explains why a suggestion was not stored.
type Rejection struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

type OptimizationRequest struct {
	Model          models.ModelType
	JobDescription string
	Narrative      string
	// JobIDs limits the payload to these jobs; empty means every job.
	JobIDs []uint
}

type OptimizationResult struct {
	Accepted      bool             `json:"accepted"`
	Model         models.ModelType `json:"model_type"`
	Generation    string           `json:"generation,omitempty"`
	JobsOrdered   int              `json:"jobs_ordered"`
	PointsOrdered int              `json:"points_ordered"`
	SkippedJobs   int              `json:"skipped_jobs,omitempty"`
	SkippedPoints int              `json:"skipped_points,omitempty"`
	Rejection     *Rejection       `json:"rejection,omitempty"`
}

// Optimizer runs one provider round trip and stores the accepted overlay.
type Optimizer struct {
	Providers ProviderRegistry
	Overlays  *OverlayStore
	Jobs      *JobService
	Timeout   time.Duration
}

func NewOptimizer(providers ProviderRegistry, overlays *OverlayStore, jobs *JobService, timeout time.Duration) *Optimizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Optimizer{Providers: providers, Overlays: overlays, Jobs: jobs, Timeout: timeout}
}

// RequestOptimization asks the model for an ordering and, if the reply is
// usable, replaces that model's overlay. Every provider or parse problem ends
// as a rejected result with a nil error; only input and store failures are
// returned as errors. A rejection writes nothing.
func (o *Optimizer) RequestOptimization(ctx context.Context, req OptimizationRequest) (OptimizationResult, error) {
	result := OptimizationResult{Model: req.Model}
	if req.Model == "" {
		return result, newError(ErrInvalidInput, "model_type is required")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return result, newError(ErrInvalidInput, "job_description is required")
	}

	jobs, err := o.selectJobs(ctx, req.JobIDs)
	if err != nil {
		return result, err
	}
	if len(jobs) == 0 {
		return result, newError(ErrInvalidInput, "there are no jobs to order")
	}

	completer, err := o.Providers.For(req.Model)
	if err != nil {
		return reject(result, err), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := completer.Complete(callCtx, BuildOptimizationMessages(jobs, req.JobDescription, req.Narrative))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = wrapError(ErrProviderTimeout, fmt.Sprintf("%s did not answer within %s", req.Model, o.Timeout), err)
		} else {
			err = wrapError(ErrProviderFailed, err.Error(), err)
		}
		log.Printf("[optimize:%s] ❌ provider call failed after %s: %v", req.Model, time.Since(start).Round(time.Millisecond), err)
		return reject(result, err), nil
	}
	log.Printf("[optimize:%s] 📨 reply received in %s (%d chars)", req.Model, time.Since(start).Round(time.Millisecond), len(raw))

	ordering, err := ParseSuggestion(raw)
	if err != nil {
		log.Printf("[optimize:%s] ⚠️ suggestion rejected: %v", req.Model, err)
		return reject(result, err), nil
	}
	log.Printf("[optimize:%s] 🧩 parsed %d job and %d point placements", req.Model, len(ordering.JobOrder), ordering.PointCount())
	if ordering.Empty() {
		return reject(result, newError(ErrEmptyOrdering, "suggestion contained no job or point order")), nil
	}

	write, err := o.Overlays.Replace(ctx, req.Model, ordering)
	if err != nil {
		if IsKind(err, ErrEmptyOrdering) {
			return reject(result, err), nil
		}
		return result, err
	}

	result.Accepted = true
	result.Generation = write.Generation
	result.JobsOrdered = write.JobRows
	result.PointsOrdered = write.PointRows
	result.SkippedJobs = write.SkippedJobs
	result.SkippedPoints = write.SkippedPoints
	return result, nil
}

func (o *Optimizer) selectJobs(ctx context.Context, ids []uint) ([]models.Job, error) {
	all, err := o.Jobs.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[uint]models.Job, len(all))
	for _, j := range all {
		byID[j.ID] = j
	}
	out := make([]models.Job, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		j, ok := byID[id]
		if !ok {
			return nil, newError(ErrUnknownRef, "unknown job %d", id)
		}
		out = append(out, j)
	}
	return out, nil
}

// BuildOptimizationMessages renders one system instruction and one user
// payload. Jobs and points carry their ids in square brackets so the reply
// can refer to them.
func BuildOptimizationMessages(jobs []models.Job, jobDescription, narrative string) []Message {
	var b strings.Builder
	b.WriteString("JOB DESCRIPTION:\n")
	b.WriteString(strings.TrimSpace(jobDescription))
	b.WriteString("\n\n")
	if n := strings.TrimSpace(narrative); n != "" {
		b.WriteString("CANDIDATE NARRATIVE:\n")
		b.WriteString(n)
		b.WriteString("\n\n")
	}
	b.WriteString("EXPERIENCE:\n")
	for _, j := range jobs {
		fmt.Fprintf(&b, "Job [%d]: %s at %s (%s)\n", j.ID, j.Title, j.Company, FormatDates(j.StartDate, j.EndDate, j.Current))
		for _, p := range j.Points {
			fmt.Fprintf(&b, "  - [%d] %s\n", p.ID, p.Point)
		}
	}
	return []Message{
		{Role: "system", Content: optimizerSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// reject turns err into the rejection carried by result. Parser kinds
// collapse to SUGGESTION_REJECTED.
func reject(result OptimizationResult, err error) OptimizationResult {
	r := &Rejection{Kind: KindOf(err), Message: err.Error()}
	var appErr *AppError
	if errors.As(err, &appErr) {
		r.Message = appErr.Message
		r.Detail = appErr.Fragment
	}
	switch r.Kind {
	case ErrMalformedJSON, ErrMissingField, ErrTypeCoercion:
		r.Detail = strings.TrimSpace(fmt.Sprintf("%s: %s %s", r.Kind, r.Message, r.Detail))
		r.Kind = ErrSuggestionBad
		r.Message = "could not parse suggestion"
	case "":
		r.Kind = ErrProviderFailed
	}
	result.Accepted = false
	result.Rejection = r
	return result
}
