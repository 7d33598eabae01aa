// Package pipeline chains the engine for one deal (projection, economics,
// completeness, decision) and fans batches of deals out over a bounded worker pool.
package pipeline

import (
	"context"
	"runtime"

	"deal-compass-workers/internal/engine/completeness"
	"deal-compass-workers/internal/engine/economics"
	"deal-compass-workers/internal/engine/feasibility"
	"deal-compass-workers/internal/engine/icdecision"
	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// Job is one deal to evaluate.
type Job struct {
	Deal         models.DealSnapshot      `json:"deal" yaml:"deal"`
	Inputs       models.FeasibilityInputs `json:"inputs" yaml:"inputs"`
	ContractType string                   `json:"contractType" yaml:"contractType"`
	ContactCount int                      `json:"contactCount" yaml:"contactCount"`
	Thresholds   *presets.Thresholds      `json:"thresholds,omitempty" yaml:"-"`
}

type Result struct {
	DealID       string                    `json:"dealId"`
	Inputs       models.FeasibilityInputs  `json:"inputs"`
	Feasibility  models.FeasibilityOutputs `json:"feasibility"`
	Brand        models.BrandEconomics     `json:"brandEconomics"`
	Owner        models.OwnerEconomics     `json:"ownerEconomics"`
	Completeness models.CompletenessScore  `json:"completeness"`
	Decision     models.ICDecision         `json:"icDecision"`
}

type Runner struct {
	rubric *presets.Rubric
	engine *icdecision.Engine
}

func NewRunner(r *presets.Rubric) *Runner {
	if r == nil {
		r = presets.Default()
	}
	return &Runner{rubric: r, engine: icdecision.New(r)}
}

func (r *Runner) Rubric() *presets.Rubric {
	return r.rubric
}

// HasFeasibilityInputs reports whether the core assumptions have been entered.
func HasFeasibilityInputs(in models.FeasibilityInputs) bool {
	return in.Rooms > 0 && in.ADR > 0 && in.Occupancy > 0
}

// Prepare fills secondary assumptions from the segment preset once the core
// inputs (rooms, ADR, occupancy) are present. Incomplete inputs are returned
// unchanged so completeness and the decision see what is actually missing.
func (r *Runner) Prepare(in models.FeasibilityInputs, dealSegment string) models.FeasibilityInputs {
	if in.Segment == "" {
		in.Segment = dealSegment
	}
	if !HasFeasibilityInputs(in) {
		return in
	}
	return r.rubric.FillDefaults(in)
}

// Economics runs the projection and economics for already-prepared inputs.
func (r *Runner) Economics(in models.FeasibilityInputs, contractType string) (models.FeasibilityOutputs, models.BrandEconomics, models.OwnerEconomics) {
	out := feasibility.ComputeFeasibility(in)
	brand := economics.ComputeBrandEconomics(in, out, contractType, in.KeyMoney)
	owner := economics.ComputeOwnerEconomics(in, out, economics.DebtTermsFrom(in), in.CapRate,
		r.rubric.Preset(in.Segment).MinYieldOnCost)
	return out, brand, owner
}

// Run evaluates one deal end to end. Inputs are used as given; callers that
// want preset defaults apply Rubric().FillDefaults first.
func (r *Runner) Run(job Job) Result {
	in := job.Inputs
	if in.Segment == "" {
		in.Segment = job.Deal.Segment
	}

	out, brand, owner := r.Economics(in, job.ContractType)
	score := completeness.ComputeCompleteness(job.Deal, HasFeasibilityInputs(in), job.ContactCount)

	decision := r.engine.Evaluate(icdecision.Input{
		Deal:         job.Deal,
		Inputs:       in,
		Feasibility:  out,
		Brand:        brand,
		Owner:        owner,
		Completeness: score,
		ContractType: job.ContractType,
		Thresholds:   job.Thresholds,
	})

	return Result{
		DealID:       job.Deal.ID,
		Inputs:       in,
		Feasibility:  out,
		Brand:        brand,
		Owner:        owner,
		Completeness: score,
		Decision:     decision,
	}
}

// RunBatch evaluates jobs concurrently. Results keep the order of jobs.
// parallelism <= 0 uses GOMAXPROCS.
func (r *Runner) RunBatch(ctx context.Context, jobs []Job, parallelism int) ([]Result, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.Run(jobs[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
