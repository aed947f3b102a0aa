package cas

import (
	"context"
	"fmt"
	"sort"

	"github.com/korjavin/integralsheet/models"
)

// SolveIterated evaluates an iterated integral innermost first, feeding each
// exact result in as the integrand of the next integral.
func SolveIterated(ctx context.Context, in Integrator, function string, integrals []models.Integral) (Result, error) {
	if len(integrals) == 0 {
		return Result{}, models.ErrNoIntegrals
	}
	steps := make([]models.Integral, len(integrals))
	copy(steps, integrals)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	expr := function
	if expr == "" {
		expr = "1"
	}
	var res Result
	for _, step := range steps {
		var err error
		res, err = in.Integrate(ctx, expr, step.Variable, step.Limits.Lower, step.Limits.Upper)
		if err != nil {
			return Result{}, fmt.Errorf("d%s: %w", step.Variable, err)
		}
		expr = res.Exact
	}
	return res, nil
}
