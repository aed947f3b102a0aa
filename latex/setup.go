package latex

import (
	"sort"
	"strings"

	"github.com/korjavin/integralsheet/models"
)

// IntegralSetup typesets the iterated integral of an exercise, outermost
// integral sign first and differentials innermost first:
//
//	\int_{0}^{2\pi} \int_{0}^{1} r \, dr d\theta
func IntegralSetup(ex *models.Exercise) string {
	if len(ex.Integrals) == 0 {
		return ""
	}
	inner := ex.SortedIntegrals()
	outer := make([]models.Integral, len(inner))
	copy(outer, inner)
	sort.SliceStable(outer, func(i, j int) bool { return outer[i].Order > outer[j].Order })

	var b strings.Builder
	for _, in := range outer {
		b.WriteString(`\int_{`)
		b.WriteString(in.Limits.Lower)
		b.WriteString(`}^{`)
		b.WriteString(in.Limits.Upper)
		b.WriteString(`} `)
	}
	function := strings.TrimSpace(ex.Function)
	if function == "" {
		function = "1"
	}
	b.WriteString(function)
	b.WriteString(` \, `)
	for _, in := range inner {
		b.WriteString("d")
		b.WriteString(in.Variable)
		b.WriteString(" ")
	}
	return setupPipeline.Run(b.String())
}
