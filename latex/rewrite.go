// Package latex turns solver notation (x**2*sin(theta), E, oo, 50/3) into
// LaTeX math markup and formats solution lines.
//
// The rewriting is an ordered list of stages. Each stage is a pure string
// transform that later stages depend on: the power stage must see ** before
// the multiplication stage strips '*', and fraction detection must see cos(
// before function names are escaped. Unknown syntax is passed through.
package latex

import (
	"regexp"
	"strings"
)

// Stage is one named rewrite step.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline applies its stages in order. Each stage runs until its output no
// longer changes, and the whole list is repeated until a full run changes
// nothing: a later stage can expose work for an earlier one (r**2rho only
// shows the word rho once the power is split off).
type Pipeline struct {
	stages []Stage
}

const (
	maxStagePasses    = 32
	maxPipelinePasses = 8
)

// NewPipeline builds a pipeline from the given stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Stages returns a copy of the stage list.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Run rewrites s.
func (p *Pipeline) Run(s string) string {
	for pass := 0; pass < maxPipelinePasses; pass++ {
		next := p.runOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func (p *Pipeline) runOnce(s string) string {
	for _, st := range p.stages {
		for i := 0; i < maxStagePasses; i++ {
			next := st.Apply(s)
			if next == s {
				break
			}
			s = next
		}
	}
	return s
}

var (
	GreekStage = Stage{Name: "greek", Apply: func(s string) string {
		return replaceWords(s, greekSymbols)
	}}

	PowerStage = Stage{Name: "power", Apply: normalizePowers}

	FunctionStage = Stage{Name: "functions", Apply: func(s string) string {
		return replaceWords(repeatCall(s, "exp", "e^{"), mathFunctions)
	}}

	ConstantStage = Stage{Name: "constants", Apply: func(s string) string {
		return replaceWords(s, constants)
	}}

	MultiplicationStage = Stage{Name: "multiplication", Apply: juxtapose}

	DifferentialStage = Stage{Name: "differentials", Apply: func(s string) string {
		return replaceWords(s, differentials)
	}}

	WhitespaceStage = Stage{Name: "whitespace", Apply: func(s string) string {
		return strings.TrimSpace(blankRunRe.ReplaceAllString(s, " "))
	}}

	// SqrtStage gives square roots a braced radicand: sqrt(x) -> \sqrt{x}.
	SqrtStage = Stage{Name: "sqrt", Apply: func(s string) string {
		return repeatCall(s, "sqrt", `\sqrt{`)
	}}

	FractionStage = Stage{Name: "fractions", Apply: func(s string) string {
		for {
			next, ok := convertFraction(s)
			if !ok {
				return s
			}
			s = next
		}
	}}
)

func repeatCall(s, name, prefix string) string {
	for {
		next, ok := callToBraces(s, name, prefix)
		if !ok {
			return s
		}
		s = next
	}
}

var blankRunRe = regexp.MustCompile(`[ \t]+`)

// multiplicationRules remove '*' where juxtaposition reads as a product. Two
// letters keep one space between them: \pir is not \pi r, and p*i must not
// turn into the identifier pi on the next run. A digit on the right would
// merge with what precedes it, so those products get an explicit \cdot.
var multiplicationRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`([A-Za-z])[ \t]*\*[ \t]*([A-Za-z])`), "$1 $2"},
	{regexp.MustCompile(`([0-9])[ \t]*\*[ \t]*([A-Za-z\\])`), "$1$2"},
	{regexp.MustCompile(`([A-Za-z])[ \t]*\*[ \t]*(\\)`), "$1$2"},
	{regexp.MustCompile(`\}[ \t]*\*[ \t]*([A-Za-z\\({])`), "}$1"},
	{regexp.MustCompile(`([0-9A-Za-z)}])[ \t]*\*[ \t]*([({])`), "$1$2"},
	{regexp.MustCompile(`\)[ \t]*\*[ \t]*([A-Za-z\\])`), ")$1"},
	{regexp.MustCompile(`([0-9A-Za-z)}])[ \t]*\*[ \t]*([0-9])`), `$1 \cdot $2`},
}

func juxtapose(s string) string {
	for _, r := range multiplicationRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// DefaultPipeline is the pipeline behind Rewrite.
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		GreekStage,
		PowerStage,
		FunctionStage,
		ConstantStage,
		MultiplicationStage,
		DifferentialStage,
		WhitespaceStage,
	)
}

// ExactPipeline is the pipeline behind FormatExactSolution. Fractions are found
// before function names are escaped.
func ExactPipeline() *Pipeline {
	return NewPipeline(
		GreekStage,
		SqrtStage,
		PowerStage,
		FractionStage,
		FunctionStage,
		ConstantStage,
		MultiplicationStage,
		DifferentialStage,
		WhitespaceStage,
	)
}

// SetupPipeline is used for integral setups, where square roots in bounds read
// better with a braced radicand.
func SetupPipeline() *Pipeline {
	return NewPipeline(
		GreekStage,
		SqrtStage,
		PowerStage,
		FunctionStage,
		ConstantStage,
		MultiplicationStage,
		DifferentialStage,
		WhitespaceStage,
	)
}

var (
	defaultPipeline = DefaultPipeline()
	exactPipeline   = ExactPipeline()
	setupPipeline   = SetupPipeline()
)

// Rewrite converts raw solver notation into LaTeX. It never fails and
// Rewrite(Rewrite(s)) == Rewrite(s).
func Rewrite(raw string) string {
	return defaultPipeline.Run(raw)
}

// FormatExactSolution rewrites an exact solution, turning a/b into \frac{a}{b}.
func FormatExactSolution(exact string) string {
	if exact == "" {
		return ""
	}
	return exactPipeline.Run(exact)
}
