// Package document turns grouped, solved exercises into a LaTeX answer sheet.
package document

import (
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/korjavin/integralsheet/grouping"
	"github.com/korjavin/integralsheet/latex"
	"github.com/korjavin/integralsheet/models"
	"github.com/korjavin/integralsheet/quantity"
)

// RenderBody renders one enumerate item per group, in group order.
// Groups share no state, so they are rendered concurrently.
func RenderBody(groups []*grouping.Group) string {
	items := make([]string, len(groups))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range groups {
		i, g := i, g
		eg.Go(func() error {
			items[i] = renderGroup(g)
			return nil
		})
	}
	_ = eg.Wait()
	return strings.Join(items, "\n")
}

func renderGroup(g *grouping.Group) string {
	var b strings.Builder
	b.WriteString("\\item \n\\begin{itemize}\n")
	for _, bk := range g.Buckets {
		if bk.Summed {
			writeLine(&b, label(bk.Letter, nil), summedLine(bk))
			continue
		}
		for _, rec := range bk.Records {
			writeLine(&b, label(rec.Letter(), rec.IDPart), recordLine(rec, !g.HasMultipleParts))
		}
	}
	b.WriteString("\\end{itemize}")
	return b.String()
}

func writeLine(b *strings.Builder, label, line string) {
	b.WriteString("    \\item[] ")
	b.WriteString(label)
	b.WriteString(line)
	b.WriteString("\n")
}

// label prints "a) ", "a.2) " or "2) " in bold.
func label(letter string, part *int) string {
	text := letter
	if part != nil {
		if text != "" {
			text += "."
		}
		text += strconv.Itoa(*part)
	}
	if text == "" {
		return ""
	}
	return `\textbf{` + text + `)} `
}

func summedLine(bk *grouping.Bucket) string {
	first := bk.Records[0]
	kind := kindOf(first)
	c := bk.Combined
	return "$" + quantityPrefix(first, kind) + solutionText(c.Exact, &c.Decimal, bk.Units(), kind, bk.Precision()) + "$"
}

func recordLine(rec *models.Exercise, equationAllowed bool) string {
	kind := kindOf(rec)
	var b strings.Builder
	b.WriteString("$")
	b.WriteString(quantityPrefix(rec, kind))
	if equationAllowed && showEquation(rec) {
		if setup := integralSetup(rec); setup != "" {
			b.WriteString(setup)
			b.WriteString(" = ")
		}
	}
	var decimal *float64
	if rec.Solution != nil {
		decimal = rec.Solution.Decimal
	}
	b.WriteString(solutionText(rec.Solution.ExactValue(), decimal, rec.Units(), kind, rec.Precision()))
	b.WriteString("$")
	return b.String()
}

func solutionText(exact string, decimal *float64, units string, kind quantity.Kind, precision int) string {
	var s string
	if kind == quantity.Unknown {
		s = latex.FormatSolutionUnitless(exact, decimal, precision)
	} else {
		s = latex.FormatSolution(exact, decimal, units, precision)
	}
	if s == latex.NotAvailable {
		return `\text{` + latex.NotAvailable + `}`
	}
	return s
}

func kindOf(rec *models.Exercise) quantity.Kind {
	return quantity.Kind(rec.Solution.Quantity())
}

func quantityPrefix(rec *models.Exercise, kind quantity.Kind) string {
	if rec.DisplaySettings == nil || !rec.DisplaySettings.ShowQuantityLabel {
		return ""
	}
	if l := quantity.Label(kind); l != "" {
		return l + " = "
	}
	return ""
}

func showEquation(rec *models.Exercise) bool {
	return rec.DisplaySettings != nil && rec.DisplaySettings.ShowEquation
}

// integralSetup prefers the setup stored by the solver stage.
func integralSetup(rec *models.Exercise) string {
	if rec.LaTeX != nil && rec.LaTeX.IntegralSetup != nil && *rec.LaTeX.IntegralSetup != "" {
		return latex.Rewrite(*rec.LaTeX.IntegralSetup)
	}
	return latex.IntegralSetup(rec)
}
