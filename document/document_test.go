package document

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/integralsheet/grouping"
	"github.com/korjavin/integralsheet/models"
)

func exercise(id string, decimal float64) models.Exercise {
	return models.Exercise{
		ID:        models.ID(id),
		Function:  "1",
		Integrals: []models.Integral{{Variable: "x", Limits: models.Limits{Lower: "0", Upper: "1"}, Order: 1}, {Variable: "y", Limits: models.Limits{Lower: "0", Upper: "1"}, Order: 2}},
		Solution: &models.Solution{
			Exact:        models.StringPtr("1"),
			Decimal:      models.FloatPtr(decimal),
			QuantityType: models.StringPtr("Area"),
			Units:        models.StringPtr("u^2"),
		},
		DisplaySettings: &models.DisplaySettings{Units: "u", DecimalPrecision: 4},
	}
}

func TestRenderBody_SummedParts(t *testing.T) {
	groups := grouping.ByID([]models.Exercise{exercise("4", 1.5), exercise("4", 2.25)})

	body := RenderBody(groups)

	assert.Contains(t, body, `\item[] $1.5000 + 2.2500 = 3.7500 \ \text{u}^{2}$`)
	assert.Equal(t, 1, strings.Count(body, `\item[]`))
}

func TestRenderBody_EquationAndLabel(t *testing.T) {
	ex := models.Exercise{
		ID:       "1",
		Function: "r",
		Integrals: []models.Integral{
			{Variable: "r", Limits: models.Limits{Lower: "0", Upper: "1"}, Order: 1},
			{Variable: "theta", Limits: models.Limits{Lower: "0", Upper: "2*pi"}, Order: 2},
		},
		CoordinateSystem: models.Polar,
		Solution: &models.Solution{
			Exact:        models.StringPtr("pi"),
			Decimal:      models.FloatPtr(3.14159265),
			QuantityType: models.StringPtr("Area"),
			Units:        models.StringPtr("u^2"),
		},
		DisplaySettings: &models.DisplaySettings{Units: "u", DecimalPrecision: 4, ShowEquation: true, ShowQuantityLabel: true},
	}

	body := RenderBody(grouping.ByID([]models.Exercise{ex}))

	want := "\\item \n\\begin{itemize}\n" +
		`    \item[] $A = \int_{0}^{2\pi} \int_{0}^{1} r \, dr d\theta = \pi = 3.1416 \ \text{u}^{2}$` + "\n" +
		`\end{itemize}`
	assert.Equal(t, want, body)
}

func TestRenderBody_NoEquationForMultiPart(t *testing.T) {
	a := exercise("2", 1)
	a.IDLetter = models.StringPtr("a")
	a.DisplaySettings.ShowEquation = true
	b := exercise("2", 2)
	b.IDLetter = models.StringPtr("b")
	b.DisplaySettings.ShowEquation = true

	body := RenderBody(grouping.ByID([]models.Exercise{b, a}))

	assert.NotContains(t, body, `\int`)
	ia := strings.Index(body, `\textbf{a)}`)
	ib := strings.Index(body, `\textbf{b)}`)
	require.True(t, ia >= 0 && ib >= 0, body)
	assert.Less(t, ia, ib)
}

func TestRenderBody_MissingSolution(t *testing.T) {
	ex := exercise("3", 0)
	ex.Solution = &models.Solution{}
	body := RenderBody(grouping.ByID([]models.Exercise{ex}))
	assert.Contains(t, body, `$\text{N/A}$`)
}

func TestRenderBody_UnknownQuantityHasNoUnits(t *testing.T) {
	ex := exercise("5", 0.5)
	ex.Solution.Exact = models.StringPtr("1/2")
	ex.Solution.QuantityType = nil
	ex.Solution.Units = nil
	body := RenderBody(grouping.ByID([]models.Exercise{ex}))
	assert.Contains(t, body, `$\frac{1}{2} = 0.5000$`)
	assert.NotContains(t, body, `\text{u}`)
}

func TestRenderBody_GroupOrder(t *testing.T) {
	var records []models.Exercise
	for _, id := range []string{"10", "2", "1", "3"} {
		n, err := strconv.Atoi(id)
		require.NoError(t, err)
		records = append(records, exercise(id, float64(n)))
	}
	body := RenderBody(grouping.ByID(records))
	require.Equal(t, 4, strings.Count(body, `\begin{itemize}`))

	pos := make([]int, 0, 4)
	for _, value := range []string{"= 1.0000 ", "= 2.0000 ", "= 3.0000 ", "= 10.0000 "} {
		i := strings.Index(body, value)
		require.GreaterOrEqual(t, i, 0, "missing %q", value)
		pos = append(pos, i)
	}
	assert.IsIncreasing(t, pos)
	assert.Empty(t, RenderBody(nil))
}

func TestRender(t *testing.T) {
	meta := models.Metadata{
		Course:     models.Course{Level: 3},
		Assignment: models.AssignmentInfo{Type: "Tarea", Number: 18, Year: 2025, Iteration: 1},
	}
	doc := Render(meta, grouping.ByID([]models.Exercise{exercise("1", 1)}))

	assert.Contains(t, doc, `\rhead{Tarea 18}`)
	assert.Contains(t, doc, `\title{\textbf{Tarea 18 \\[0.5em] \large Solucionario}}`)
	assert.Contains(t, doc, `\everymath{\displaystyle}`)
	assert.Contains(t, doc, "\\begin{enumerate}\n\\item \n")
	assert.NotContains(t, doc, "<<")
}

func TestFill_EscapesHeaderText(t *testing.T) {
	doc := Fill(models.Metadata{Assignment: models.AssignmentInfo{Type: "Tarea_#1", Number: 2}}, "")
	assert.Contains(t, doc, `\rhead{Tarea\_\#1 2}`)
}

func fakePdflatex(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for pdflatex")
	}
	path := filepath.Join(t.TempDir(), "pdflatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCompile(t *testing.T) {
	bin := fakePdflatex(t, `for last; do :; done
base="${last%.tex}"
: > "$base.pdf"
: > "$base.aux"
: > "$base.log"
`)
	dir := t.TempDir()
	tex := filepath.Join(dir, "sheet.tex")
	require.NoError(t, os.WriteFile(tex, []byte(`\documentclass{article}`), 0o644))

	pdf, err := Compile(context.Background(), tex, CompileOptions{Pdflatex: bin})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sheet.pdf"), pdf)
	assert.FileExists(t, pdf)
	assert.NoFileExists(t, filepath.Join(dir, "sheet.aux"))
	assert.NoFileExists(t, filepath.Join(dir, "sheet.log"))
}

func TestCompile_NoPDF(t *testing.T) {
	bin := fakePdflatex(t, "exit 1\n")
	tex := filepath.Join(t.TempDir(), "broken.tex")
	require.NoError(t, os.WriteFile(tex, nil, 0o644))

	_, err := Compile(context.Background(), tex, CompileOptions{Pdflatex: bin})
	assert.ErrorIs(t, err, ErrNoPDF)
}

func TestCompile_MissingBinary(t *testing.T) {
	tex := filepath.Join(t.TempDir(), "a.tex")
	_, err := Compile(context.Background(), tex, CompileOptions{Pdflatex: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPDF)
}
