// Package pipeline runs an assignment through solving, classification and
// typesetting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/korjavin/integralsheet/cas"
	"github.com/korjavin/integralsheet/config"
	"github.com/korjavin/integralsheet/database"
	"github.com/korjavin/integralsheet/document"
	"github.com/korjavin/integralsheet/grouping"
	"github.com/korjavin/integralsheet/latex"
	"github.com/korjavin/integralsheet/models"
	"github.com/korjavin/integralsheet/quantity"
)

const fileVersion = "1.0"

// Store caches solutions and keeps the run history. *database.DB implements it.
type Store interface {
	GetCachedSolution(key string) (exact string, decimal *float64, ok bool, err error)
	CacheSolution(key, exact string, decimal *float64) error
	SaveRun(run models.Run) error
}

// Processor solves assignments.
type Processor struct {
	cfg        *config.Config
	integrator cas.Integrator
	store      Store
	logger     *zap.Logger
	now        func() time.Time
}

// NewProcessor wires a processor. store may be nil, which disables caching
// and run history.
func NewProcessor(cfg *config.Config, integrator cas.Integrator, store Store, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		cfg:        cfg,
		integrator: integrator,
		store:      store,
		logger:     logger.Named("pipeline"),
		now:        time.Now,
	}
}

// Process solves every exercise of a and returns the intermediate assignment.
// A broken exercise is kept with an empty solution and reported in
// processing_info.errors; it never stops the others. Output order equals
// input order.
func (p *Processor) Process(ctx context.Context, a *models.Assignment, source string) (*models.Assignment, error) {
	runID := uuid.NewString()
	start := p.now()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("source", source))
	logger.Info("processing assignment", zap.Int("exercises", len(a.Exercises)))

	settings := DisplaySettings(p.cfg.Display, a.Metadata.OutputSettings)
	exercises := make([]models.Exercise, len(a.Exercises))
	failures := make([]error, len(a.Exercises))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(p.cfg.Workers, 1))
	for i := range a.Exercises {
		i := i
		eg.Go(func() error {
			ex, err := p.processExercise(egCtx, a.Exercises[i], settings)
			if err != nil {
				logger.Warn("exercise failed", zap.String("id", string(a.Exercises[i].ID)), zap.Error(err))
				failures[i] = err
			}
			exercises[i] = ex
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs := []string{}
	for i, err := range failures {
		if err != nil {
			errs = append(errs, fmt.Sprintf("Error in exercise %s: %v", exerciseName(a.Exercises[i]), err))
		}
	}

	elapsed := p.now().Sub(start)
	out := &models.Assignment{Metadata: a.Metadata, Exercises: exercises}
	today := start.Format("2006-01-02")
	out.Metadata.FileInfo = &models.FileInfo{
		BaseName:      GenerateFilename(a.Metadata, ""),
		SourceFile:    filepath.Base(source),
		GeneratedDate: today,
		ProcessedDate: &today,
		Version:       fileVersion,
	}
	individual, grouped := grouping.Stats(grouping.ByID(exercises))
	elapsedText := fmt.Sprintf("%.2fs", elapsed.Seconds())
	out.Metadata.ProcessingInfo = &models.ProcessingInfo{
		RunID:               runID,
		TotalExercises:      len(exercises),
		IndividualExercises: individual,
		GroupedExercises:    grouped,
		ExerciseTypes:       exerciseTypes(exercises),
		ProcessingTime:      &elapsedText,
		Errors:              errs,
	}

	if p.store != nil {
		run := models.Run{
			ID:        runID,
			Source:    filepath.Base(source),
			StartedAt: start,
			Duration:  elapsed,
			Total:     len(exercises),
			Failed:    len(errs),
			Errors:    errs,
		}
		if err := p.store.SaveRun(run); err != nil {
			logger.Warn("could not record run", zap.Error(err))
		}
	}
	logger.Info("assignment processed",
		zap.Duration("took", elapsed),
		zap.Int("errors", len(errs)))
	return out, nil
}

func exerciseName(ex models.Exercise) string {
	if ex.ID == "" {
		return "unknown"
	}
	return string(ex.ID) + ex.Letter()
}

func exerciseTypes(exercises []models.Exercise) []string {
	seen := map[string]bool{}
	var types []string
	for _, ex := range exercises {
		t := ex.Type
		if t == "" {
			t = "integral"
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Strings(types)
	if types == nil {
		types = []string{}
	}
	return types
}

// processExercise enriches one exercise. On error the returned exercise
// still carries display settings so it can be typeset as not available.
func (p *Processor) processExercise(ctx context.Context, ex models.Exercise, settings models.DisplaySettings) (models.Exercise, error) {
	ex.DisplaySettings = &settings
	if err := ex.Validate(); err != nil {
		return emptyExercise(ex), err
	}
	if ex.CoordinateSystem == "" {
		ex.CoordinateSystem = quantity.DetectSystem(ex.Variables())
	}

	kind, _ := quantity.Classify(ex.Function, ex.CoordinateSystem, len(ex.Integrals))
	sol := &models.Solution{}
	if kind != quantity.Unknown {
		sol.QuantityType = models.StringPtr(string(kind))
		sol.Units = models.StringPtr(quantity.Units(settings.Units, kind))
	}
	ex.Solution = sol
	method := "symbolic"
	ex.ComputationDetails = &models.ComputationDetails{IntegrationMethod: &method}
	ex.LaTeX = &models.LaTeXContent{IntegralSetup: models.StringPtr(latex.IntegralSetup(&ex))}

	exact, decimal, err := p.solve(ctx, &ex)
	if err != nil {
		return ex, err
	}
	sol.Exact = &exact
	sol.Decimal = decimal
	if decimal != nil {
		var final string
		if kind == quantity.Unknown {
			final = latex.FormatSolutionUnitless(exact, decimal, settings.DecimalPrecision)
		} else {
			final = latex.FormatSolution(exact, decimal, *sol.Units, settings.DecimalPrecision)
		}
		ex.LaTeX.FinalResult = &final
	}
	return ex, nil
}

var errNoDecimal = errors.New("solution has no numeric value")

// solve consults the cache before asking the CAS. Solutions without a numeric
// value are rejected so that exact and decimal are always set together.
func (p *Processor) solve(ctx context.Context, ex *models.Exercise) (string, *float64, error) {
	key := database.CacheKey(ex)
	if p.store != nil {
		exact, decimal, ok, err := p.store.GetCachedSolution(key)
		switch {
		case err != nil:
			p.logger.Warn("solution cache lookup failed", zap.Error(err))
		case ok && decimal != nil:
			p.logger.Debug("solution cache hit", zap.String("id", string(ex.ID)))
			return exact, decimal, nil
		}
	}
	if p.integrator == nil {
		return "", nil, errors.New("no integrator configured")
	}

	res, err := cas.SolveIterated(ctx, p.integrator, ex.Function, ex.Integrals)
	if err != nil {
		return "", nil, err
	}
	if res.Decimal == nil {
		return "", nil, errNoDecimal
	}
	if p.store != nil {
		if err := p.store.CacheSolution(key, res.Exact, res.Decimal); err != nil {
			p.logger.Warn("could not cache solution", zap.Error(err))
		}
	}
	return res.Exact, res.Decimal, nil
}

// emptyExercise keeps the input fields and nulls everything derived.
func emptyExercise(ex models.Exercise) models.Exercise {
	ex.CoordinateSystem = ""
	ex.Solution = &models.Solution{}
	ex.LaTeX = &models.LaTeXContent{}
	ex.ComputationDetails = &models.ComputationDetails{}
	return ex
}

// Output lists the files Generate wrote. PDF is empty when compilation was
// disabled or failed.
type Output struct {
	Assignment   *models.Assignment
	Intermediate string
	TeX          string
	PDF          string
}

// Generate processes the assignment at inputPath, saves the intermediate JSON
// into the temp directory and the .tex (and optionally .pdf) into the output
// directory.
func (p *Processor) Generate(ctx context.Context, inputPath string, compile bool) (*Output, error) {
	a, err := LoadAssignment(inputPath)
	if err != nil {
		return nil, err
	}
	if a.IsIntermediate() {
		p.logger.Warn("input looks like an intermediate file", zap.String("path", inputPath))
	}

	processed, err := p.Process(ctx, a, inputPath)
	if err != nil {
		return nil, err
	}
	out := &Output{Assignment: processed}

	out.Intermediate = filepath.Join(p.cfg.Output.TempDir, GenerateFilename(processed.Metadata, "json"))
	if err := SaveJSON(out.Intermediate, processed); err != nil {
		return nil, fmt.Errorf("save intermediate json: %w", err)
	}

	if err := os.MkdirAll(p.cfg.Output.Dir, 0755); err != nil {
		return nil, err
	}
	out.TeX = filepath.Join(p.cfg.Output.Dir, GenerateFilename(processed.Metadata, "tex"))
	tex := document.Render(processed.Metadata, grouping.ByID(processed.Exercises))
	if err := os.WriteFile(out.TeX, []byte(tex), 0644); err != nil {
		return nil, fmt.Errorf("write tex: %w", err)
	}
	p.logger.Info("latex generated", zap.String("path", out.TeX))

	if compile {
		pdf, err := document.Compile(ctx, out.TeX, document.CompileOptions{
			Pdflatex: p.cfg.Output.PdflatexPath,
			Logger:   p.logger,
		})
		if err != nil {
			p.logger.Warn("pdf compilation failed", zap.Error(err))
		} else {
			out.PDF = pdf
		}
	}
	return out, nil
}
