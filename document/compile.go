package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNoPDF is returned when pdflatex ran but produced no PDF.
var ErrNoPDF = errors.New("pdflatex produced no pdf")

// CompileOptions configure Compile.
type CompileOptions struct {
	// Pdflatex is the binary to run, "pdflatex" when empty.
	Pdflatex string
	// Passes defaults to 2 so references settle.
	Passes int
	Logger *zap.Logger
}

// Compile runs pdflatex next to texPath and returns the path of the PDF. The
// .aux and .log files are removed once a PDF exists.
func Compile(ctx context.Context, texPath string, opts CompileOptions) (string, error) {
	bin := opts.Pdflatex
	if bin == "" {
		bin = "pdflatex"
	}
	passes := opts.Passes
	if passes <= 0 {
		passes = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(texPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", texPath, err)
	}
	dir, name := filepath.Split(abs)
	base := strings.TrimSuffix(abs, filepath.Ext(abs))
	pdf := base + ".pdf"
	if err := os.Remove(pdf); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove stale pdf: %w", err)
	}
	for i := 0; i < passes; i++ {
		cmd := exec.CommandContext(ctx, bin, "-interaction=nonstopmode", "-halt-on-error", name)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return "", fmt.Errorf("run %s: %w", bin, err)
			}
			logger.Warn("pdflatex pass failed",
				zap.Int("pass", i+1),
				zap.Int("exit_code", exitErr.ExitCode()),
				zap.String("output_tail", tail(string(out), 800)))
		}
	}

	if _, err := os.Stat(pdf); err != nil {
		return "", fmt.Errorf("%s: %w", texPath, ErrNoPDF)
	}
	for _, ext := range []string{".aux", ".log"} {
		if err := os.Remove(base + ext); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("could not remove auxiliary file", zap.String("path", base+ext), zap.Error(err))
		}
	}
	logger.Info("pdf generated", zap.String("path", pdf))
	return pdf, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
