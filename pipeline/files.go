package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/korjavin/integralsheet/models"
)

// LoadAssignment reads an input or intermediate assignment file.
func LoadAssignment(path string) (*models.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assignment: %w", err)
	}
	return ParseAssignment(data)
}

// ParseAssignment decodes an assignment from JSON.
func ParseAssignment(data []byte) (*models.Assignment, error) {
	var a models.Assignment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid assignment json: %w", err)
	}
	return &a, nil
}

// SaveJSON writes v as indented JSON, creating parent directories.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// GenerateFilename names output files after the assignment, e.g.
// C3_2025_T18_integrales_v1.tex. An empty ext gives the bare name.
func GenerateFilename(meta models.Metadata, ext string) string {
	initial := ""
	if r, _ := utf8.DecodeRuneInString(meta.Assignment.Type); r != utf8.RuneError {
		initial = string(r)
	}
	name := fmt.Sprintf("C%d_%d_%s%d_integrales_v%d",
		meta.Course.Level, meta.Assignment.Year, initial, meta.Assignment.Number, meta.Assignment.Iteration)
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return name
}
