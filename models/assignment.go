package models

// Course describes the class an assignment belongs to.
type Course struct {
	Level int    `json:"level"`
	Name  string `json:"name,omitempty"`
}

// AssignmentInfo identifies the assignment; its fields fill the document header.
type AssignmentInfo struct {
	Type      string `json:"type"`
	Number    int    `json:"number"`
	Year      int    `json:"year"`
	Iteration int    `json:"iteration"`
}

// EquationFormat is the nested display block of output_settings.
type EquationFormat struct {
	ShowEquation      *bool `json:"show_equation,omitempty"`
	ShowQuantityLabel *bool `json:"show_quantity_label,omitempty"`
}

// OutputSettings are the assignment-wide display defaults.
type OutputSettings struct {
	Units            *string         `json:"units,omitempty"`
	DecimalPrecision *int            `json:"decimal_precision,omitempty"`
	ShowSteps        *bool           `json:"show_steps,omitempty"`
	EquationFormat   *EquationFormat `json:"equation_format,omitempty"`
}

type FileInfo struct {
	BaseName      string  `json:"base_name"`
	SourceFile    string  `json:"source_file"`
	GeneratedDate string  `json:"generated_date"`
	ProcessedDate *string `json:"processed_date"`
	Version       string  `json:"version"`
}

type ProcessingInfo struct {
	RunID               string   `json:"run_id,omitempty"`
	TotalExercises      int      `json:"total_exercises"`
	IndividualExercises int      `json:"individual_exercises"`
	GroupedExercises    int      `json:"grouped_exercises"`
	ExerciseTypes       []string `json:"exercise_types"`
	ProcessingTime      *string  `json:"processing_time"`
	Errors              []string `json:"errors"`
}

type Metadata struct {
	Course         Course          `json:"course"`
	Assignment     AssignmentInfo  `json:"assignment"`
	OutputSettings OutputSettings  `json:"output_settings"`
	FileInfo       *FileInfo       `json:"file_info,omitempty"`
	ProcessingInfo *ProcessingInfo `json:"processing_info,omitempty"`
}

// Assignment is both the input file and the enriched intermediate file.
type Assignment struct {
	Metadata  Metadata   `json:"metadata"`
	Exercises []Exercise `json:"exercises"`
}

// IsIntermediate reports whether the assignment was already produced by this tool.
func (a *Assignment) IsIntermediate() bool {
	return a.Metadata.FileInfo != nil
}
