package document

import (
	"strconv"
	"strings"

	"github.com/korjavin/integralsheet/grouping"
	"github.com/korjavin/integralsheet/models"
)

const pageTemplate = `\documentclass[12pt]{article}
\usepackage[utf8]{inputenc}
\usepackage{amsmath}
\usepackage{geometry}
\usepackage{fancyhdr}
\usepackage{titling}
\usepackage{lmodern}
\geometry{letterpaper, margin=1in}
\pagestyle{fancy}
\fancyhf{}
\rhead{<<ASSIGNMENT_TYPE>> <<NUMBER>>}
\lhead{Solucionario}
\cfoot{\thepage}
\setlength{\droptitle}{-4em}
\title{\textbf{<<ASSIGNMENT_TYPE>> <<NUMBER>> \\[0.5em] \large Solucionario}}
\author{}
\date{}
\begin{document}
\maketitle
\section*{Resultados}
\everymath{\displaystyle}
\setlength{\jot}{10pt}
\begin{enumerate}
<<EXERCISES>>
\end{enumerate}
\end{document}
`

// Render produces the complete .tex source for an assignment.
func Render(meta models.Metadata, groups []*grouping.Group) string {
	return Fill(meta, RenderBody(groups))
}

// Fill substitutes the header fields and the exercise list into the page template.
func Fill(meta models.Metadata, body string) string {
	r := strings.NewReplacer(
		"<<ASSIGNMENT_TYPE>>", escapeText(meta.Assignment.Type),
		"<<NUMBER>>", strconv.Itoa(meta.Assignment.Number),
		"<<EXERCISES>>", body,
	)
	return r.Replace(pageTemplate)
}

var textEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
)

// escapeText makes free text from the input file safe for text mode.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
