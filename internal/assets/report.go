package assets

import (
	_ "embed"
	"fmt"
	"io"
	"time"

	"github.com/at-ishikawa/spellingtrainer/internal/result"
)

const resultReportTemplateName = "result-report.md.go.tmpl"

//go:embed templates/result-report.md.go.tmpl
var fallbackResultReportTemplate string

// ResultReport is the data of a finished session rendered into markdown.
type ResultReport struct {
	StartRange  int
	EndRange    int
	CompletedAt time.Time
	Duration    string
	Stats       result.Stats
	Incorrect   []result.WordMistakeStats
	Correct     []result.WordMistakeStats
}

// WriteResultReport renders report with the template at templatePath,
// or with the embedded template when the path is empty or cannot be parsed.
func WriteResultReport(output io.Writer, templatePath string, report ResultReport) error {
	tmpl, err := parseTemplateWithFallback(templatePath, resultReportTemplateName, fallbackResultReportTemplate)
	if err != nil {
		return fmt.Errorf("parseTemplateWithFallback() > %w", err)
	}
	if err := tmpl.Execute(output, report); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}
