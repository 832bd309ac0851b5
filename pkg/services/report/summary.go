package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/de-tools/redflag/pkg/models/domain"
)

const (
	// TopConcerns is the number of findings listed in a summary.
	TopConcerns = 5
	// SummaryDescriptionChars caps each description in a summary.
	SummaryDescriptionChars = 150
)

const summaryTemplate = `
=== DOCUMENT RISK ANALYSIS ===
Document: {{.DocumentID}}
Analyzed: {{.AnalyzedAt.Format "2006-01-02 15:04:05"}}
Processing Time: {{printf "%.2f" .ProcessingTimeSeconds}}s

OVERALL RISK: {{.Level}} ({{printf "%.2f" .OverallRiskScore}}/10)

FINDINGS SUMMARY:
- CRITICAL: {{.CriticalCount}}
- HIGH: {{.HighCount}}
- MEDIUM: {{.MediumCount}}
- LOW: {{.LowCount}}
- TOTAL: {{.TotalFlags}}
{{if .Top}}
TOP CONCERNS:
{{range $i, $f := .Top}}
{{inc $i}}. [{{$f.Severity}}] {{$f.Title}}
   {{short $f.Description}}
{{end}}{{end}}`

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"short": shortDescription,
}).Parse(summaryTemplate))

type summaryView struct {
	domain.Report
	Level string
	Top   []domain.Finding
}

// WriteSummary renders the human-readable summary of r to w.
func WriteSummary(w io.Writer, r domain.Report) error {
	top := r.Findings
	if len(top) > TopConcerns {
		top = top[:TopConcerns]
	}
	view := summaryView{Report: r, Level: RiskLevel(r.OverallRiskScore), Top: top}
	if err := summaryTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

// Summary returns the human-readable summary of r.
func Summary(r domain.Report) string {
	var b strings.Builder
	// strings.Builder never fails and the template only reads r.
	_ = WriteSummary(&b, r)
	return b.String()
}

func shortDescription(s string) string {
	cut := domain.TruncateRunes(s, SummaryDescriptionChars)
	if cut != s {
		return cut + "..."
	}
	return cut
}
