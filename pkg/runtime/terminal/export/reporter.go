package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/report"
)

// Output formats understood by NewReporter.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Reporter renders one analysis report.
type Reporter interface {
	Handle(report domain.Report) error
}

// NewReporter returns the reporter for format, writing to writer.
func NewReporter(format string, writer io.Writer) (Reporter, error) {
	if writer == nil {
		writer = os.Stdout
	}
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewTableReporter(writer), nil
	case FormatJSON:
		return &JSONReporter{writer: writer}, nil
	case FormatYAML:
		return &YAMLReporter{writer: writer}, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

type TableConfig struct {
	SeverityWidth int
	ScoreWidth    int
	CategoryWidth int
	TitleWidth    int
	SourceWidth   int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		SeverityWidth: 8,
		ScoreWidth:    5,
		CategoryWidth: 18,
		TitleWidth:    48,
		SourceWidth:   16,
	}
}

// TableReporter prints the plain-text summary followed by every flag as a table row.
type TableReporter struct {
	writer io.Writer
	config TableConfig
}

func NewTableReporter(writer io.Writer) *TableReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &TableReporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *TableReporter) Handle(r domain.Report) error {
	if err := report.WriteSummary(c.writer, r); err != nil {
		return err
	}
	if len(r.Findings) == 0 {
		return nil
	}

	cell := func(s string, width int) string {
		return domain.TruncateRunes(strings.Join(strings.Fields(s), " "), width)
	}
	funcMap := template.FuncMap{
		"formatRow": func(severity, score, category, title, source string) string {
			return fmt.Sprintf("| %-*s | %*s | %-*s | %-*s | %-*s |",
				c.config.SeverityWidth, cell(severity, c.config.SeverityWidth),
				c.config.ScoreWidth, cell(score, c.config.ScoreWidth),
				c.config.CategoryWidth, cell(category, c.config.CategoryWidth),
				c.config.TitleWidth, cell(title, c.config.TitleWidth),
				c.config.SourceWidth, cell(source, c.config.SourceWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.SeverityWidth+2),
				strings.Repeat("-", c.config.ScoreWidth+2),
				strings.Repeat("-", c.config.CategoryWidth+2),
				strings.Repeat("-", c.config.TitleWidth+2),
				strings.Repeat("-", c.config.SourceWidth+2))
		},
		"str": func(v any) string { return fmt.Sprint(v) },
	}

	tmpl := `
ALL FLAGS:
{{separator}}
{{formatRow "Severity" "Score" "Category" "Title" "Source"}}
{{separator}}
{{range .Findings}}{{formatRow (str .Severity) (str .Score) (str .Category) .Title .Source}}
{{end}}{{separator}}
`

	t, err := template.New("flags").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, r)
}
