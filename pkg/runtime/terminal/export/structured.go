package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/de-tools/redflag/pkg/adapters"
	"github.com/de-tools/redflag/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

// JSONReporter writes the API representation of a report as indented JSON.
type JSONReporter struct {
	writer io.Writer
}

func (j *JSONReporter) Handle(report domain.Report) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(adapters.MapReportDomainToApi(report)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// YAMLReporter writes reports as a stream of YAML documents.
type YAMLReporter struct {
	writer io.Writer
}

func (y *YAMLReporter) Handle(report domain.Report) error {
	enc := yaml.NewEncoder(y.writer)
	enc.SetIndent(2)
	if err := enc.Encode(adapters.MapReportDomainToApi(report)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
