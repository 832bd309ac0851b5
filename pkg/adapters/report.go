package adapters

import (
	"github.com/de-tools/redflag/pkg/models/api"
	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/report"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityCritical:
		return api.SeverityCritical
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityLow:
		return api.SeverityLow
	default:
		return api.SeverityMedium
	}
}

func MapFindingDomainToApi(f domain.Finding) api.Flag {
	return api.Flag{
		Category:       string(f.Category),
		Severity:       MapSeverityDomainToApi(f.Severity),
		Title:          f.Title,
		Description:    f.Description,
		Location:       f.Location,
		Score:          f.Score,
		Source:         f.Source,
		Recommendation: f.Recommendation,
	}
}

func MapReportDomainToApi(r domain.Report) api.Report {
	res := api.Report{
		ID:                    r.ID,
		DocumentID:            r.DocumentID,
		AnalyzedAt:            r.AnalyzedAt,
		TotalFlags:            r.TotalFlags,
		CriticalCount:         r.CriticalCount,
		HighCount:             r.HighCount,
		MediumCount:           r.MediumCount,
		LowCount:              r.LowCount,
		OverallRiskScore:      r.OverallRiskScore,
		RiskLevel:             report.RiskLevel(r.OverallRiskScore),
		Flags:                 make([]api.Flag, 0, len(r.Findings)),
		ProcessingTimeSeconds: r.ProcessingTimeSeconds,
		Metadata: api.ReportMetadata{
			RuleFindingCount:     r.Metadata.RuleFindingCount,
			ExternalFindingCount: r.Metadata.ExternalFindingCount,
			DuplicatesRemoved:    r.Metadata.DuplicatesRemoved,
		},
	}
	for _, f := range r.Findings {
		res.Flags = append(res.Flags, MapFindingDomainToApi(f))
	}
	return res
}
