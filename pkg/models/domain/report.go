package domain

import "time"

// Report is the aggregated outcome of one analysis run.
// It is built once by the aggregator and must not be modified afterwards.
type Report struct {
	ID                    string
	DocumentID            string
	AnalyzedAt            time.Time
	TotalFlags            int
	CriticalCount         int
	HighCount             int
	MediumCount           int
	LowCount              int
	OverallRiskScore      float64
	Findings              []Finding
	ProcessingTimeSeconds float64
	Metadata              ReportMetadata
}

// ReportMetadata records input volumes and how many duplicates were dropped.
type ReportMetadata struct {
	RuleFindingCount     int
	ExternalFindingCount int
	DuplicatesRemoved    int
}

// CountFor returns the number of findings in the given severity bucket.
func (r Report) CountFor(s Severity) int {
	switch s {
	case SeverityCritical:
		return r.CriticalCount
	case SeverityHigh:
		return r.HighCount
	case SeverityMedium:
		return r.MediumCount
	case SeverityLow:
		return r.LowCount
	}
	return 0
}
