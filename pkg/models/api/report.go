package api

import "time"

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

type Flag struct {
	Category       string   `json:"category" yaml:"category"`
	Severity       Severity `json:"severity" yaml:"severity"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Location       string   `json:"location" yaml:"location"`
	Score          int      `json:"score" yaml:"score"`
	Source         string   `json:"source" yaml:"source"`
	Recommendation string   `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

type ReportMetadata struct {
	RuleFindingCount     int `json:"rule_finding_count" yaml:"rule_finding_count"`
	ExternalFindingCount int `json:"external_finding_count" yaml:"external_finding_count"`
	DuplicatesRemoved    int `json:"duplicates_removed" yaml:"duplicates_removed"`
}

type Report struct {
	ID                    string         `json:"id" yaml:"id"`
	DocumentID            string         `json:"document_id" yaml:"document_id"`
	AnalyzedAt            time.Time      `json:"analyzed_at" yaml:"analyzed_at"`
	TotalFlags            int            `json:"total_flags" yaml:"total_flags"`
	CriticalCount         int            `json:"critical_count" yaml:"critical_count"`
	HighCount             int            `json:"high_count" yaml:"high_count"`
	MediumCount           int            `json:"medium_count" yaml:"medium_count"`
	LowCount              int            `json:"low_count" yaml:"low_count"`
	OverallRiskScore      float64        `json:"overall_risk_score" yaml:"overall_risk_score"`
	RiskLevel             string         `json:"risk_level" yaml:"risk_level"`
	Flags                 []Flag         `json:"flags" yaml:"flags"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds" yaml:"processing_time_seconds"`
	Metadata              ReportMetadata `json:"metadata" yaml:"metadata"`
}

type BatchStatus string

const (
	BatchStatusSuccess BatchStatus = "success"
	BatchStatusFailed  BatchStatus = "failed"
)

type BatchItem struct {
	Filename string      `json:"filename"`
	Status   BatchStatus `json:"status"`
	Result   *Report     `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

type HealthResponse struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Services map[string]bool `json:"services"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
