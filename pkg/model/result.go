package model

import "time"

// CategoryCounts tallies nodes per query category, keyed by the lowercase
// category name ("annotation", "interface", "standard_class"), mirroring
// graph.Category without internal/model depending on internal/graph.
type CategoryCounts map[string]int

// ScanResult is the persisted-facing summary of one completed scan job: the
// Class Graph's shape, without the graph itself (the graph lives in
// internal/repository's row tables, or in memory for an unpersisted scan).
type ScanResult struct {
	JobUUID    string         `json:"job_uuid"`
	NodeCount  int            `json:"node_count"`
	EdgeCount  int            `json:"edge_count"`
	Categories CategoryCounts `json:"categories"`
	Warnings   []string       `json:"warnings,omitempty"`
	ScannedAt  time.Time      `json:"scanned_at"`
}

// NewScanResult creates an empty ScanResult for jobUUID, timestamped now.
func NewScanResult(jobUUID string) *ScanResult {
	return &ScanResult{
		JobUUID:    jobUUID,
		Categories: make(CategoryCounts),
		ScannedAt:  time.Now(),
	}
}

// AddWarning appends a deferred parser log line (a discarded or mismatched
// classfile) to the result's warning list.
func (r *ScanResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ScanRequest is what a scan job source (database poll or HTTP webhook)
// hands to internal/scanjobs' processor to drive a single Scanner.Scan call.
type ScanRequest struct {
	JobUUID string     `json:"job_uuid"`
	Roots   []string   `json:"roots"`
	Source  SourceKind `json:"source"`
	Params  ScanParams `json:"params"`
}
