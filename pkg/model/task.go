// Package model defines the core data structures shared between a scan
// job's source (database poll or HTTP webhook), internal/scanjobs'
// processor, and the persisted record shapes internal/repository writes.
package model

import (
	"encoding/json"
	"time"
)

// SourceKind identifies where a ScanTask's classpath roots live.
type SourceKind int

const (
	SourceKindLocal SourceKind = 0 // local directory or zip archive
	SourceKindCOS   SourceKind = 1 // Tencent COS bucket object
)

// String returns the string representation of SourceKind.
func (k SourceKind) String() string {
	switch k {
	case SourceKindLocal:
		return "local"
	case SourceKindCOS:
		return "cos"
	default:
		return "unknown"
	}
}

// ScanStatus represents the lifecycle status of a scan job.
type ScanStatus int

const (
	ScanStatusPending   ScanStatus = 0
	ScanStatusRunning   ScanStatus = 1
	ScanStatusCompleted ScanStatus = 2
	ScanStatusFailed    ScanStatus = 3
)

// String returns the string representation of ScanStatus.
func (s ScanStatus) String() string {
	switch s {
	case ScanStatusPending:
		return "pending"
	case ScanStatusRunning:
		return "running"
	case ScanStatusCompleted:
		return "completed"
	case ScanStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ScanTask represents one scan job: a set of classpath roots to parse into
// the Class Graph, along with the scan parameters that govern the parse.
type ScanTask struct {
	ID            int64           `json:"id" db:"id"`
	JobUUID       string          `json:"job_uuid" db:"job_uuid"`
	Source        SourceKind      `json:"source" db:"source"`
	Status        ScanStatus      `json:"status" db:"status"`
	StatusInfo    string          `json:"status_info" db:"status_info"`
	Roots         []string        `json:"roots" db:"roots"`
	RequestParams ScanParams      `json:"request_params" db:"request_params"`
	CreateTime    time.Time       `json:"create_time" db:"create_time"`
	BeginTime     *time.Time      `json:"begin_time" db:"begin_time"`
	EndTime       *time.Time      `json:"end_time" db:"end_time"`
}

// ScanParams holds the per-task scan parameters that mirror
// pkg/config.ScanConfig but travel with an individual task so a source
// (database row or HTTP request) can override the process-wide defaults.
type ScanParams struct {
	Concurrency            int                 `json:"concurrency,omitempty"`
	IncludeNonPublicFields bool                `json:"include_non_public_fields,omitempty"`
	FieldsWanted           map[string][]string `json:"fields_wanted,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler for ScanParams using the
// standard alias-embedding trick, so future fields get default JSON
// decoding without needing to hand-write each case.
func (p *ScanParams) UnmarshalJSON(data []byte) error {
	type Alias ScanParams
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(p),
	}
	return json.Unmarshal(data, aux)
}

// IsHighPriority reports whether the task should be scheduled ahead of
// ordinary tasks: a task naming one to five classpath roots completes
// quickly enough to jump the queue. A task with no roots is not high priority.
func (t *ScanTask) IsHighPriority() bool {
	return len(t.Roots) > 0 && len(t.Roots) <= 5
}

// NewScanTask creates a new pending ScanTask instance.
func NewScanTask(id int64, jobUUID string, source SourceKind, roots []string) *ScanTask {
	return &ScanTask{
		ID:         id,
		JobUUID:    jobUUID,
		Source:     source,
		Status:     ScanStatusPending,
		Roots:      roots,
		CreateTime: time.Now(),
	}
}

// ScanTaskBuilder builds a ScanTask with a fluent interface.
type ScanTaskBuilder struct {
	task ScanTask
}

// NewScanTaskBuilder creates a new ScanTaskBuilder.
func NewScanTaskBuilder() *ScanTaskBuilder {
	return &ScanTaskBuilder{
		task: ScanTask{
			Status:     ScanStatusPending,
			CreateTime: time.Now(),
		},
	}
}

// WithJobUUID sets the job UUID.
func (b *ScanTaskBuilder) WithJobUUID(jobUUID string) *ScanTaskBuilder {
	b.task.JobUUID = jobUUID
	return b
}

// WithSource sets the classpath source kind.
func (b *ScanTaskBuilder) WithSource(source SourceKind) *ScanTaskBuilder {
	b.task.Source = source
	return b
}

// WithRoots sets the classpath roots to scan.
func (b *ScanTaskBuilder) WithRoots(roots ...string) *ScanTaskBuilder {
	b.task.Roots = roots
	return b
}

// WithParams sets the scan parameters.
func (b *ScanTaskBuilder) WithParams(params ScanParams) *ScanTaskBuilder {
	b.task.RequestParams = params
	return b
}

// Build returns the built ScanTask.
func (b *ScanTaskBuilder) Build() ScanTask {
	return b.task
}
