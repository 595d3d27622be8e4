package repository

import (
	"time"

	"github.com/classgraph/classgraph/internal/graph"
)

// ClassNodeRow represents one row of the class_nodes table: the merged,
// post-link view of a single Class Graph node, scoped to the scan job that
// produced it.
type ClassNodeRow struct {
	JobUUID             string `gorm:"column:job_uuid;type:varchar(64);primaryKey"`
	Name                string `gorm:"column:name;type:varchar(512);primaryKey"`
	IsInterface         bool   `gorm:"column:is_interface"`
	IsAnnotation        bool   `gorm:"column:is_annotation"`
	ClassfileScanned    bool   `gorm:"column:classfile_scanned"`
	CompanionScanned    bool   `gorm:"column:companion_scanned"`
	TraitMethodsScanned bool   `gorm:"column:trait_methods_scanned"`
}

// TableName returns the table name for ClassNodeRow.
func (ClassNodeRow) TableName() string {
	return "class_nodes"
}

// ClassEdgeRow represents one row of the class_edges table: a single
// outgoing relation from one node to another. Only the four relation kinds
// a classfile record actually produces (SUPERCLASS, IMPLEMENTED_INTERFACE,
// ANNOTATION, FIELD_TYPE) are stored; their inverses are derived by the
// linker when the graph is reloaded.
type ClassEdgeRow struct {
	ID       int64              `gorm:"column:id;primaryKey;autoIncrement"`
	JobUUID  string             `gorm:"column:job_uuid;type:varchar(64);index:idx_edge_job"`
	FromName string             `gorm:"column:from_name;type:varchar(512);index:idx_edge_job"`
	ToName   string             `gorm:"column:to_name;type:varchar(512)"`
	Relation graph.RelationKind `gorm:"column:relation"`
}

// TableName returns the table name for ClassEdgeRow.
func (ClassEdgeRow) TableName() string {
	return "class_edges"
}

// ClassFieldValueRow represents one row of the class_field_values table: a
// single static final field's coerced constant value. Exactly one of the
// value columns is meaningful, selected by Kind, mirroring classfile.Constant.
type ClassFieldValueRow struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	JobUUID    string  `gorm:"column:job_uuid;type:varchar(64);index:idx_field_job"`
	ClassName  string  `gorm:"column:class_name;type:varchar(512);index:idx_field_job"`
	FieldName  string  `gorm:"column:field_name;type:varchar(256)"`
	Kind       int     `gorm:"column:kind"`
	StrValue   string  `gorm:"column:str_value;type:text"`
	BoolValue  bool    `gorm:"column:bool_value"`
	Int64Value int64   `gorm:"column:int64_value"`
	CharValue  int     `gorm:"column:char_value"`
	Float64    float64 `gorm:"column:float64_value"`
}

// TableName returns the table name for ClassFieldValueRow.
func (ClassFieldValueRow) TableName() string {
	return "class_field_values"
}

// ScanJobRow records that a scan job's graph was persisted, for ListJobs.
type ScanJobRow struct {
	JobUUID   string    `gorm:"column:job_uuid;type:varchar(64);primaryKey"`
	NodeCount int       `gorm:"column:node_count"`
	SavedAt   time.Time `gorm:"column:saved_at;autoCreateTime"`
}

// TableName returns the table name for ScanJobRow.
func (ScanJobRow) TableName() string {
	return "scan_jobs"
}

// ScanTaskRow is the queued-job table a database-backed scan job source
// polls: one row per submitted scan request, with the classpath roots and
// scan parameters serialized as JSON so the schema doesn't grow a column
// per parameter.
type ScanTaskRow struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	JobUUID       string     `gorm:"column:job_uuid;type:varchar(64);uniqueIndex"`
	Source        int        `gorm:"column:source"`
	Status        int        `gorm:"column:status;index:idx_task_status"`
	StatusInfo    string     `gorm:"column:status_info;type:text"`
	RootsJSON     string     `gorm:"column:roots_json;type:text"`
	ParamsJSON    string     `gorm:"column:params_json;type:text"`
	CreateTime    time.Time  `gorm:"column:create_time;autoCreateTime"`
	BeginTime     *time.Time `gorm:"column:begin_time"`
	EndTime       *time.Time `gorm:"column:end_time"`
	LockedBy      string     `gorm:"column:locked_by"`
}

// TableName returns the table name for ScanTaskRow.
func (ScanTaskRow) TableName() string {
	return "scan_tasks"
}
