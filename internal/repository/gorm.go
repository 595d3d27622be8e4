package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/intern"
)

// canonicalRelations are the only relation kinds persisted as edges; every
// other kind is the linker-derived inverse of one of these.
var canonicalRelations = []graph.RelationKind{
	graph.RelSuperclass,
	graph.RelImplementedInterface,
	graph.RelAnnotation,
	graph.RelFieldType,
}

// GormGraphRepository implements GraphRepository using GORM.
type GormGraphRepository struct {
	db *gorm.DB
}

// NewGormGraphRepository creates a new GormGraphRepository.
func NewGormGraphRepository(db *gorm.DB) *GormGraphRepository {
	return &GormGraphRepository{db: db}
}

// AutoMigrate creates or updates the class graph tables.
func (r *GormGraphRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ClassNodeRow{}, &ClassEdgeRow{}, &ClassFieldValueRow{}, &ScanJobRow{})
}

// SaveGraph persists g's merged node view under jobUUID inside one
// transaction, replacing anything previously saved under that UUID.
func (r *GormGraphRepository) SaveGraph(ctx context.Context, jobUUID string, g *graph.Graph) error {
	nodes := g.Nodes()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteJob(tx, jobUUID); err != nil {
			return err
		}

		nodeRows := make([]ClassNodeRow, 0, len(nodes))
		var edgeRows []ClassEdgeRow
		var fieldRows []ClassFieldValueRow

		for _, n := range nodes {
			nodeRows = append(nodeRows, ClassNodeRow{
				JobUUID:             jobUUID,
				Name:                n.Name,
				IsInterface:         n.IsInterface,
				IsAnnotation:        n.IsAnnotation,
				ClassfileScanned:    n.ClassfileScanned,
				CompanionScanned:    n.CompanionScanned,
				TraitMethodsScanned: n.TraitMethodsScanned,
			})

			for _, relation := range canonicalRelations {
				for _, target := range n.Direct(relation) {
					edgeRows = append(edgeRows, ClassEdgeRow{
						JobUUID:  jobUUID,
						FromName: n.Name,
						ToName:   target.Name,
						Relation: relation,
					})
				}
			}

			for fieldName, val := range n.FieldValues {
				fieldRows = append(fieldRows, constantToRow(jobUUID, n.Name, fieldName, val))
			}
		}

		if len(nodeRows) > 0 {
			if err := tx.CreateInBatches(nodeRows, 500).Error; err != nil {
				return fmt.Errorf("save class nodes: %w", err)
			}
		}
		if len(edgeRows) > 0 {
			if err := tx.CreateInBatches(edgeRows, 500).Error; err != nil {
				return fmt.Errorf("save class edges: %w", err)
			}
		}
		if len(fieldRows) > 0 {
			if err := tx.CreateInBatches(fieldRows, 500).Error; err != nil {
				return fmt.Errorf("save field values: %w", err)
			}
		}

		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&ScanJobRow{
			JobUUID:   jobUUID,
			NodeCount: len(nodeRows),
		}).Error
	})
}

// LoadGraph reconstructs the Class Graph saved under jobUUID by replaying a
// synthetic classfile.Record per scanned aux form of every node through a
// fresh linker. Relation sets and field-value maps are upsert-by-key, so
// replaying the same payload under more than one aux-suffixed name (when a
// node has both a main class and a Scala companion scanned) is idempotent.
func (r *GormGraphRepository) LoadGraph(ctx context.Context, jobUUID string) (*graph.Graph, error) {
	var nodeRows []ClassNodeRow
	if err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).Find(&nodeRows).Error; err != nil {
		return nil, fmt.Errorf("load class nodes: %w", err)
	}
	if len(nodeRows) == 0 {
		return nil, fmt.Errorf("no class graph saved for job %s", jobUUID)
	}

	var edgeRows []ClassEdgeRow
	if err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).Find(&edgeRows).Error; err != nil {
		return nil, fmt.Errorf("load class edges: %w", err)
	}
	var fieldRows []ClassFieldValueRow
	if err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).Find(&fieldRows).Error; err != nil {
		return nil, fmt.Errorf("load field values: %w", err)
	}

	edgesByFrom := make(map[string][]ClassEdgeRow, len(nodeRows))
	for _, e := range edgeRows {
		edgesByFrom[e.FromName] = append(edgesByFrom[e.FromName], e)
	}
	fieldsByClass := make(map[string][]ClassFieldValueRow, len(nodeRows))
	for _, f := range fieldRows {
		fieldsByClass[f.ClassName] = append(fieldsByClass[f.ClassName], f)
	}

	g := graph.New(intern.New(), nil)

	for _, row := range nodeRows {
		rec := buildRecord(row, edgesByFrom[row.Name], fieldsByClass[row.Name])

		for _, suffix := range scannedSuffixes(row) {
			recCopy := *rec
			recCopy.ClassName = row.Name + suffix
			if err := g.Link(&recCopy); err != nil {
				return nil, fmt.Errorf("relink %s: %w", recCopy.ClassName, err)
			}
		}
	}

	return g, nil
}

// scannedSuffixes returns the raw-name suffixes to replay Link under, one
// per aux form the row recorded as scanned. A node with nothing scanned
// (a pure external reference) needs no replay call of its own; it is
// recreated implicitly by whichever node's edges point at it.
func scannedSuffixes(row ClassNodeRow) []string {
	var suffixes []string
	if row.ClassfileScanned {
		suffixes = append(suffixes, "")
	}
	if row.CompanionScanned {
		suffixes = append(suffixes, "$")
	}
	if row.TraitMethodsScanned {
		suffixes = append(suffixes, "$class")
	}
	return suffixes
}

func buildRecord(row ClassNodeRow, edges []ClassEdgeRow, fields []ClassFieldValueRow) *classfile.Record {
	rec := classfile.NewRecord(row.Name)
	rec.IsInterface = row.IsInterface
	rec.IsAnnotation = row.IsAnnotation

	for _, e := range edges {
		switch e.Relation {
		case graph.RelSuperclass:
			rec.SuperclassName = e.ToName
		case graph.RelImplementedInterface:
			rec.ImplementedInterfaces = append(rec.ImplementedInterfaces, e.ToName)
		case graph.RelAnnotation:
			rec.Annotations = append(rec.Annotations, e.ToName)
		case graph.RelFieldType:
			if rec.FieldTypes == nil {
				rec.FieldTypes = make(map[string]struct{})
			}
			rec.FieldTypes[e.ToName] = struct{}{}
		}
	}

	for _, f := range fields {
		rec.StaticFinalFieldValues[f.FieldName] = rowToConstant(f)
	}

	return rec
}

func constantToRow(jobUUID, className, fieldName string, c classfile.Constant) ClassFieldValueRow {
	row := ClassFieldValueRow{
		JobUUID:   jobUUID,
		ClassName: className,
		FieldName: fieldName,
		Kind:      int(c.Kind),
	}
	switch c.Kind {
	case classfile.KindString:
		row.StrValue = c.Str
	case classfile.KindBool:
		row.BoolValue = c.Bool
	case classfile.KindInt8:
		row.Int64Value = int64(c.Int8)
	case classfile.KindInt16:
		row.Int64Value = int64(c.Int16)
	case classfile.KindChar:
		row.CharValue = int(c.Char)
	case classfile.KindInt32:
		row.Int64Value = int64(c.Int32)
	case classfile.KindInt64:
		row.Int64Value = c.Int64
	case classfile.KindFloat32:
		row.Float64 = float64(c.Float32)
	case classfile.KindFloat64:
		row.Float64 = c.Float64
	}
	return row
}

func rowToConstant(row ClassFieldValueRow) classfile.Constant {
	kind := classfile.ConstantKind(row.Kind)
	c := classfile.Constant{Kind: kind}
	switch kind {
	case classfile.KindString:
		c.Str = row.StrValue
	case classfile.KindBool:
		c.Bool = row.BoolValue
	case classfile.KindInt8:
		c.Int8 = int8(row.Int64Value)
	case classfile.KindInt16:
		c.Int16 = int16(row.Int64Value)
	case classfile.KindChar:
		c.Char = uint16(row.CharValue)
	case classfile.KindInt32:
		c.Int32 = int32(row.Int64Value)
	case classfile.KindInt64:
		c.Int64 = row.Int64Value
	case classfile.KindFloat32:
		c.Float32 = float32(row.Float64)
	case classfile.KindFloat64:
		c.Float64 = row.Float64
	}
	return c
}

// ListJobs returns the distinct job UUIDs with a saved graph.
func (r *GormGraphRepository) ListJobs(ctx context.Context) ([]string, error) {
	var rows []ScanJobRow
	if err := r.db.WithContext(ctx).Order("saved_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list scan jobs: %w", err)
	}
	uuids := make([]string, len(rows))
	for i, row := range rows {
		uuids[i] = row.JobUUID
	}
	return uuids, nil
}

// DeleteGraph removes every row persisted under jobUUID.
func (r *GormGraphRepository) DeleteGraph(ctx context.Context, jobUUID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteJob(tx, jobUUID)
	})
}

func deleteJob(tx *gorm.DB, jobUUID string) error {
	if err := tx.Where("job_uuid = ?", jobUUID).Delete(&ClassNodeRow{}).Error; err != nil {
		return fmt.Errorf("delete class nodes: %w", err)
	}
	if err := tx.Where("job_uuid = ?", jobUUID).Delete(&ClassEdgeRow{}).Error; err != nil {
		return fmt.Errorf("delete class edges: %w", err)
	}
	if err := tx.Where("job_uuid = ?", jobUUID).Delete(&ClassFieldValueRow{}).Error; err != nil {
		return fmt.Errorf("delete field values: %w", err)
	}
	if err := tx.Where("job_uuid = ?", jobUUID).Delete(&ScanJobRow{}).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("delete scan job: %w", err)
		}
	}
	return nil
}
