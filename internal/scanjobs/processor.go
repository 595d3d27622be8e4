package scanjobs

import (
	"context"
	"fmt"
	"time"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/loader"
	"github.com/classgraph/classgraph/internal/repository"
	"github.com/classgraph/classgraph/internal/scan"
	"github.com/classgraph/classgraph/pkg/config"
	"github.com/classgraph/classgraph/pkg/model"
	"github.com/classgraph/classgraph/pkg/utils"
)

// ProcessorConfig configures a DefaultTaskProcessor.
type ProcessorConfig struct {
	Scan    config.ScanConfig
	Storage config.StorageConfig
	Notify  config.NotifyConfig
}

// DefaultTaskProcessor implements TaskProcessor by driving a fresh
// internal/scan.Scanner per task: scan the task's roots, persist the
// resulting graph, and notify the configured webhook.
type DefaultTaskProcessor struct {
	config    ProcessorConfig
	graphRepo repository.GraphRepository
	taskRepo  repository.ScanTaskRepository
	notifier  *Notifier
	logger    utils.Logger
}

// NewDefaultTaskProcessor creates a DefaultTaskProcessor. taskRepo may be
// nil when the scheduler's source doesn't need status write-back (e.g. an
// HTTP source that already responded synchronously to its caller).
func NewDefaultTaskProcessor(cfg ProcessorConfig, graphRepo repository.GraphRepository, taskRepo repository.ScanTaskRepository, logger utils.Logger) *DefaultTaskProcessor {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &DefaultTaskProcessor{
		config:    cfg,
		graphRepo: graphRepo,
		taskRepo:  taskRepo,
		notifier:  NewNotifier(cfg.Notify, logger),
		logger:    logger,
	}
}

// Process scans task.Roots into a Class Graph, persists it under
// task.JobUUID, and fires the completion webhook. Any failure marks the
// task Failed (when a task repository is configured) and is returned to
// the caller so the scheduler can log it.
func (p *DefaultTaskProcessor) Process(ctx context.Context, task *Task) error {
	p.markRunning(ctx, task)

	registry, err := p.buildRegistry(task.Source)
	if err != nil {
		return p.fail(ctx, task, fmt.Errorf("build classpath loader: %w", err))
	}

	opts := scan.Options{
		Concurrency:            task.Params.Concurrency,
		IncludeNonPublicFields: task.Params.IncludeNonPublicFields,
		FieldsWanted:           fieldsWantedFromParams(task.Params),
		Logger:                 p.logger,
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = p.config.Scan.Concurrency
	}

	scanner := scan.New(opts, registry)

	g, err := scanner.Scan(ctx, task.Roots)
	if err != nil {
		return p.fail(ctx, task, fmt.Errorf("scan job %s: %w", task.JobUUID, err))
	}

	result := summarize(task.JobUUID, g)

	if p.graphRepo != nil {
		if err := p.graphRepo.SaveGraph(ctx, task.JobUUID, g); err != nil {
			return p.fail(ctx, task, fmt.Errorf("save graph for job %s: %w", task.JobUUID, err))
		}
	}

	if p.taskRepo != nil {
		if err := p.taskRepo.UpdateStatus(ctx, task.ID, model.ScanStatusCompleted, ""); err != nil {
			p.logger.Warn("failed to mark scan job %d completed: %v", task.ID, err)
		}
	}

	p.notifier.NotifyCompletion(ctx, result, nil)
	return nil
}

// markRunning flips a task to Running before the scan starts; it does not
// stamp the begin time (LockTask does that for a polled task).
func (p *DefaultTaskProcessor) markRunning(ctx context.Context, task *Task) {
	if p.taskRepo == nil {
		return
	}
	if err := p.taskRepo.UpdateStatus(ctx, task.ID, model.ScanStatusRunning, ""); err != nil {
		p.logger.Warn("failed to mark scan job %d running: %v", task.ID, err)
	}
}

// fail marks task Failed, notifies the webhook of the failure, and
// returns err unchanged so the scheduler logs it too.
func (p *DefaultTaskProcessor) fail(ctx context.Context, task *Task, err error) error {
	if p.taskRepo != nil {
		if uerr := p.taskRepo.UpdateStatus(ctx, task.ID, model.ScanStatusFailed, err.Error()); uerr != nil {
			p.logger.Warn("failed to mark scan job %d failed: %v", task.ID, uerr)
		}
	}
	p.notifier.NotifyCompletion(ctx, &model.ScanResult{JobUUID: task.JobUUID, ScannedAt: time.Now()}, err)
	return err
}

// buildRegistry builds the loader.Registry a scan of this source kind
// needs: a COS handler registered under the "cos" scheme when the task's
// roots are bucket objects, otherwise the registry's built-in local
// filesystem default is enough.
func (p *DefaultTaskProcessor) buildRegistry(sourceKind model.SourceKind) (*loader.Registry, error) {
	registry := loader.NewRegistry()
	if sourceKind != model.SourceKindCOS {
		return registry, nil
	}

	cosHandler, err := loader.NewCOSHandler(&loader.COSConfig{
		Bucket:    p.config.Storage.Bucket,
		Region:    p.config.Storage.Region,
		SecretID:  p.config.Storage.SecretID,
		SecretKey: p.config.Storage.SecretKey,
		Domain:    p.config.Storage.Domain,
		Scheme:    p.config.Storage.Scheme,
	})
	if err != nil {
		return nil, err
	}
	registry.Register("cos", cosHandler)
	return registry, nil
}

// fieldsWantedFromParams converts a task's requested static final field
// names into the set shape classfile.Parser expects.
func fieldsWantedFromParams(params model.ScanParams) classfile.FieldsWanted {
	if len(params.FieldsWanted) == 0 {
		return nil
	}
	wanted := make(classfile.FieldsWanted, len(params.FieldsWanted))
	for class, fields := range params.FieldsWanted {
		set := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			set[f] = struct{}{}
		}
		wanted[class] = set
	}
	return wanted
}

// summarize builds a model.ScanResult from a completed Class Graph,
// tallying each query category the way internal/repository's row tables
// would if a caller queried them back.
func summarize(jobUUID string, g *graph.Graph) *model.ScanResult {
	result := model.NewScanResult(jobUUID)
	nodes := g.Nodes()
	result.NodeCount = len(nodes)

	categories := []struct {
		name string
		cat  graph.Category
	}{
		{"annotation", graph.CategoryAnnotation},
		{"interface", graph.CategoryInterface},
		{"standard_class", graph.CategoryStandardClass},
	}
	for _, c := range categories {
		result.Categories[c.name] = len(graph.Filter(nodes, c.cat, false))
	}

	edgeCount := 0
	for _, n := range nodes {
		edgeCount += len(n.Direct(graph.RelSuperclass))
		edgeCount += len(n.Direct(graph.RelImplementedInterface))
		edgeCount += len(n.Direct(graph.RelAnnotation))
		edgeCount += len(n.Direct(graph.RelFieldType))
	}
	result.EdgeCount = edgeCount

	return result
}
