// Package service provides the main application service that integrates all components.
package service

import (
	"context"
	"fmt"

	"github.com/classgraph/classgraph/internal/repository"
	"github.com/classgraph/classgraph/internal/scanjobs"
	"github.com/classgraph/classgraph/internal/scanjobs/source"
	"github.com/classgraph/classgraph/pkg/config"
	"github.com/classgraph/classgraph/pkg/utils"
)

// Service is the main application service: it owns the database
// connection, the scan-job sources, and the scheduler that drives
// scans to completion.
type Service struct {
	config    *config.Config
	logger    utils.Logger
	db        *repository.Repositories
	scheduler *scanjobs.Scheduler

	// sources holds all task sources
	sources []source.TaskSource
	// aggregator aggregates multiple sources into a single channel
	aggregator *source.Aggregator

	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	s.logger.Info("service components initialized successfully")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	repos, err := repository.NewRepositories(gormDB)
	if err != nil {
		return err
	}

	s.db = repos
	s.logger.Info("database connection established")

	return nil
}

// initScheduler initializes task sources, the task processor, and the
// scheduler that ties them together. Each scan job's classpath loader
// (local filesystem or COS) is built per-task by the processor, so the
// service itself owns no shared storage handle.
func (s *Service) initScheduler() error {
	s.logger.Info("initializing scheduler...")

	if err := s.initSources(); err != nil {
		return fmt.Errorf("failed to initialize sources: %w", err)
	}

	processorConfig := scanjobs.ProcessorConfig{
		Scan:    s.config.Scan,
		Storage: s.config.Storage,
		Notify:  s.config.Notify,
	}
	processor := scanjobs.NewDefaultTaskProcessor(processorConfig, s.db.Graph, s.db.ScanTask, s.logger)

	schedulerConfig := scanjobs.FromConfig(&s.config.Scheduler)
	s.scheduler = scanjobs.New(schedulerConfig, s.aggregator, processor, s.logger)

	s.logger.Info("scheduler initialized")
	return nil
}

// initSources initializes task sources based on configuration. When
// nothing is configured, it falls back to a single database source
// polling at the scheduler's own cadence.
func (s *Service) initSources() error {
	s.logger.Info("initializing task sources...")

	var sourceConfigs []*source.SourceConfig
	for _, cfg := range s.config.Sources {
		if !cfg.Enabled {
			s.logger.Info("source %s (%s) is disabled, skipping", cfg.Name, cfg.Type)
			continue
		}

		sourceConfigs = append(sourceConfigs, &source.SourceConfig{
			Type:    source.SourceType(cfg.Type),
			Name:    cfg.Name,
			Enabled: cfg.Enabled,
			Options: cfg.Options,
		})
	}

	if len(sourceConfigs) == 0 {
		s.logger.Info("no sources configured, using default database source")
		sourceConfigs = append(sourceConfigs, &source.SourceConfig{
			Type:    source.SourceTypeDB,
			Name:    "default-db",
			Enabled: true,
			Options: map[string]interface{}{
				"poll_interval": s.config.Scheduler.PollInterval,
				"batch_size":    s.config.Scheduler.TaskBatchSize,
			},
		})
	}

	sources, err := source.CreateSources(sourceConfigs)
	if err != nil {
		return err
	}

	for _, src := range sources {
		if dbSource, ok := src.(*source.DatabaseSource); ok {
			dbSource.SetRepository(s.db.ScanTask)
			dbSource.SetLogger(s.logger)
		}
		if httpSource, ok := src.(*source.HTTPSource); ok {
			httpSource.SetLogger(s.logger)
		}
	}

	s.sources = sources

	s.aggregator = source.NewAggregator(sources, s.config.Scheduler.TaskBatchSize*2, s.logger)

	s.logger.Info("initialized %d task sources", len(sources))
	for _, src := range sources {
		s.logger.Info("  - %s (%s)", src.Name(), src.Type())
	}

	return nil
}

// Start starts the service.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting service...")

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.running = true
	s.logger.Info("service started successfully")

	return nil
}

// Stop stops the service gracefully.
func (s *Service) Stop() error {
	s.logger.Info("stopping service...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if s.aggregator != nil {
		if err := s.aggregator.Stop(); err != nil {
			s.logger.Error("failed to stop aggregator: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database connection: %v", err)
		}
	}

	s.running = false
	s.logger.Info("service stopped")

	return nil
}

// IsRunning returns whether the service is running.
func (s *Service) IsRunning() bool {
	return s.running
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Running: s.running,
	}

	if s.scheduler != nil {
		stats.Scheduler = s.scheduler.Stats()
	}

	return stats
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Running   bool                    `json:"running"`
	Scheduler scanjobs.SchedulerStats `json:"scheduler"`
}
