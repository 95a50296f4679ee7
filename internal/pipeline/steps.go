package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"anscli/internal/archive"
	"anscli/internal/config"
	"anscli/internal/exporter"
	"anscli/internal/registry"
	"anscli/internal/stats"
	"anscli/internal/transform"
	"anscli/pkg/contracts/domain"
)

// ErrNoRecords indicates that no record survived transformation across all
// retrieved files. Like a zero-archive run this is fatal: writing empty
// outputs would silently replace a previous good dataset.
var ErrNoRecords = errors.New("no records survived transformation")

// RegistryStep loads the operator registry into the run state. Every
// failure here is recoverable: the run continues with an empty lookup and
// enrichment degrades to join misses.
type RegistryStep struct {
	loader *registry.Loader
	logger *slog.Logger
}

// NewRegistryStep creates the registry loading step.
func NewRegistryStep(loader *registry.Loader, logger *slog.Logger) *RegistryStep {
	return &RegistryStep{loader: loader, logger: logger}
}

func (s *RegistryStep) ID() string   { return "registry" }
func (s *RegistryStep) Name() string { return "Load operator registry" }

func (s *RegistryStep) Execute(ctx context.Context, state *State) error {
	lookup, err := s.loader.Load(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrNoRegistryFound) {
			s.logger.Warn("no registry file found, continuing with empty lookup")
		} else {
			s.logger.Warn("registry load failed, continuing with empty lookup",
				slog.String("error", err.Error()))
		}
		state.Registry = domain.OperatorLookup{}
		return nil
	}
	state.Registry = lookup
	return nil
}

// RetrieveStep downloads and extracts the recent statement files. Zero
// retrieved files aborts the run.
type RetrieveStep struct {
	retriever *archive.Retriever
}

// NewRetrieveStep creates the archive retrieval step.
func NewRetrieveStep(retriever *archive.Retriever) *RetrieveStep {
	return &RetrieveStep{retriever: retriever}
}

func (s *RetrieveStep) ID() string   { return "retrieve" }
func (s *RetrieveStep) Name() string { return "Retrieve statement archives" }

func (s *RetrieveStep) Execute(ctx context.Context, state *State) error {
	files, err := s.retriever.RetrieveRecent(ctx)
	if err != nil {
		return err
	}
	state.RawFiles = files
	return nil
}

// TransformStep parses, enriches and filters every retrieved file. Zero
// surviving records aborts the run before any output is written.
type TransformStep struct {
	logger *slog.Logger
}

// NewTransformStep creates the transformation step.
func NewTransformStep(logger *slog.Logger) *TransformStep {
	return &TransformStep{logger: logger}
}

func (s *TransformStep) ID() string   { return "transform" }
func (s *TransformStep) Name() string { return "Transform and enrich records" }

func (s *TransformStep) Execute(ctx context.Context, state *State) error {
	transformer := transform.New(state.Registry, s.logger)
	state.Consolidated = transformer.TransformAll(ctx, state.RawFiles)
	if len(state.Consolidated) == 0 {
		return ErrNoRecords
	}
	return nil
}

// AggregateStep computes the per-operator expense statistics.
type AggregateStep struct{}

// NewAggregateStep creates the aggregation step.
func NewAggregateStep() *AggregateStep { return &AggregateStep{} }

func (s *AggregateStep) ID() string   { return "aggregate" }
func (s *AggregateStep) Name() string { return "Aggregate expense statistics" }

func (s *AggregateStep) Execute(ctx context.Context, state *State) error {
	state.Aggregated = stats.Aggregate(state.Consolidated)
	return nil
}

// ExportStep writes the consolidated dataset, its distribution archive and
// the aggregated statistics. It only runs after a fully successful
// transform, keeping existing output either fully absent or fully consistent.
type ExportStep struct {
	writer *exporter.Writer
	cfg    *config.Config
}

// NewExportStep creates the export step.
func NewExportStep(writer *exporter.Writer, cfg *config.Config) *ExportStep {
	return &ExportStep{writer: writer, cfg: cfg}
}

func (s *ExportStep) ID() string   { return "export" }
func (s *ExportStep) Name() string { return "Write output files" }

func (s *ExportStep) Execute(ctx context.Context, state *State) error {
	consolidatedPath := s.cfg.ConsolidatedCSVPath()
	if err := s.writer.WriteConsolidated(consolidatedPath, state.Consolidated); err != nil {
		return err
	}
	if err := s.writer.WriteZipArchive(s.cfg.ConsolidatedZipPath(), consolidatedPath, s.cfg.Paths.ConsolidatedCSV); err != nil {
		return err
	}
	return s.writer.WriteAggregated(s.cfg.AggregatedCSVPath(), state.Aggregated)
}
