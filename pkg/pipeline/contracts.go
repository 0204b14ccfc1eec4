package pipeline

import (
	"context"

	"github.com/openshelf/curator/pkg/catalog"
)

// Importer brings entries from an external representation into the
// catalog. Implementations are expected to be additive and idempotent:
// importing the same source twice leaves the catalog unchanged.
type Importer interface {
	Name() string
	Import(ctx context.Context, cat *catalog.Catalog) (*Result, error)
}

// Exporter renders the catalog to an external representation. Exporters
// never mutate the catalog.
type Exporter interface {
	Name() string
	Export(ctx context.Context, cat catalog.Reader) (*Result, error)
}

// ImporterStep adapts an Importer so it can run as a pipeline step.
func ImporterStep(imp Importer) Step {
	return &importerStep{imp}
}

type importerStep struct {
	imp Importer
}

func (s *importerStep) Name() string { return s.imp.Name() }

func (s *importerStep) Run(ctx context.Context, cat *catalog.Catalog) (*Result, error) {
	return s.imp.Import(ctx, cat)
}

// ExporterStep adapts an Exporter so it can run as a pipeline step.
func ExporterStep(exp Exporter) Step {
	return &exporterStep{exp}
}

type exporterStep struct {
	exp Exporter
}

func (s *exporterStep) Name() string { return s.exp.Name() }

func (s *exporterStep) Run(ctx context.Context, cat *catalog.Catalog) (*Result, error) {
	return s.exp.Export(ctx, cat)
}
