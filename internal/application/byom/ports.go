package byom

import (
	"context"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/shopspring/decimal"
)

// ObjectStorage stores uploaded graphics and their thumbnails
type ObjectStorage interface {
	// Upload writes data under storageKey
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// PublicURL returns the stable URL under which storageKey is served
	PublicURL(storageKey string) string

	// GenerateDownloadURL returns a presigned URL valid for expiresIn
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject removes storageKey. Used to undo uploads of a failed pipeline run.
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists reports whether storageKey is stored
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ProofComposer builds the HTML proof sheet of a design
type ProofComposer interface {
	Compose(design *byom.Design, breakdown byom.PriceBreakdown) (string, error)
}

// ProofRenderer renders a printable proof sheet for a design
type ProofRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// DesignExporter writes a design listing as a spreadsheet
type DesignExporter interface {
	ExportDesigns(rows []DesignExportRow) ([]byte, error)
}

// PricingStrategies resolves pricing strategies by name
type PricingStrategies interface {
	GetPricingStrategy(name string) (byom.PricingStrategy, error)
	// Canonical returns the strategy whose totals are purchasable
	Canonical() (byom.PricingStrategy, error)
}

// WorkflowMetrics records workflow activity
type WorkflowMetrics interface {
	RecordDesignCreated(ctx context.Context, merchType string)
	RecordDesignTransition(ctx context.Context, status string)
	RecordQuote(ctx context.Context, strategy string, total decimal.Decimal)
	RecordStage(ctx context.Context, stage string, d time.Duration, err error)
	RecordEditorSessions(ctx context.Context, n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordDesignCreated(context.Context, string) {}
func (noopMetrics) RecordDesignTransition(context.Context, string) {}
func (noopMetrics) RecordQuote(context.Context, string, decimal.Decimal) {}
func (noopMetrics) RecordStage(context.Context, string, time.Duration, error) {}
func (noopMetrics) RecordEditorSessions(context.Context, int) {}

// NoopMetrics discards every measurement
var NoopMetrics WorkflowMetrics = noopMetrics{}
