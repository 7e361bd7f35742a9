package archive

import (
	"context"
	"time"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/callback"
)

// ReportRecord is one finalized report as archived. The archive is
// write-once observability data: nothing ever reads it back into a session.
type ReportRecord struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Report     callback.Report `json:"report"`
	Delivered  bool            `json:"delivered"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// Store archives finalized reports.
type Store interface {
	SaveReport(ctx context.Context, record ReportRecord) error
	RecentReports(ctx context.Context, limit int) ([]ReportRecord, error)
	Close() error
}
