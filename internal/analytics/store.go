package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ScrubLabs/scrub-web/internal/db"
)

var tracer = otel.Tracer("scrub/analytics")

// Store persists computed reports, one per upload.
type Store struct {
	db *sql.DB
}

// NewStore creates a report store on top of the shared connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}

// SaveReport inserts or replaces the report for an upload.
func (s *Store) SaveReport(ctx context.Context, uploadID string, report *Report) error {
	ctx, span := tracer.Start(ctx, "analytics.save_report",
		trace.WithAttributes(attribute.String("upload.id", uploadID)))
	defer span.End()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analytics_reports (upload_id, report)
		VALUES ($1, $2)
		ON CONFLICT (upload_id) DO UPDATE SET report = EXCLUDED.report, computed_at = NOW()`,
		uploadID, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport fetches the report for an upload.
func (s *Store) GetReport(ctx context.Context, uploadID string) (*Report, error) {
	ctx, span := tracer.Start(ctx, "analytics.get_report",
		trace.WithAttributes(attribute.String("upload.id", uploadID)))
	defer span.End()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM analytics_reports WHERE upload_id = $1`,
		uploadID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, db.ErrReportNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
