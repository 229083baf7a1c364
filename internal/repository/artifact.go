package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/patlas/patlas/internal/model"
)

// Common errors for artifact repository operations.
var (
	ErrChartNotFound = errors.New("chart not found")
	ErrCSVNotFound   = errors.New("csv artifact not found")
)

// CreateChart inserts a chart produced by the chat pipeline.
func (r *Repository) CreateChart(ctx context.Context, chart *model.Chart) error {
	query := `
		INSERT INTO charts (id, user_id, session_id, chart_type, title, x_label, y_label, data_series, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		chart.ID,
		chart.UserID,
		nullIfEmpty(chart.SessionID),
		chart.ChartType,
		chart.Title,
		chart.XLabel,
		chart.YLabel,
		chart.DataSeries,
		chart.Metadata,
		chart.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}

	return nil
}

// GetChart retrieves a chart owned by the given user.
func (r *Repository) GetChart(ctx context.Context, id, userID string) (*model.Chart, error) {
	query := `
		SELECT id, user_id, session_id, chart_type, title, x_label, y_label, data_series, metadata, created_at
		FROM charts
		WHERE id = $1 AND user_id = $2
	`

	var chart model.Chart
	var sessionID *string
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&chart.ID,
		&chart.UserID,
		&sessionID,
		&chart.ChartType,
		&chart.Title,
		&chart.XLabel,
		&chart.YLabel,
		&chart.DataSeries,
		&chart.Metadata,
		&chart.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChartNotFound
		}
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}

	if sessionID != nil {
		chart.SessionID = *sessionID
	}

	return &chart, nil
}

// CreateCSVArtifact inserts a CSV artifact produced by the chat pipeline.
func (r *Repository) CreateCSVArtifact(ctx context.Context, artifact *model.CSVArtifact) error {
	query := `
		INSERT INTO csv_artifacts (id, user_id, session_id, filename, columns, row_count, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		artifact.ID,
		artifact.UserID,
		nullIfEmpty(artifact.SessionID),
		artifact.Filename,
		artifact.Columns,
		artifact.RowCount,
		artifact.Content,
		artifact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create csv artifact: %w", err)
	}

	return nil
}

// GetCSVArtifact retrieves a CSV artifact owned by the given user.
func (r *Repository) GetCSVArtifact(ctx context.Context, id, userID string) (*model.CSVArtifact, error) {
	query := `
		SELECT id, user_id, session_id, filename, columns, row_count, content, created_at
		FROM csv_artifacts
		WHERE id = $1 AND user_id = $2
	`

	var artifact model.CSVArtifact
	var sessionID *string
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&artifact.ID,
		&artifact.UserID,
		&sessionID,
		&artifact.Filename,
		&artifact.Columns,
		&artifact.RowCount,
		&artifact.Content,
		&artifact.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCSVNotFound
		}
		return nil, fmt.Errorf("failed to get csv artifact: %w", err)
	}

	if sessionID != nil {
		artifact.SessionID = *sessionID
	}

	return &artifact, nil
}

// nullIfEmpty maps an empty string to SQL NULL for nullable columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
