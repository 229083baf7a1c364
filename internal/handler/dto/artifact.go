package dto

import (
	"encoding/json"
	"time"

	"github.com/patlas/patlas/internal/model"
)

// ChartResponse is a stored chart configuration in API responses. The
// field casing matches what the frontend chart renderer consumes.
type ChartResponse struct {
	ID         string          `json:"id"`
	ChartType  string          `json:"chartType"`
	Title      string          `json:"title"`
	XLabel     string          `json:"xLabel,omitempty"`
	YLabel     string          `json:"yLabel,omitempty"`
	DataSeries json.RawMessage `json:"dataSeries"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CSVArtifactResponse is CSV artifact metadata plus a bounded preview.
type CSVArtifactResponse struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	Columns   []string   `json:"columns"`
	RowCount  int        `json:"row_count"`
	Preview   [][]string `json:"preview"`
	Truncated bool       `json:"truncated"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToChartResponse converts a Chart model to its DTO.
func ToChartResponse(chart *model.Chart) *ChartResponse {
	return &ChartResponse{
		ID:         chart.ID,
		ChartType:  chart.ChartType,
		Title:      chart.Title,
		XLabel:     chart.XLabel,
		YLabel:     chart.YLabel,
		DataSeries: chart.DataSeries,
		Metadata:   chart.Metadata,
		CreatedAt:  chart.CreatedAt,
	}
}

// ToCSVArtifactResponse converts a CSVArtifact model plus its parsed
// preview rows to the API shape.
func ToCSVArtifactResponse(artifact *model.CSVArtifact, preview [][]string, truncated bool) *CSVArtifactResponse {
	return &CSVArtifactResponse{
		ID:        artifact.ID,
		Filename:  artifact.Filename,
		Columns:   artifact.Columns,
		RowCount:  artifact.RowCount,
		Preview:   preview,
		Truncated: truncated,
		CreatedAt: artifact.CreatedAt,
	}
}
