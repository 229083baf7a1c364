package model

import (
	"encoding/json"
	"time"
)

// Chart type constants recognized by the frontend renderer.
const (
	ChartBar     = "bar"
	ChartLine    = "line"
	ChartPie     = "pie"
	ChartScatter = "scatter"
)

// Chart is a stored chart configuration produced by the chat pipeline.
// DataSeries is kept as raw JSON: the series shape varies per chart type
// and the API returns it verbatim.
type Chart struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	SessionID  string          `json:"session_id,omitempty"`
	ChartType  string          `json:"chartType"`
	Title      string          `json:"title"`
	XLabel     string          `json:"xLabel,omitempty"`
	YLabel     string          `json:"yLabel,omitempty"`
	DataSeries json.RawMessage `json:"dataSeries"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CSVArtifact is a stored CSV produced by the chat pipeline.
type CSVArtifact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Filename  string    `json:"filename"`
	Columns   []string  `json:"columns"`
	RowCount  int       `json:"row_count"`
	Content   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PatentCacheTTL is the fixed lifetime of a cached patent record.
// Rows older than this are removed by the cron sweep.
const PatentCacheTTL = time.Hour

// CachedPatent is an upstream patent record cached in Postgres.
type CachedPatent struct {
	PatentID string          `json:"patent_id"`
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// IsFresh reports whether the cached record is still within its TTL.
func (p *CachedPatent) IsFresh(now time.Time) bool {
	return now.Sub(p.CachedAt) < PatentCacheTTL
}
