package handler

import (
	"strings"
	"testing"

	"github.com/patlas/patlas/internal/model"
)

func TestPreviewCSV(t *testing.T) {
	artifact := &model.CSVArtifact{
		Columns: []string{"patent_id", "title", "year"},
		Content: "patent_id,title,year\nUS123,Widget,2020\nUS456,Gadget,2021\n",
	}

	preview, truncated := previewCSV(artifact, 50)

	if truncated {
		t.Error("small file should not be truncated")
	}
	if len(preview) != 2 {
		t.Fatalf("preview rows = %d, want 2 (header skipped)", len(preview))
	}
	if preview[0][0] != "US123" || preview[1][1] != "Gadget" {
		t.Errorf("preview = %v, want data rows without the header", preview)
	}
}

func TestPreviewCSV_Truncation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id,value\n")
	for i := 0; i < 60; i++ {
		sb.WriteString("row,1\n")
	}

	artifact := &model.CSVArtifact{
		Columns: []string{"id", "value"},
		Content: sb.String(),
	}

	preview, truncated := previewCSV(artifact, 50)

	if !truncated {
		t.Error("expected truncation at the preview bound")
	}
	if len(preview) != 50 {
		t.Errorf("preview rows = %d, want 50", len(preview))
	}
}

func TestPreviewCSV_ColumnsWithWhitespace(t *testing.T) {
	// Stored column names can carry incidental whitespace.
	artifact := &model.CSVArtifact{
		Columns: []string{" patent_id", "title "},
		Content: "patent_id,title\nUS123,Widget\n",
	}

	preview, _ := previewCSV(artifact, 50)

	if len(preview) != 1 {
		t.Fatalf("preview rows = %d, want 1 (header skipped)", len(preview))
	}
	if preview[0][0] != "US123" {
		t.Errorf("first row = %v, want the data row", preview[0])
	}
}

func TestPreviewCSV_NoHeaderRow(t *testing.T) {
	// Content whose first row is data, not the stored column names.
	artifact := &model.CSVArtifact{
		Columns: []string{"patent_id", "title"},
		Content: "US123,Widget\nUS456,Gadget\n",
	}

	preview, _ := previewCSV(artifact, 50)

	if len(preview) != 2 {
		t.Fatalf("preview rows = %d, want 2 (first row is data)", len(preview))
	}
	if preview[0][0] != "US123" {
		t.Errorf("first row = %v, want the data row kept", preview[0])
	}
}

func TestPreviewCSV_RaggedRows(t *testing.T) {
	artifact := &model.CSVArtifact{
		Columns: []string{"a", "b"},
		Content: "a,b\n1,2\n3,4,5\n6\n",
	}

	preview, _ := previewCSV(artifact, 50)

	// Ragged rows are allowed; every parsed row survives.
	if len(preview) != 3 {
		t.Errorf("preview rows = %d, want 3", len(preview))
	}
}
