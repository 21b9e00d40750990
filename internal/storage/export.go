package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

// ExportData is the single-document JSON form of a run.
type ExportData struct {
	Run    RunMetadata          `json:"run"`
	Series []dynamo.Diagnostics `json:"series"`
	// Field is the interleaved final lattice, omitted when not captured.
	Field []float64 `json:"field,omitempty"`
}

func NewExport(meta RunMetadata, series []dynamo.Diagnostics, field *lattice.Field) ExportData {
	data := ExportData{Run: meta, Series: series}
	if field != nil {
		data.Run.Size = field.N
		data.Field = field.Clone().Z
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
