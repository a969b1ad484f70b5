// Package loader provides raw corpus loading adapters.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// LoadCSV reads a raw tabular corpus from a CSV file. The first record is
// the header; short rows are tolerated and padded downstream by the
// normalizer. A missing file is entities.ErrMissingInput.
func LoadCSV(path string) (entities.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entities.RawTable{}, fmt.Errorf("%s: %w", path, entities.ErrMissingInput)
		}
		return entities.RawTable{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged exports are common
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return entities.RawTable{}, fmt.Errorf("%s is empty: %w", path, entities.ErrMissingInput)
	}
	if err != nil {
		return entities.RawTable{}, fmt.Errorf("reading header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entities.RawTable{}, fmt.Errorf("reading %s: %w", path, err)
		}
		rows = append(rows, rec)
	}

	return entities.RawTable{Columns: header, Rows: rows}, nil
}

// SaveQAJSON serializes the normalized corpus as an explicit list of
// {query, answer} objects, the portable companion artifact to the index.
func SaveQAJSON(path string, entries []entities.CorpusEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// LoadQAJSON reads a corpus previously saved with SaveQAJSON back as a raw
// table, so the build pipeline can also start from the portable artifact.
func LoadQAJSON(path string) (entities.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entities.RawTable{}, fmt.Errorf("%s: %w", path, entities.ErrMissingInput)
		}
		return entities.RawTable{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []entities.CorpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return entities.RawTable{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Query, e.Answer}
	}
	return entities.RawTable{Columns: []string{"query", "answer"}, Rows: rows}, nil
}
