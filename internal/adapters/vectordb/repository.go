package vectordb

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
	"github.com/agrostack/kisanqa-go/internal/domain/ports"
)

// indexBlob is the gob-encoded index artifact: the flattened embedding
// matrix plus its shape.
type indexBlob struct {
	Dim  int
	Rows int
	Data []float32
}

// metaBlob is the JSON metadata artifact: parallel query/answer arrays
// aligned with the index row order, plus the dimension for pair validation.
type metaBlob struct {
	Queries []string `json:"queries"`
	Answers []string `json:"answers"`
	Dim     int      `json:"dim"`
}

// FileRepository persists the artifact pair on the local filesystem.
// Writes go to a temp file in the target directory and are renamed into
// place, so a concurrently loading reader never sees a partial artifact.
type FileRepository struct {
	indexPath string
	metaPath  string
}

// NewFileRepository creates a repository for the given artifact paths.
func NewFileRepository(indexPath, metaPath string) *FileRepository {
	return &FileRepository{indexPath: indexPath, metaPath: metaPath}
}

// Save writes both artifacts. The metadata file lands last; a reader that
// picks up a fresh index with stale metadata fails pair validation on load
// and keeps its previous handle.
func (r *FileRepository) Save(ctx context.Context, entries []entities.CorpusEntry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("saving index: %d entries but %d vectors", len(entries), len(vectors))
	}
	ix, err := NewFlatIndex(vectors)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.indexPath), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	blob := indexBlob{Dim: ix.dim, Rows: ix.rows, Data: ix.data}
	if err := writeAtomic(r.indexPath, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(blob)
	}); err != nil {
		return fmt.Errorf("writing index artifact: %w", err)
	}

	meta := metaBlob{
		Queries: make([]string, len(entries)),
		Answers: make([]string, len(entries)),
		Dim:     ix.dim,
	}
	for i, e := range entries {
		meta.Queries[i] = e.Query
		meta.Answers[i] = e.Answer
	}
	if err := writeAtomic(r.metaPath, func(f *os.File) error {
		return json.NewEncoder(f).Encode(meta)
	}); err != nil {
		return fmt.Errorf("writing metadata artifact: %w", err)
	}

	log.Printf("[INFO] saved index (%d rows, dim %d) to %s and %s", ix.rows, ix.dim, r.indexPath, r.metaPath)
	return nil
}

// Load reads the artifact pair back and validates it as a matched pair.
func (r *FileRepository) Load(ctx context.Context) (ports.VectorSearcher, []string, []string, error) {
	for _, path := range []string{r.indexPath, r.metaPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", path, entities.ErrCorpusNotBuilt)
		}
	}

	f, err := os.Open(r.indexPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening index artifact: %w", err)
	}
	defer f.Close()

	var blob indexBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, nil, nil, fmt.Errorf("decoding %s: %v: %w", r.indexPath, err, entities.ErrIndexCorrupt)
	}
	if blob.Dim <= 0 || blob.Rows <= 0 || len(blob.Data) != blob.Dim*blob.Rows {
		return nil, nil, nil, fmt.Errorf("index artifact shape %dx%d with %d values: %w",
			blob.Rows, blob.Dim, len(blob.Data), entities.ErrIndexCorrupt)
	}

	metaBytes, err := os.ReadFile(r.metaPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading metadata artifact: %w", err)
	}
	var meta metaBlob
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, nil, nil, fmt.Errorf("decoding %s: %v: %w", r.metaPath, err, entities.ErrIndexCorrupt)
	}
	if meta.Dim != blob.Dim || len(meta.Queries) != blob.Rows || len(meta.Answers) != blob.Rows {
		return nil, nil, nil, fmt.Errorf("metadata (%d queries, %d answers, dim %d) does not match index (%d rows, dim %d): %w",
			len(meta.Queries), len(meta.Answers), meta.Dim, blob.Rows, blob.Dim, entities.ErrIndexCorrupt)
	}

	ix := &FlatIndex{dim: blob.Dim, rows: blob.Rows, data: blob.Data}
	return ix, meta.Queries, meta.Answers, nil
}

// writeAtomic writes via a temp file in the target directory followed by a
// rename, which is atomic on POSIX filesystems.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
