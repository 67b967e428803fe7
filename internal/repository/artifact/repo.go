// Package artifact persists the index artifact triple to disk as three
// parquet files plus a manifest. The manifest carries a schema version
// and row counts so that misaligned or stale artifacts are rejected at
// load time instead of silently corrupting every recommendation.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/kinocloud/cinedex/internal/domain"
	"github.com/kinocloud/cinedex/internal/index"
)

// SchemaVersion is bumped whenever the artifact layout changes.
// A loader never tries to interpret artifacts from another version.
const SchemaVersion = 1

const (
	manifestFile = "manifest.json"
	titlesFile   = "titles.parquet"
	matrixFile   = "matrix.parquet"
	vocabFile    = "vocabulary.parquet"
)

// Manifest describes one artifact build.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	BuiltAt       time.Time `json:"built_at"`
	Rows          int       `json:"rows"`
	Terms         int       `json:"terms"`
	NNZ           int       `json:"nnz"`
}

// Save writes the artifact triple and manifest into dir.
// The manifest is written last so a partially-written directory
// always fails the Load manifest check.
func Save(dir string, ix *index.Index) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	if err := writeTitles(filepath.Join(dir, titlesFile), ix.Titles()); err != nil {
		return err
	}
	if err := writeMatrix(filepath.Join(dir, matrixFile), ix.Matrix()); err != nil {
		return err
	}
	if err := writeVocabulary(filepath.Join(dir, vocabFile), ix.Vectorizer()); err != nil {
		return err
	}

	m := Manifest{
		SchemaVersion: SchemaVersion,
		BuiltAt:       time.Now().UTC(),
		Rows:          ix.Len(),
		Terms:         ix.Vectorizer().Dims(),
		NNZ:           ix.Matrix().NNZ(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads and validates the artifact triple from dir.
// Any missing file, schema-version mismatch, or count divergence
// between manifest, titles, and matrix is an error; callers must
// refuse to serve on failure.
func Load(dir string) (*index.Index, error) {
	m, err := readManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: artifact schema version %d, this binary expects %d",
			domain.ErrArtifactMismatch, m.SchemaVersion, SchemaVersion)
	}

	titles, err := readTitles(filepath.Join(dir, titlesFile))
	if err != nil {
		return nil, err
	}
	if len(titles) != m.Rows {
		return nil, fmt.Errorf("%w: title table has %d rows, manifest says %d",
			domain.ErrArtifactMismatch, len(titles), m.Rows)
	}

	vec, err := readVocabulary(filepath.Join(dir, vocabFile))
	if err != nil {
		return nil, err
	}
	if vec.Dims() != m.Terms {
		return nil, fmt.Errorf("%w: vocabulary has %d terms, manifest says %d",
			domain.ErrArtifactMismatch, vec.Dims(), m.Terms)
	}

	matrix, err := readMatrix(filepath.Join(dir, matrixFile), m.Rows, m.Terms)
	if err != nil {
		return nil, err
	}
	if matrix.NNZ() != m.NNZ {
		return nil, fmt.Errorf("%w: matrix has %d entries, manifest says %d",
			domain.ErrArtifactMismatch, matrix.NNZ(), m.NNZ)
	}

	ix, err := index.Reconstruct(vec, matrix, titles)
	if err != nil {
		return nil, fmt.Errorf("reconstruct index: %w", err)
	}
	return ix, nil
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

func writeTitles(path string, titles []domain.Title) error {
	rows := make([]titleRow, len(titles))
	for i := range titles {
		rows[i] = titleToRow(&titles[i])
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", titlesFile, err)
	}
	return nil
}

func readTitles(path string) ([]domain.Title, error) {
	rows, err := readParquet[titleRow](path, titlesFile)
	if err != nil {
		return nil, err
	}
	titles := make([]domain.Title, len(rows))
	for i, r := range rows {
		titles[i] = r.toDomain()
	}
	return titles, nil
}

func writeMatrix(path string, m *index.Matrix) error {
	rows := make([]matrixRow, 0, m.NNZ())
	for i := 0; i < m.Rows(); i++ {
		cols, vals := m.Row(i)
		for k, c := range cols {
			rows = append(rows, matrixRow{Row: int64(i), Col: int64(c), Value: vals[k]})
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", matrixFile, err)
	}
	return nil
}

func readMatrix(path string, numRows, numCols int) (index.Matrix, error) {
	triplets, err := readParquet[matrixRow](path, matrixFile)
	if err != nil {
		return index.Matrix{}, err
	}

	// Row-major order is how Save writes them, but re-sort so the CSR
	// assembly never depends on the file's physical row order.
	sort.Slice(triplets, func(a, b int) bool {
		if triplets[a].Row != triplets[b].Row {
			return triplets[a].Row < triplets[b].Row
		}
		return triplets[a].Col < triplets[b].Col
	})

	rowPtr := make([]int, numRows+1)
	colIdx := make([]int, len(triplets))
	values := make([]float64, len(triplets))
	for i, tr := range triplets {
		if tr.Row < 0 || tr.Row >= int64(numRows) || tr.Col < 0 || tr.Col >= int64(numCols) {
			return index.Matrix{}, fmt.Errorf("%w: matrix entry (%d,%d) out of bounds %dx%d",
				domain.ErrArtifactMismatch, tr.Row, tr.Col, numRows, numCols)
		}
		colIdx[i] = int(tr.Col)
		values[i] = tr.Value
		rowPtr[tr.Row+1]++
	}
	for i := 1; i <= numRows; i++ {
		rowPtr[i] += rowPtr[i-1]
	}

	return index.NewMatrix(numRows, numCols, rowPtr, colIdx, values), nil
}

func writeVocabulary(path string, vec *index.Vectorizer) error {
	terms := vec.Terms()
	idf := vec.IDF()
	rows := make([]vocabRow, len(terms))
	for dim, term := range terms {
		rows[dim] = vocabRow{Term: term, Dim: int64(dim), IDF: idf[dim]}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", vocabFile, err)
	}
	return nil
}

func readVocabulary(path string) (*index.Vectorizer, error) {
	rows, err := readParquet[vocabRow](path, vocabFile)
	if err != nil {
		return nil, err
	}
	terms := make([]string, len(rows))
	idf := make([]float64, len(rows))
	for _, r := range rows {
		if r.Dim < 0 || r.Dim >= int64(len(rows)) {
			return nil, fmt.Errorf("%w: vocabulary dimension %d out of range", domain.ErrArtifactMismatch, r.Dim)
		}
		if terms[r.Dim] != "" {
			return nil, fmt.Errorf("%w: duplicate vocabulary dimension %d", domain.ErrArtifactMismatch, r.Dim)
		}
		terms[r.Dim] = r.Term
		idf[r.Dim] = r.IDF
	}
	return index.NewVectorizer(terms, idf), nil
}

func readParquet[T any](path, name string) ([]T, error) {
	rows, err := parquet.ReadFile[T](filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, nil
}
