package artifact

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kinocloud/cinedex/internal/domain"
	"github.com/kinocloud/cinedex/internal/index"
)

func threeTitles(t *testing.T) []domain.Title {
	t.Helper()
	mk := func(id, name string, mt domain.MediaType, genres []string, countries []string) domain.Title {
		title, err := domain.NewTitle(id, mt, name, genres,
			[]string{"Some Director"}, []string{"Some Actor"}, 1999, 7.0, 1200, countries)
		if err != nil {
			t.Fatalf("NewTitle(%s): %v", id, err)
		}
		return title
	}
	return []domain.Title{
		mk("tt100", "First Film", domain.Movie, []string{"Drama"}, []string{"IN"}),
		mk("tt200", "Second Film", domain.Movie, []string{"Comedy"}, []string{"US"}),
		mk("tt300", "Third Show", domain.Series, []string{"Drama", "Crime"}, []string{"UK"}),
	}
}

func buildAndSave(t *testing.T) (string, *index.Index) {
	t.Helper()
	ix, err := index.Build(threeTitles(t), index.DefaultSoupWeights())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dir := t.TempDir()
	if err := Save(dir, ix); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return dir, ix
}

func TestSaveLoad_RoundTripAlignment(t *testing.T) {
	dir, built := buildAndSave(t)

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Len() != built.Len() {
		t.Fatalf("loaded %d titles, want %d", loaded.Len(), built.Len())
	}
	// Row-to-ID mapping survives the round trip (the alignment invariant).
	for i := range built.Titles() {
		if loaded.Titles()[i].ID() != built.Titles()[i].ID() {
			t.Errorf("row %d: loaded ID %s, built ID %s",
				i, loaded.Titles()[i].ID(), built.Titles()[i].ID())
		}
	}
	// Scores are identical, so the matrix round-tripped losslessly.
	want := built.Score([]string{"tt100"}, domain.Movie, index.ScoreOptions{})
	got := loaded.Score([]string{"tt100"}, domain.Movie, index.ScoreOptions{})
	for id, w := range want {
		if math.Abs(got[id]-w) > 1e-12 {
			t.Errorf("score %s: loaded %f, built %f", id, got[id], w)
		}
	}
}

func TestLoad_MissingArtifacts(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, domain.ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

func TestLoad_MissingMatrixFile(t *testing.T) {
	dir, _ := buildAndSave(t)
	if err := os.Remove(filepath.Join(dir, "matrix.parquet")); err != nil {
		t.Fatal(err)
	}
	_, err := Load(dir)
	if !errors.Is(err, domain.ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

func TestLoad_SchemaVersionMismatch(t *testing.T) {
	dir, _ := buildAndSave(t)
	rewriteManifest(t, dir, func(m *Manifest) { m.SchemaVersion = SchemaVersion + 1 })

	_, err := Load(dir)
	if !errors.Is(err, domain.ErrArtifactMismatch) {
		t.Fatalf("expected ErrArtifactMismatch, got %v", err)
	}
}

func TestLoad_RowCountMismatch(t *testing.T) {
	dir, _ := buildAndSave(t)
	rewriteManifest(t, dir, func(m *Manifest) { m.Rows++ })

	_, err := Load(dir)
	if !errors.Is(err, domain.ErrArtifactMismatch) {
		t.Fatalf("expected ErrArtifactMismatch, got %v", err)
	}
}

func TestLoad_NNZMismatch(t *testing.T) {
	dir, _ := buildAndSave(t)
	rewriteManifest(t, dir, func(m *Manifest) { m.NNZ-- })

	_, err := Load(dir)
	if !errors.Is(err, domain.ErrArtifactMismatch) {
		t.Fatalf("expected ErrArtifactMismatch, got %v", err)
	}
}

func rewriteManifest(t *testing.T, dir string, mutate func(*Manifest)) {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	mutate(&m)
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatal(err)
	}
}
