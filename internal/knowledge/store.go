package knowledge

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
)

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk domain.TextChunk
	Score float64
}

// Store is the persistent, content-addressed knowledge index: chunk metadata
// and embeddings live in SQLite, while normalized vectors are mirrored in
// memory for brute-force cosine search. At the scale of a study corpus this
// is exact and sub-millisecond.
//
// All writes are keyed by content hash and serialized internally, so
// concurrent upserts of the same chunk are safe without caller locking.
type Store struct {
	db       *sql.DB
	embedder generation.Embedder
	logger   *slog.Logger

	mu      sync.RWMutex
	vectors map[string][]float32 // chunk ID -> normalized embedding
	order   map[string]int64     // chunk ID -> insertion rowid, the query tie-break
}

// NewStore opens (or creates) the store at path and loads existing vectors.
// Use ":memory:" for an ephemeral store in tests.
func NewStore(path string, embedder generation.Embedder, logger *slog.Logger) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder cannot be nil", domain.ErrStore)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", domain.ErrStore)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create store directory: %v", domain.ErrStore, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", domain.ErrStore, err)
	}

	s := &Store{
		db:       db,
		embedder: embedder,
		logger:   logger,
		vectors:  make(map[string][]float32),
		order:    make(map[string]int64),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrStore, err)
	}
	if err := s.loadVectors(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: load: %v", domain.ErrStore, err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			source      TEXT NOT NULL,
			provenance  TEXT NOT NULL,
			text        TEXT NOT NULL,
			embedding   BLOB NOT NULL,
			dimensions  INTEGER NOT NULL
		)
	`)
	return err
}

func (s *Store) loadVectors() error {
	rows, err := s.db.Query("SELECT rowid, id, embedding, dimensions FROM chunks")
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			rowid int64
			id    string
			blob  []byte
			dims  int
		)
		if err := rows.Scan(&rowid, &id, &blob, &dims); err != nil {
			return err
		}
		s.vectors[id] = blobToFloat32(blob, dims)
		s.order[id] = rowid
	}
	return rows.Err()
}

// Upsert embeds and stores the given chunks. Chunks whose content hash is
// already present are updated in place, not appended, so re-ingesting
// unchanged material is a no-op. Safe to call repeatedly with overlapping
// chunk sets.
func (s *Store) Upsert(ctx context.Context, chunks []*domain.TextChunk) error {
	for _, chunk := range chunks {
		vec := chunk.Embedding
		if vec == nil {
			var err error
			vec, err = s.embedder.EmbedDocument(ctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("%w: embed chunk %s: %v", domain.ErrStore, chunk.ID, err)
			}
		}
		normalized := normalize(vec)

		s.mu.Lock()
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, seq, source, provenance, text, embedding, dimensions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document_id=excluded.document_id,
				seq=excluded.seq,
				source=excluded.source,
				provenance=excluded.provenance,
				text=excluded.text,
				embedding=excluded.embedding,
				dimensions=excluded.dimensions
		`, chunk.ID, chunk.DocumentID, chunk.Seq, chunk.Source, string(chunk.Provenance),
			chunk.Text, float32ToBlob(normalized), len(normalized))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: upsert chunk %s: %v", domain.ErrStore, chunk.ID, err)
		}

		s.vectors[chunk.ID] = normalized
		if _, seen := s.order[chunk.ID]; !seen {
			var rowid int64
			if err := s.db.QueryRowContext(ctx,
				"SELECT rowid FROM chunks WHERE id = ?", chunk.ID).Scan(&rowid); err != nil {
				s.mu.Unlock()
				return fmt.Errorf("%w: rowid for chunk %s: %v", domain.ErrStore, chunk.ID, err)
			}
			s.order[chunk.ID] = rowid
		}
		s.mu.Unlock()
	}
	return nil
}

// Query returns the top-k chunks by cosine similarity to the query text,
// ordered by descending score with ties broken by insertion order. The
// ordering is fully deterministic for reproducible downstream ranking.
func (s *Store) Query(ctx context.Context, text string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrStore, err)
	}
	normalized := normalize(queryVec)

	type scored struct {
		id    string
		score float64
		rowid int64
	}

	s.mu.RLock()
	results := make([]scored, 0, len(s.vectors))
	for id, vec := range s.vectors {
		if len(vec) != len(normalized) {
			continue
		}
		results = append(results, scored{id: id, score: dotProduct(normalized, vec), rowid: s.order[id]})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].rowid < results[j].rowid
	})
	if len(results) > k {
		results = results[:k]
	}

	out := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk, err := s.getChunk(ctx, r.id)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredChunk{Chunk: *chunk, Score: r.score})
	}
	return out, nil
}

func (s *Store) getChunk(ctx context.Context, id string) (*domain.TextChunk, error) {
	var (
		chunk      domain.TextChunk
		provenance string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, seq, source, provenance, text
		FROM chunks WHERE id = ?
	`, id).Scan(&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Source, &provenance, &chunk.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: read chunk %s: %v", domain.ErrStore, id, err)
	}
	chunk.Provenance = domain.Provenance(provenance)
	return &chunk, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrStore, err)
	}
	return n, nil
}

// Reset deletes all indexed content and reinitializes the store.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS chunks"); err != nil {
		return fmt.Errorf("%w: reset: %v", domain.ErrStore, err)
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("%w: reset migrate: %v", domain.ErrStore, err)
	}
	s.vectors = make(map[string][]float32)
	s.order = make(map[string]int64)
	s.logger.InfoContext(ctx, "knowledge store reset")
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func blobToFloat32(blob []byte, dims int) []float32 {
	vec := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(blob); i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
