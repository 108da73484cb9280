// Package chromem implements memory.Store on top of chromem-go, a pure
// Go embedded vector database.
package chromem

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/verdantlabs/gardener/memory"
)

// Store keeps one chromem collection per partition, which gives each
// user structural namespace isolation on top of the user_id metadata
// carried by every document.
type Store struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc
}

// New creates a persistent store rooted at path. An empty path yields an
// in-memory database, used by tests.
func New(path string, embed chromem.EmbeddingFunc) (*Store, error) {
	if path == "" {
		return &Store{db: chromem.NewDB(), embed: embed}, nil
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Store{db: db, embed: embed}, nil
}

func (s *Store) collection(partition string) (*chromem.Collection, error) {
	col, err := s.db.GetOrCreateCollection(partition, nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", partition, err)
	}
	return col, nil
}

// Upsert saves a record into the partition.
func (s *Store) Upsert(ctx context.Context, partition string, rec memory.Record) error {
	col, err := s.collection(partition)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:       rec.ID,
		Content:  rec.Content,
		Metadata: rec.Metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query returns the topN most similar records in the partition. chromem
// rejects nResults larger than the collection, so the limit is clamped.
func (s *Store) Query(ctx context.Context, partition, query string, topN int) ([]memory.Record, error) {
	col := s.db.GetCollection(partition, s.embed)
	if col == nil {
		return nil, nil
	}

	if n := col.Count(); n < topN {
		topN = n
	}
	if topN <= 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, topN, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	recs := make([]memory.Record, len(results))
	for i, res := range results {
		recs[i] = memory.Record{ID: res.ID, Content: res.Content, Metadata: res.Metadata}
	}
	return recs, nil
}

// All returns every record in the partition. chromem has no listing
// primitive, so this queries with the limit pinned to the collection
// size; ranking is irrelevant since everything is returned.
func (s *Store) All(ctx context.Context, partition string) ([]memory.Record, error) {
	col := s.db.GetCollection(partition, s.embed)
	if col == nil {
		return nil, nil
	}
	return s.Query(ctx, partition, "all records", col.Count())
}

// Count reports the number of records in the partition.
func (s *Store) Count(partition string) int {
	col := s.db.GetCollection(partition, s.embed)
	if col == nil {
		return 0
	}
	return col.Count()
}

// Drop removes the partition and its records.
func (s *Store) Drop(ctx context.Context, partition string) error {
	if s.db.GetCollection(partition, s.embed) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(partition); err != nil {
		return fmt.Errorf("delete collection %s: %w", partition, err)
	}
	return nil
}

// Close releases resources. chromem persists writes as they happen, so
// there is nothing to flush.
func (s *Store) Close() error {
	return nil
}
