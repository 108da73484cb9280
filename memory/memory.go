package memory

import "context"

// Record is one stored unit of long-term memory: free text plus metadata.
type Record struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Store is the vector storage backend interface. Implementations index
// records by semantic similarity within named partitions; the Manager
// uses one partition per user plus a global knowledge partition.
type Store interface {
	// Upsert saves a record into the partition.
	Upsert(ctx context.Context, partition string, rec Record) error

	// Query returns up to topN records from the partition, most similar
	// to the query text first.
	Query(ctx context.Context, partition, query string, topN int) ([]Record, error)

	// All returns every record in the partition.
	All(ctx context.Context, partition string) ([]Record, error)

	// Count reports the number of records in the partition.
	Count(partition string) int

	// Drop removes the partition and all its records.
	Drop(ctx context.Context, partition string) error

	// Close releases resources.
	Close() error
}
