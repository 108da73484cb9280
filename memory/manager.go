package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
)

const (
	// maxTurns bounds the short-term buffer to the most recent K turns
	// per user (2K message units).
	maxTurns = 10

	knowledgePartition = "plant_knowledge"
)

// Manager owns the per-user short-term buffers and fronts the long-term
// store. Construct once at process start and pass by reference; there is
// no ambient singleton.
type Manager struct {
	mu        sync.Mutex
	shortTerm map[string][]core.Message

	store  Store
	logger *zap.Logger
}

// NewManager creates a Manager and seeds the knowledge corpus. Seeding
// is idempotent: it is skipped when the corpus partition is already
// populated.
func NewManager(ctx context.Context, store Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		shortTerm: make(map[string][]core.Message),
		store:     store,
		logger:    logger,
	}

	if err := m.seedKnowledge(ctx); err != nil {
		return nil, fmt.Errorf("seed knowledge corpus: %w", err)
	}
	return m, nil
}

func (m *Manager) seedKnowledge(ctx context.Context) error {
	if n := m.store.Count(knowledgePartition); n > 0 {
		m.logger.Info("knowledge corpus already indexed", zap.Int("records", n))
		return nil
	}

	for _, plant := range knowledgeCorpus {
		rec := Record{
			ID:       plant.id(),
			Content:  plant.document(),
			Metadata: map[string]string{"plant_name": plant.Name},
		}
		if err := m.store.Upsert(ctx, knowledgePartition, rec); err != nil {
			return err
		}
	}

	m.logger.Info("indexed knowledge corpus", zap.Int("plants", len(knowledgeCorpus)))
	return nil
}

func userPartition(userID string) string {
	return "user_" + userID
}

// ShortTerm returns the user's recent conversation history, at most the
// last 2*maxTurns message units in chronological order. Unknown users
// get an empty slice. Never fails.
func (m *Manager) ShortTerm(userID string) []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := m.shortTerm[userID]
	out := make([]core.Message, len(buf))
	copy(out, buf)
	return out
}

// AppendShortTerm appends one turn (user half then agent half) to the
// user's buffer, evicting oldest-first when the bound is exceeded.
func (m *Manager) AppendShortTerm(userID, userText, agentText string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := append(m.shortTerm[userID],
		core.UserMessage(userText),
		core.AssistantMessage(agentText),
	)
	if limit := maxTurns * 2; len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	m.shortTerm[userID] = buf
}

// AddLongTerm stores one turn as a single concatenated record in the
// user's partition. Record IDs are UUIDs: a per-user write counter would
// race under concurrent writers and silently overwrite records.
func (m *Manager) AddLongTerm(ctx context.Context, userID, userText, agentText string) {
	rec := Record{
		ID:       uuid.NewString(),
		Content:  fmt.Sprintf("User: %s\nAssistant: %s", userText, agentText),
		Metadata: map[string]string{"user_id": userID},
	}

	if err := m.store.Upsert(ctx, userPartition(userID), rec); err != nil {
		m.logger.Error("failed to add long-term memory",
			zap.String("user", userID), zap.Error(err))
	}
}

// QueryLongTerm retrieves the most relevant past turns for the query,
// scoped to the user's partition, joined by a blank line. Returns ""
// on no results or any retrieval failure; this is a soft dependency.
func (m *Manager) QueryLongTerm(ctx context.Context, userID, query string, topN int) string {
	recs, err := m.store.Query(ctx, userPartition(userID), query, topN)
	if err != nil {
		m.logger.Error("long-term retrieval failed",
			zap.String("user", userID), zap.Error(err))
		return ""
	}
	return joinContents(recs)
}

// QueryKnowledge retrieves plant-care reference entries relevant to the
// query from the shared corpus. Same soft-failure semantics as
// QueryLongTerm.
func (m *Manager) QueryKnowledge(ctx context.Context, query string, topN int) string {
	recs, err := m.store.Query(ctx, knowledgePartition, query, topN)
	if err != nil {
		m.logger.Error("knowledge retrieval failed", zap.Error(err))
		return ""
	}
	return joinContents(recs)
}

func joinContents(recs []Record) string {
	if len(recs) == 0 {
		return ""
	}
	parts := make([]string, len(recs))
	for i, r := range recs {
		parts[i] = r.Content
	}
	return strings.Join(parts, "\n\n")
}

// MentionedPlants scans the user's long-term text for known plant
// keywords and returns the matches, capitalized and sorted. An
// approximation of "which plants does this user grow", not extraction.
func (m *Manager) MentionedPlants(ctx context.Context, userID string) []string {
	recs, err := m.store.All(ctx, userPartition(userID))
	if err != nil {
		m.logger.Error("failed to list user records",
			zap.String("user", userID), zap.Error(err))
		return nil
	}

	seen := make(map[string]bool)
	for _, rec := range recs {
		lowered := strings.ToLower(rec.Content)
		for _, kw := range plantKeywords {
			if strings.Contains(lowered, kw) {
				seen[strings.ToUpper(kw[:1])+kw[1:]] = true
			}
		}
	}

	plants := make([]string, 0, len(seen))
	for p := range seen {
		plants = append(plants, p)
	}
	sort.Strings(plants)
	return plants
}

// ClearUser removes the user's short-term buffer and long-term
// partition. Subsequent reads for the user observe no partial state.
func (m *Manager) ClearUser(ctx context.Context, userID string) {
	m.mu.Lock()
	delete(m.shortTerm, userID)
	m.mu.Unlock()

	if err := m.store.Drop(ctx, userPartition(userID)); err != nil {
		m.logger.Error("failed to clear long-term memory",
			zap.String("user", userID), zap.Error(err))
	}
	m.logger.Info("cleared memory", zap.String("user", userID))
}
