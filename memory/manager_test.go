package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
	"github.com/verdantlabs/gardener/memory"
	"github.com/verdantlabs/gardener/memory/store/chromem"
)

func newManager(t *testing.T) *memory.Manager {
	t.Helper()

	store, err := chromem.New("", memory.LocalEmbedding(64))
	require.NoError(t, err)

	m, err := memory.NewManager(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	return m
}

func TestShortTerm_UnknownUserEmpty(t *testing.T) {
	m := newManager(t)
	assert.Empty(t, m.ShortTerm("nobody"))
}

func TestShortTerm_BoundedFIFO(t *testing.T) {
	m := newManager(t)

	for n := 1; n <= 15; n++ {
		m.AppendShortTerm("u1", fmt.Sprintf("question %d", n), fmt.Sprintf("answer %d", n))

		want := 2 * n
		if want > 20 {
			want = 20
		}
		assert.Len(t, m.ShortTerm("u1"), want, "after %d turns", n)
	}

	// Oldest turns evicted first; the newest turn is always last.
	buf := m.ShortTerm("u1")
	assert.Equal(t, core.RoleUser, buf[0].Role)
	assert.Equal(t, "question 6", buf[0].Content)
	assert.Equal(t, "answer 15", buf[len(buf)-1].Content)
}

func TestLongTerm_UserIsolation(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	m.AddLongTerm(ctx, "user1", "I grow tomatoes", "Tomatoes need regular watering")
	m.AddLongTerm(ctx, "user2", "I grow roses", "Roses like morning sun")

	got := m.QueryLongTerm(ctx, "user1", "my plants", 3)
	assert.Contains(t, got, "tomatoes")
	assert.NotContains(t, got, "roses")

	got = m.QueryLongTerm(ctx, "user2", "my plants", 3)
	assert.Contains(t, got, "roses")
	assert.NotContains(t, got, "tomatoes")
}

func TestQueryLongTerm_EmptyForUnknownUser(t *testing.T) {
	m := newManager(t)
	assert.Empty(t, m.QueryLongTerm(context.Background(), "nobody", "anything", 3))
}

func TestQueryKnowledge_SeededCorpus(t *testing.T) {
	m := newManager(t)

	got := m.QueryKnowledge(context.Background(), "tomato care", 5)
	assert.Contains(t, got, "Tomato")
	assert.Contains(t, got, "Water")
}

func TestKnowledgeSeeding_Idempotent(t *testing.T) {
	store, err := chromem.New("", memory.LocalEmbedding(64))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = memory.NewManager(ctx, store, zap.NewNop())
	require.NoError(t, err)
	seeded := store.Count("plant_knowledge")
	require.Greater(t, seeded, 0)

	// Re-running initialization against the same store must not
	// duplicate entries.
	_, err = memory.NewManager(ctx, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, seeded, store.Count("plant_knowledge"))
}

func TestMentionedPlants(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	m.AddLongTerm(ctx, "u1", "My tomato plants are wilting", "Check soil moisture")
	m.AddLongTerm(ctx, "u1", "I also keep a cactus on the windowsill", "Cacti need little water")
	m.AddLongTerm(ctx, "u2", "My orchid is blooming", "Lovely!")

	assert.Equal(t, []string{"Cactus", "Tomato"}, m.MentionedPlants(ctx, "u1"))
	assert.Equal(t, []string{"Orchid"}, m.MentionedPlants(ctx, "u2"))
	assert.Empty(t, m.MentionedPlants(ctx, "u3"))
}

func TestClearUser(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	m.AppendShortTerm("u1", "hello", "hi there")
	m.AddLongTerm(ctx, "u1", "I grow basil", "Basil likes sun")
	m.AddLongTerm(ctx, "u2", "I grow mint", "Mint spreads fast")

	m.ClearUser(ctx, "u1")

	assert.Empty(t, m.ShortTerm("u1"))
	assert.Empty(t, m.QueryLongTerm(ctx, "u1", "basil", 3))

	// Other users are untouched.
	assert.Contains(t, m.QueryLongTerm(ctx, "u2", "mint", 3), "mint")
}
