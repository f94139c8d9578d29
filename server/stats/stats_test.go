package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/cache"
	"github.com/hrygo/notegraph/plugin/embed"
	"github.com/hrygo/notegraph/server/service/graph"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/teststore"
)

func newTestCollector(t *testing.T) (*Collector, *store.Store, *graph.Service) {
	t.Helper()

	testProfile := &profile.Profile{Mode: "dev", Driver: "sqlite", EmbeddingDimensions: 32}
	testStore := store.New(teststore.New(), testProfile)
	cacheService := cache.NewService(cache.ServiceConfig{
		Capacity:        100,
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(cacheService.Close)

	graphService := graph.NewService(testStore, cacheService, embed.NewLocal(32))
	return NewCollector(testStore), testStore, graphService
}

func TestCollectOwner(t *testing.T) {
	collector, testStore, graphService := newTestCollector(t)
	ctx := context.Background()
	owner := int32(1)

	notebook, err := testStore.CreateNotebook(ctx, &store.Notebook{
		UID: "nb-1", CreatorID: owner, Name: "work", CreatedTs: 100, UpdatedTs: 100,
	})
	require.NoError(t, err)

	for _, uid := range []string{"note-a", "note-b"} {
		_, err := testStore.CreateNote(ctx, &store.Note{
			UID:        uid,
			CreatorID:  owner,
			NotebookID: notebook.ID,
			Content:    "content",
			Tags:       []string{"go"},
			CreatedTs:  100,
			UpdatedTs:  100,
		})
		require.NoError(t, err)
	}

	candidates, err := graphService.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	_, err = graphService.ConfirmEdge(ctx, owner, candidates[0].ID)
	require.NoError(t, err)

	_, err = graphService.RebuildEmbeddings(ctx, owner, []string{"note-a"}, 0)
	require.NoError(t, err)

	stats, err := collector.CollectOwner(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Notes)
	require.EqualValues(t, 1, stats.Notebooks)
	require.EqualValues(t, 0, stats.CandidateEdges)
	require.EqualValues(t, 1, stats.ConfirmedEdges)
	require.EqualValues(t, 0, stats.RejectedEdges)
	require.EqualValues(t, 1, stats.EmbeddedNotes)
}

func TestCollectOwnerCached(t *testing.T) {
	collector, testStore, _ := newTestCollector(t)
	ctx := context.Background()
	owner := int32(1)

	first, err := collector.CollectOwner(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, first.Notes)

	_, err = testStore.CreateNote(ctx, &store.Note{
		UID: "note-a", CreatorID: owner, NotebookID: 1, Content: "x", CreatedTs: 100, UpdatedTs: 100,
	})
	require.NoError(t, err)

	// the cached snapshot is served until invalidated
	cached, err := collector.CollectOwner(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, cached.Notes)

	collector.Invalidate(owner)
	fresh, err := collector.CollectOwner(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 1, fresh.Notes)
}

func TestCollectOwnerEmpty(t *testing.T) {
	collector, _, _ := newTestCollector(t)

	stats, err := collector.CollectOwner(context.Background(), 42)
	require.NoError(t, err)
	require.Zero(t, stats.Notes)
	require.Zero(t, stats.Notebooks)
	require.Zero(t, stats.CandidateEdges)
}
