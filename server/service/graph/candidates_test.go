package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func TestGenerateCandidates(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-b", []string{"go", "db"}, 100)
	createTestNote(t, testStore, owner, notebook.ID, "note-a", []string{"go", "db"}, 200)
	createTestNote(t, testStore, owner, notebook.ID, "note-c", []string{"cooking"}, 300)

	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	edge := candidates[0]
	require.Equal(t, "note-a", edge.FromUID)
	require.Equal(t, "note-b", edge.ToUID)
	require.Equal(t, store.EdgeTypeRelated, edge.Type)
	require.Equal(t, store.EdgeStatusCandidate, edge.Status)
	require.Equal(t, store.EdgeOriginAuto, edge.Origin)
	require.Equal(t, 1.0, edge.Weight)
	require.Equal(t, "2 shared tags out of 2, same notebook", edge.Reason)
}

func TestGenerateCandidatesIdempotent(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", []string{"go"}, 100)
	createTestNote(t, testStore, owner, notebook.ID, "note-b", []string{"go"}, 200)

	first, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, first[0].ID, second[0].ID)
}

func TestGenerateCandidatesSkipsDecidedPairs(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", []string{"go"}, 100)
	createTestNote(t, testStore, owner, notebook.ID, "note-b", []string{"go"}, 200)

	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	_, err = service.RejectEdge(ctx, owner, candidates[0].ID)
	require.NoError(t, err)

	// a rejected pair stays decided, the generator must not revive it
	candidates, err = service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestGenerateCandidatesThreshold(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	work := createTestNotebook(t, testStore, owner, "work")
	other := createTestNotebook(t, testStore, owner, "other")

	tenTags := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	sevenTags := tenTags[:7]

	// jaccard 7/10 = 0.7, exactly at the threshold
	createTestNote(t, testStore, owner, work.ID, "at-threshold-a", tenTags, 100)
	createTestNote(t, testStore, owner, other.ID, "at-threshold-b", sevenTags, 200)

	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, 0.7, candidates[0].Weight)
}

func TestGenerateCandidatesBonusCrossesThreshold(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	work := createTestNotebook(t, testStore, owner, "work")
	other := createTestNotebook(t, testStore, owner, "other")

	tenTags := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	sixTags := tenTags[:6]

	// jaccard 6/10 = 0.6, below threshold across notebooks
	createTestNote(t, testStore, owner, work.ID, "below-a", tenTags, 100)
	createTestNote(t, testStore, owner, other.ID, "below-b", sixTags, 200)

	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, candidates)

	// the same overlap within one notebook clears the bar: 0.6 + 0.1
	createTestNote(t, testStore, owner, work.ID, "same-nb-b", sixTags, 300)
	candidates, err = service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "below-a", candidates[0].FromUID)
	require.Equal(t, "same-nb-b", candidates[0].ToUID)
	require.Equal(t, 0.7, candidates[0].Weight)
}

func TestGenerateCandidatesCapped(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	// 7 notes with identical tags give 21 eligible pairs, one over the cap
	for i := 0; i < 7; i++ {
		createTestNote(t, testStore, owner, notebook.ID, fmt.Sprintf("note-%d", i), []string{"go"}, int64(100+i))
	}

	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, maxCandidatesPerRun)

	// the overflow pair is picked up by the next run
	candidates, err = service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 21)
}

func TestGenerateCandidatesIgnoresDeletedNotes(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", []string{"go"}, 100)
	doomed := createTestNote(t, testStore, owner, notebook.ID, "note-b", []string{"go"}, 200)

	require.NoError(t, testStore.DeleteNote(ctx, &store.DeleteNote{ID: doomed.ID, DeletedTs: 300}))

	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestGenerateCandidatesClusteredNotes(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "algorithms")
	createTestNote(t, testStore, owner, notebook.ID, "base", []string{"graph", "tree", "dp"}, 100)
	createTestNote(t, testStore, owner, notebook.ID, "bfs", []string{"graph", "tree", "dp", "bfs"}, 200)
	createTestNote(t, testStore, owner, notebook.ID, "dfs", []string{"graph", "tree", "dp", "dfs"}, 300)

	// every pair has jaccard >= 0.6 and the same-notebook bonus lifts all
	// three over the threshold
	candidates, err := service.GenerateCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	for _, edge := range candidates {
		require.Equal(t, store.EdgeStatusCandidate, edge.Status)
		require.Equal(t, store.EdgeOriginAuto, edge.Origin)
		require.GreaterOrEqual(t, edge.Weight, 0.7)
	}
}

func TestGenerateCandidatesScopedToOwner(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()

	nb1 := createTestNotebook(t, testStore, 1, "owner1")
	nb2 := createTestNotebook(t, testStore, 2, "owner2")
	createTestNote(t, testStore, 1, nb1.ID, "o1-note", []string{"go"}, 100)
	createTestNote(t, testStore, 2, nb2.ID, "o2-note", []string{"go"}, 200)

	// notes of different owners never pair up
	candidates, err := service.GenerateCandidates(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, candidates)
}
