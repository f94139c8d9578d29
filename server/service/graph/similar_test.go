package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

func setupSimilarNotes(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	service, testStore := newTestService(t)
	ctx := context.Background()
	notebook := createTestNotebook(t, testStore, 1, "work")

	// twin-a and twin-b share content, so their vectors are identical
	for _, uid := range []string{"twin-a", "twin-b"} {
		_, err := testStore.CreateNote(ctx, &store.Note{
			UID:        uid,
			CreatorID:  1,
			NotebookID: notebook.ID,
			Title:      "twin",
			Content:    "identical content about graph databases",
			CreatedTs:  100,
			UpdatedTs:  100,
		})
		require.NoError(t, err)
	}
	createTestNote(t, testStore, 1, notebook.ID, "loner", nil, 200)

	_, err := service.RebuildEmbeddings(ctx, 1, nil, 0)
	require.NoError(t, err)
	return service, testStore
}

func TestFindSimilarNotes(t *testing.T) {
	service, _ := setupSimilarNotes(t)

	minScore := 0.99
	results, err := service.FindSimilarNotes(context.Background(), 1, "twin-a", 0, &minScore)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "twin-b", results[0].NoteUID)
	require.Equal(t, "twin", results[0].Title)
	require.InDelta(t, 1.0, results[0].Score, 1e-3)
}

func TestFindSimilarNotesExcludesSelf(t *testing.T) {
	service, _ := setupSimilarNotes(t)

	minScore := 0.0
	results, err := service.FindSimilarNotes(context.Background(), 1, "twin-a", 20, &minScore)
	require.NoError(t, err)
	for _, result := range results {
		require.NotEqual(t, "twin-a", result.NoteUID)
	}
}

func TestFindSimilarNotesMinScoreFilters(t *testing.T) {
	service, _ := setupSimilarNotes(t)
	ctx := context.Background()

	permissive := 0.0
	all, err := service.FindSimilarNotes(ctx, 1, "twin-a", 20, &permissive)
	require.NoError(t, err)

	strict := 0.99
	filtered, err := service.FindSimilarNotes(ctx, 1, "twin-a", 20, &strict)
	require.NoError(t, err)
	require.LessOrEqual(t, len(filtered), len(all))
	for _, result := range filtered {
		require.GreaterOrEqual(t, result.Score, strict)
	}
}

func TestFindSimilarNotesValidation(t *testing.T) {
	service, testStore := newTestService(t)
	notebook := createTestNotebook(t, testStore, 1, "work")
	createTestNote(t, testStore, 1, notebook.ID, "note-a", nil, 100)
	ctx := context.Background()

	_, err := service.FindSimilarNotes(ctx, 1, "note-a", 21, nil)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeValidation))

	_, err = service.FindSimilarNotes(ctx, 1, "note-a", -1, nil)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeValidation))

	badScore := 1.5
	_, err = service.FindSimilarNotes(ctx, 1, "note-a", 0, &badScore)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeValidation))

	negativeScore := -0.1
	_, err = service.FindSimilarNotes(ctx, 1, "note-a", 0, &negativeScore)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeValidation))
}

func TestFindSimilarNotesUnknownNote(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.FindSimilarNotes(context.Background(), 1, "ghost", 0, nil)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeNotFound))
}

func TestFindSimilarNotesOtherOwner(t *testing.T) {
	service, _ := setupSimilarNotes(t)

	_, err := service.FindSimilarNotes(context.Background(), 2, "twin-a", 0, nil)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeNotFound))
}

func TestFindSimilarNotesNoVector(t *testing.T) {
	service, testStore := newTestService(t)
	notebook := createTestNotebook(t, testStore, 1, "work")
	createTestNote(t, testStore, 1, notebook.ID, "note-a", nil, 100)

	// no rebuild ran, the source note has no vector yet
	results, err := service.FindSimilarNotes(context.Background(), 1, "note-a", 0, nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestFindSimilarNotesCached(t *testing.T) {
	service, testStore := setupSimilarNotes(t)
	ctx := context.Background()

	minScore := 0.99
	first, err := service.FindSimilarNotes(ctx, 1, "twin-a", 5, &minScore)
	require.NoError(t, err)
	require.Len(t, first, 1)

	uid := "twin-b"
	twin, err := testStore.GetNote(ctx, &store.FindNote{UID: &uid})
	require.NoError(t, err)
	require.NoError(t, testStore.DeleteNote(ctx, &store.DeleteNote{ID: twin.ID, DeletedTs: 900}))

	// a direct store delete bypasses invalidation, the cache still answers
	cached, err := service.FindSimilarNotes(ctx, 1, "twin-a", 5, &minScore)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	service.InvalidateSimilarCache(ctx, 1)
	fresh, err := service.FindSimilarNotes(ctx, 1, "twin-a", 5, &minScore)
	require.NoError(t, err)
	require.Empty(t, fresh)
}
