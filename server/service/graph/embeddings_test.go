package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

func TestRebuildEmbeddings(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", nil, 100)
	createTestNote(t, testStore, owner, notebook.ID, "note-b", nil, 200)

	result, err := service.RebuildEmbeddings(ctx, owner, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.Scheduled)
	require.Equal(t, 2, result.Succeeded)
	require.Zero(t, result.Failed)
	require.ElementsMatch(t, []string{"note-a", "note-b"}, result.NoteUIDs)

	uid := "note-a"
	record, err := testStore.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{NoteUID: &uid})
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, store.EmbeddingStatusSucceeded, record.Status)
	require.Len(t, record.Vector, testDimensions)
	require.NotNil(t, record.LastEmbeddedTs)
	require.Empty(t, record.LastError)
	require.Contains(t, record.SourceContent, "note note-a")
}

func TestPrepareRebuild(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", nil, 100)

	result, err := service.PrepareRebuild(ctx, owner, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Scheduled)
	require.Equal(t, []string{"note-a"}, result.NoteUIDs)

	// scheduling alone leaves the row PENDING without a vector
	uid := "note-a"
	record, err := testStore.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{NoteUID: &uid})
	require.NoError(t, err)
	require.Equal(t, store.EmbeddingStatusPending, record.Status)
	require.Nil(t, record.Vector)
}

func TestPrepareRebuildEmptyOwner(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.PrepareRebuild(context.Background(), 1, nil, 0)
	require.NoError(t, err)
	require.Zero(t, result.Scheduled)
	require.Empty(t, result.NoteUIDs)
}

func TestRebuildEmbeddingsPartialFailure(t *testing.T) {
	service, testStore := newTestServiceWithEmbedder(t, &faultyEmbedder{})
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-ok", nil, 100)
	bad, err := testStore.CreateNote(ctx, &store.Note{
		UID:        "note-bad",
		CreatorID:  owner,
		NotebookID: notebook.ID,
		Title:      "broken",
		Content:    "this one goes boom",
		CreatedTs:  200,
		UpdatedTs:  200,
	})
	require.NoError(t, err)

	result, err := service.RebuildEmbeddings(ctx, owner, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.Scheduled)
	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 1, result.Failed)

	record, err := testStore.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{NoteUID: &bad.UID})
	require.NoError(t, err)
	require.Equal(t, store.EmbeddingStatusFailed, record.Status)
	require.Nil(t, record.Vector)
	require.Equal(t, "embedding backend unavailable", record.LastError)
}

func TestRebuildEmbeddingsTruncatesError(t *testing.T) {
	service, testStore := newTestServiceWithEmbedder(t, &faultyEmbedder{
		errorMessage: strings.Repeat("x", 800),
	})
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	_, err := testStore.CreateNote(ctx, &store.Note{
		UID:        "note-bad",
		CreatorID:  owner,
		NotebookID: notebook.ID,
		Content:    "boom",
		CreatedTs:  100,
		UpdatedTs:  100,
	})
	require.NoError(t, err)

	result, err := service.RebuildEmbeddings(ctx, owner, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)

	uid := "note-bad"
	record, err := testStore.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{NoteUID: &uid})
	require.NoError(t, err)
	require.Len(t, record.LastError, maxStoredErrorLen)
}

func TestRebuildEmbeddingsExplicitSelection(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", nil, 100)
	createTestNote(t, testStore, owner, notebook.ID, "note-b", nil, 200)

	result, err := service.RebuildEmbeddings(ctx, owner, []string{"note-a"}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"note-a"}, result.NoteUIDs)

	uid := "note-b"
	record, err := testStore.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{NoteUID: &uid})
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestRebuildEmbeddingsMissingSelection(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", nil, 100)

	_, err := service.RebuildEmbeddings(ctx, owner, []string{"note-a", "ghost-1", "ghost-2"}, 0)
	require.Error(t, err)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeNotFound))
	require.Contains(t, err.Error(), "ghost-1, ghost-2")

	// nothing is scheduled when the selection fails to resolve
	uid := "note-a"
	record, err := testStore.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{NoteUID: &uid})
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestRebuildEmbeddingsNegativeLimit(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.RebuildEmbeddings(context.Background(), 1, nil, -1)
	require.Error(t, err)
	require.True(t, apierrors.IsCode(err, apierrors.ErrCodeValidation))
}

func TestRebuildEmbeddingsLimitPicksMostRecent(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-old", nil, 100)
	createTestNote(t, testStore, owner, notebook.ID, "note-new", nil, 500)

	result, err := service.RebuildEmbeddings(ctx, owner, nil, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"note-new"}, result.NoteUIDs)
}

func TestRebuildEmbeddingsReusesRecords(t *testing.T) {
	service, testStore := newTestService(t)
	ctx := context.Background()
	owner := int32(1)

	notebook := createTestNotebook(t, testStore, owner, "work")
	createTestNote(t, testStore, owner, notebook.ID, "note-a", nil, 100)

	first, err := service.RebuildEmbeddings(ctx, owner, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, first.Succeeded)

	second, err := service.RebuildEmbeddings(ctx, owner, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, second.Succeeded)

	// the chunk-0 record is reset in place, not duplicated
	uid := "note-a"
	records, err := testStore.ListNoteEmbeddings(ctx, &store.FindNoteEmbedding{NoteUID: &uid})
	require.NoError(t, err)
	require.Len(t, records, 1)
}
