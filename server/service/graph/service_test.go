package graph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/cache"
	"github.com/hrygo/notegraph/plugin/embed"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/teststore"
)

const testDimensions = 64

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	return newTestServiceWithEmbedder(t, embed.NewLocal(testDimensions))
}

func newTestServiceWithEmbedder(t *testing.T, embedder embed.Embedder) (*Service, *store.Store) {
	t.Helper()

	testProfile := &profile.Profile{Mode: "dev", Driver: "sqlite", EmbeddingDimensions: testDimensions}
	testStore := store.New(teststore.New(), testProfile)
	cacheService := cache.NewService(cache.ServiceConfig{
		Capacity:        100,
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(cacheService.Close)

	return NewService(testStore, cacheService, embedder), testStore
}

func createTestNotebook(t *testing.T, s *store.Store, owner int32, name string) *store.Notebook {
	t.Helper()

	notebook, err := s.CreateNotebook(context.Background(), &store.Notebook{
		UID:       "nb-" + name,
		CreatorID: owner,
		Name:      name,
		CreatedTs: 1000,
		UpdatedTs: 1000,
	})
	require.NoError(t, err)
	return notebook
}

func createTestNote(t *testing.T, s *store.Store, owner int32, notebookID int32, uid string, tags []string, updatedTs int64) *store.Note {
	t.Helper()

	note, err := s.CreateNote(context.Background(), &store.Note{
		UID:        uid,
		CreatorID:  owner,
		NotebookID: notebookID,
		Title:      "note " + uid,
		Content:    "content of " + uid,
		Tags:       tags,
		CreatedTs:  updatedTs,
		UpdatedTs:  updatedTs,
	})
	require.NoError(t, err)
	return note
}

// faultyEmbedder fails for content containing the word "boom" and otherwise
// behaves like the local embedder.
type faultyEmbedder struct {
	errorMessage string
}

func (f *faultyEmbedder) Embed(_ context.Context, content string) ([]float32, error) {
	if strings.Contains(content, "boom") {
		message := f.errorMessage
		if message == "" {
			message = "embedding backend unavailable"
		}
		return nil, errors.New(message)
	}
	return embed.BuildVector(content, testDimensions), nil
}

func (f *faultyEmbedder) Dimensions() int {
	return testDimensions
}
