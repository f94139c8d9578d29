package v1

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/notegraph/plugin/markdown"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/queryengine"
	"github.com/hrygo/notegraph/store"
)

type Note struct {
	UID        string   `json:"uid"`
	NotebookID int32    `json:"notebookId"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	CreatedTs  int64    `json:"createdTs"`
	UpdatedTs  int64    `json:"updatedTs"`
}

type CreateNoteRequest struct {
	NotebookID int32    `json:"notebookId" validate:"required,gt=0"`
	Title      string   `json:"title" validate:"max=512"`
	Content    string   `json:"content" validate:"required"`
	Summary    string   `json:"summary" validate:"max=2048"`
	Tags       []string `json:"tags" validate:"max=64,dive,max=128"`
}

type UpdateNoteRequest struct {
	NotebookID *int32    `json:"notebookId" validate:"omitempty,gt=0"`
	Title      *string   `json:"title" validate:"omitempty,max=512"`
	Content    *string   `json:"content"`
	Summary    *string   `json:"summary" validate:"omitempty,max=2048"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=64,dive,max=128"`
}

func (s *APIV1Service) CreateNote(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	request := &CreateNoteRequest{}
	if err := s.bindAndValidate(c, request); err != nil {
		return respondError(c, err)
	}

	notebook, err := s.Store.GetNotebook(ctx, &store.FindNotebook{ID: &request.NotebookID, CreatorID: &owner})
	if err != nil {
		return respondError(c, err)
	}
	if notebook == nil {
		return respondError(c, apierrors.NotFound("notebook %d not found", request.NotebookID))
	}

	now := time.Now().Unix()
	note, err := s.Store.CreateNote(ctx, &store.Note{
		UID:        shortuuid.New(),
		CreatorID:  owner,
		NotebookID: request.NotebookID,
		Title:      request.Title,
		Content:    request.Content,
		Summary:    request.Summary,
		Tags:       mergeTags(request.Tags, request.Content),
		CreatedTs:  now,
		UpdatedTs:  now,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.Graph.InvalidateSimilarCache(ctx, owner)
	return c.JSON(http.StatusOK, convertNote(note))
}

// ListNotes returns the owner's live notes, most recently updated first. An
// optional CEL expression in the filter query parameter narrows the result,
// e.g. ?filter="golang" in tags.
func (s *APIV1Service) ListNotes(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}

	notes, err := s.Store.ListNotes(c.Request().Context(), &store.FindNote{
		CreatorID:        &owner,
		OrderByUpdatedTs: true,
	})
	if err != nil {
		return respondError(c, err)
	}

	if expression := c.QueryParam("filter"); expression != "" {
		filter, err := queryengine.CompileNoteFilter(expression)
		if err != nil {
			return respondError(c, apierrors.Validation("invalid filter: %v", err))
		}
		notes, err = queryengine.FilterNotes(filter, notes)
		if err != nil {
			return respondError(c, apierrors.Validation("failed to apply filter: %v", err))
		}
	}

	response := make([]*Note, 0, len(notes))
	for _, note := range notes {
		response = append(response, convertNote(note))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetNote(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	note, err := s.findOwnedNote(c, owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNote(note))
}

func (s *APIV1Service) UpdateNote(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	note, err := s.findOwnedNote(c, owner)
	if err != nil {
		return respondError(c, err)
	}
	request := &UpdateNoteRequest{}
	if err := s.bindAndValidate(c, request); err != nil {
		return respondError(c, err)
	}

	if request.NotebookID != nil {
		notebook, err := s.Store.GetNotebook(ctx, &store.FindNotebook{ID: request.NotebookID, CreatorID: &owner})
		if err != nil {
			return respondError(c, err)
		}
		if notebook == nil {
			return respondError(c, apierrors.NotFound("notebook %d not found", *request.NotebookID))
		}
	}

	update := &store.UpdateNote{
		ID:         note.ID,
		NotebookID: request.NotebookID,
		Title:      request.Title,
		Content:    request.Content,
		Summary:    request.Summary,
		UpdatedTs:  time.Now().Unix(),
	}
	if request.Tags != nil || request.Content != nil {
		tags := note.Tags
		if request.Tags != nil {
			tags = *request.Tags
		}
		content := note.Content
		if request.Content != nil {
			content = *request.Content
		}
		update.Tags = mergeTags(tags, content)
	}
	if err := s.Store.UpdateNote(ctx, update); err != nil {
		return respondError(c, err)
	}

	updated, err := s.Store.GetNote(ctx, &store.FindNote{ID: &note.ID})
	if err != nil {
		return respondError(c, err)
	}

	s.Graph.InvalidateSimilarCache(ctx, owner)
	return c.JSON(http.StatusOK, convertNote(updated))
}

func (s *APIV1Service) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	note, err := s.findOwnedNote(c, owner)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.Store.DeleteNote(ctx, &store.DeleteNote{
		ID:        note.ID,
		DeletedTs: time.Now().Unix(),
	}); err != nil {
		return respondError(c, err)
	}

	s.Graph.InvalidateSimilarCache(ctx, owner)
	return c.NoContent(http.StatusNoContent)
}

// findOwnedNote resolves the :uid path parameter to a live note of the
// owner. Another owner's note reads as missing.
func (s *APIV1Service) findOwnedNote(c echo.Context, owner int32) (*store.Note, error) {
	uid := c.Param("uid")
	note, err := s.Store.GetNote(c.Request().Context(), &store.FindNote{
		UID:       &uid,
		CreatorID: &owner,
	})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apierrors.NotFound("note %s not found", uid)
	}
	return note, nil
}

// mergeTags combines explicit tags with hashtags found in the content, all
// lowercase-normalized and deduplicated.
func mergeTags(explicit []string, content string) []string {
	merged := markdown.NormalizeTags(explicit)
	seen := make(map[string]bool, len(merged))
	for _, tag := range merged {
		seen[tag] = true
	}
	for _, tag := range markdown.ExtractTags(content) {
		if !seen[tag] {
			merged = append(merged, tag)
			seen[tag] = true
		}
	}
	sort.Strings(merged)
	return merged
}

func convertNote(note *store.Note) *Note {
	return &Note{
		UID:        note.UID,
		NotebookID: note.NotebookID,
		Title:      note.Title,
		Content:    note.Content,
		Summary:    note.Summary,
		Tags:       note.Tags,
		CreatedTs:  note.CreatedTs,
		UpdatedTs:  note.UpdatedTs,
	}
}
