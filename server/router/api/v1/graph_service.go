package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

type NoteEdge struct {
	ID        int32   `json:"id"`
	FromUID   string  `json:"fromUid"`
	ToUID     string  `json:"toUid"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
	Status    string  `json:"status"`
	Origin    string  `json:"origin"`
	Reason    string  `json:"reason"`
	CreatedTs int64   `json:"createdTs"`
	UpdatedTs int64   `json:"updatedTs"`
}

type CreateEdgeRequest struct {
	FromUID string `json:"fromUid" validate:"required"`
	ToUID   string `json:"toUid" validate:"required"`
	Reason  string `json:"reason" validate:"max=512"`
}

type RebuildEmbeddingsRequest struct {
	NoteUIDs []string `json:"noteUids" validate:"dive,required"`
	Limit    int      `json:"limit" validate:"gte=0"`
}

// GenerateCandidates runs candidate generation for the owner and returns the
// full pending candidate set.
func (s *APIV1Service) GenerateCandidates(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	candidates, err := s.Graph.GenerateCandidates(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNoteEdges(candidates))
}

func (s *APIV1Service) ListCandidates(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	candidates, err := s.Graph.ListCandidates(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNoteEdges(candidates))
}

func (s *APIV1Service) ListNoteEdges(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	edges, err := s.Graph.ListEdgesForNote(c.Request().Context(), owner, c.Param("uid"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNoteEdges(edges))
}

func (s *APIV1Service) CreateEdge(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	request := &CreateEdgeRequest{}
	if err := s.bindAndValidate(c, request); err != nil {
		return respondError(c, err)
	}
	edge, err := s.Graph.CreateEdge(c.Request().Context(), owner, request.FromUID, request.ToUID, request.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNoteEdge(edge))
}

func (s *APIV1Service) ConfirmEdge(c echo.Context) error {
	return s.transitionEdge(c, store.EdgeStatusConfirmed)
}

func (s *APIV1Service) RejectEdge(c echo.Context) error {
	return s.transitionEdge(c, store.EdgeStatusRejected)
}

func (s *APIV1Service) transitionEdge(c echo.Context, status store.EdgeStatus) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	edgeID, err := edgeIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var edge *store.NoteEdge
	if status == store.EdgeStatusConfirmed {
		edge, err = s.Graph.ConfirmEdge(c.Request().Context(), owner, edgeID)
	} else {
		edge, err = s.Graph.RejectEdge(c.Request().Context(), owner, edgeID)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNoteEdge(edge))
}

func (s *APIV1Service) PrepareEmbeddingRebuild(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	request := &RebuildEmbeddingsRequest{}
	if err := s.bindAndValidate(c, request); err != nil {
		return respondError(c, err)
	}
	result, err := s.Graph.PrepareRebuild(c.Request().Context(), owner, request.NoteUIDs, request.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *APIV1Service) RebuildEmbeddings(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	request := &RebuildEmbeddingsRequest{}
	if err := s.bindAndValidate(c, request); err != nil {
		return respondError(c, err)
	}
	result, err := s.Graph.RebuildEmbeddings(c.Request().Context(), owner, request.NoteUIDs, request.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// FindSimilarNotes handles GET /notes/:uid/similar?limit=&minScore=.
func (s *APIV1Service) FindSimilarNotes(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return respondError(c, apierrors.Validation("invalid limit: %s", raw))
		}
	}
	var minScore *float64
	if raw := c.QueryParam("minScore"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return respondError(c, apierrors.Validation("invalid minScore: %s", raw))
		}
		minScore = &parsed
	}

	results, err := s.Graph.FindSimilarNotes(c.Request().Context(), owner, c.Param("uid"), limit, minScore)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *APIV1Service) GetGraphStats(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	stats, err := s.Stats.CollectOwner(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func edgeIDParam(c echo.Context) (int32, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, apierrors.Validation("invalid edge id: %s", raw)
	}
	return int32(id), nil
}

func convertNoteEdge(edge *store.NoteEdge) *NoteEdge {
	return &NoteEdge{
		ID:        edge.ID,
		FromUID:   edge.FromUID,
		ToUID:     edge.ToUID,
		Type:      edge.Type,
		Weight:    edge.Weight,
		Status:    string(edge.Status),
		Origin:    string(edge.Origin),
		Reason:    edge.Reason,
		CreatedTs: edge.CreatedTs,
		UpdatedTs: edge.UpdatedTs,
	}
}

func convertNoteEdges(edges []*store.NoteEdge) []*NoteEdge {
	converted := make([]*NoteEdge, 0, len(edges))
	for _, edge := range edges {
		converted = append(converted, convertNoteEdge(edge))
	}
	return converted
}
