// Package v1 exposes the note graph engine over a JSON HTTP API.
//
// Callers identify themselves with the X-User-ID header; every operation is
// scoped to that owner. There is no authentication layer, identity is taken
// at face value.
package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/internal/profile"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/service/graph"
	"github.com/hrygo/notegraph/server/stats"
	"github.com/hrygo/notegraph/store"
)

const userIDHeader = "X-User-ID"

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Graph   *graph.Service
	Stats   *stats.Collector

	validate *validator.Validate
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, graphService *graph.Service) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Store:    store,
		Graph:    graphService,
		Stats:    stats.NewCollector(store),
		validate: validator.New(),
	}
}

// RegisterRoutes mounts all v1 endpoints on the group.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/notebooks", s.CreateNotebook)
	g.GET("/notebooks", s.ListNotebooks)

	g.POST("/notes", s.CreateNote)
	g.GET("/notes", s.ListNotes)
	g.GET("/notes/:uid", s.GetNote)
	g.PATCH("/notes/:uid", s.UpdateNote)
	g.DELETE("/notes/:uid", s.DeleteNote)

	g.GET("/notes/:uid/edges", s.ListNoteEdges)
	g.GET("/notes/:uid/similar", s.FindSimilarNotes)

	g.POST("/graph/candidates/generate", s.GenerateCandidates)
	g.GET("/graph/candidates", s.ListCandidates)
	g.POST("/graph/edges", s.CreateEdge)
	g.POST("/graph/edges/:id/confirm", s.ConfirmEdge)
	g.POST("/graph/edges/:id/reject", s.RejectEdge)
	g.POST("/graph/embeddings/prepare", s.PrepareEmbeddingRebuild)
	g.POST("/graph/embeddings/rebuild", s.RebuildEmbeddings)
	g.GET("/graph/stats", s.GetGraphStats)
}

// ownerID resolves the calling owner from the X-User-ID header.
func ownerID(c echo.Context) (int32, error) {
	raw := c.Request().Header.Get(userIDHeader)
	if raw == "" {
		return 0, apierrors.Validation("missing %s header", userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, apierrors.Validation("invalid %s header: %s", userIDHeader, raw)
	}
	return int32(id), nil
}

type errorResponse struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// respondError maps a service error onto an HTTP status. Internal causes are
// logged but never leak to the client.
func respondError(c echo.Context, err error) error {
	code := apierrors.GetCodeFromError(err, apierrors.ErrCodeInternal)

	status := http.StatusInternalServerError
	switch code {
	case apierrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apierrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apierrors.ErrCodeForbidden:
		status = http.StatusForbidden
	case apierrors.ErrCodeConflict:
		status = http.StatusConflict
	}

	message := err.Error()
	if code == apierrors.ErrCodeInternal {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		message = "internal error"
	}
	return c.JSON(status, &errorResponse{Code: code, Message: message})
}

func (s *APIV1Service) bindAndValidate(c echo.Context, request any) error {
	if err := c.Bind(request); err != nil {
		return apierrors.Validation("malformed request body")
	}
	if err := s.validate.Struct(request); err != nil {
		return apierrors.Validation("invalid request: %v", err)
	}
	return nil
}
