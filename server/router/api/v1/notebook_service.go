package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/store"
)

type Notebook struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	Name      string `json:"name"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

type CreateNotebookRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

func (s *APIV1Service) CreateNotebook(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	request := &CreateNotebookRequest{}
	if err := s.bindAndValidate(c, request); err != nil {
		return respondError(c, err)
	}

	now := time.Now().Unix()
	notebook, err := s.Store.CreateNotebook(c.Request().Context(), &store.Notebook{
		UID:       uuid.NewString(),
		CreatorID: owner,
		Name:      request.Name,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, convertNotebook(notebook))
}

func (s *APIV1Service) ListNotebooks(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return respondError(c, err)
	}
	notebooks, err := s.Store.ListNotebooks(c.Request().Context(), &store.FindNotebook{CreatorID: &owner})
	if err != nil {
		return respondError(c, err)
	}

	response := make([]*Notebook, 0, len(notebooks))
	for _, notebook := range notebooks {
		response = append(response, convertNotebook(notebook))
	}
	return c.JSON(http.StatusOK, response)
}

func convertNotebook(notebook *store.Notebook) *Notebook {
	return &Notebook{
		ID:        notebook.ID,
		UID:       notebook.UID,
		Name:      notebook.Name,
		CreatedTs: notebook.CreatedTs,
		UpdatedTs: notebook.UpdatedTs,
	}
}
