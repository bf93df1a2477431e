package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// parseID reads a UUID URL parameter.
func parseID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, errs.Invalid(param, "must be a valid id")
	}
	return id, nil
}

// parseSort reads the ?sort= query value. Missing means recent.
func parseSort(r *http.Request) (models.SortOrder, error) {
	order, ok := models.ParseSortOrder(r.URL.Query().Get("sort"))
	if !ok {
		return "", errs.Invalid("sort", "must be recent or views")
	}
	return order, nil
}

// parsePosition reads the {position} URL parameter. Range checks are left
// to the featured service.
func parsePosition(r *http.Request) (int, error) {
	p, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		return 0, errs.Invalid("position", "must be a number")
	}
	return p, nil
}
