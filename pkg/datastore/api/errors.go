package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// ErrorResponse is the JSON body returned for all error statuses.
type ErrorResponse struct {
	Error        string `json:"error"`
	Field        string `json:"field,omitempty"`
	ContentCount int64  `json:"content_count,omitempty"`
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *datastore.ValidationError
	var notEmptyErr *datastore.ProjectNotEmptyError
	var storageErr *datastore.StorageError

	switch {
	case errors.As(err, &validationErr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: validationErr.Reason, Field: validationErr.Field})

	case errors.Is(err, datastore.ErrContentNotFound),
		errors.Is(err, datastore.ErrProjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})

	case errors.As(err, &notEmptyErr):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, ErrorResponse{
			Error:        "project contains content and cannot be deleted",
			ContentCount: notEmptyErr.Count,
		})

	case errors.As(err, &storageErr):
		slog.Error("storage backend failure", "op", storageErr.Op, "key", storageErr.Key, "err", storageErr.Err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, ErrorResponse{Error: "storage backend failure"})

	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "internal server error"})
	}
}
