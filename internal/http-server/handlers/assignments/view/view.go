package view

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"qitt-service/api"
	"qitt-service/pkg/response"
	"qitt-service/pkg/sl"
	"qitt-service/pkg/validate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ViewMarker interface {
	MarkAssignmentViewed(ctx context.Context, memberID, assignmentID string) (*api.AssignmentView, error)
}

type Request struct {
	api.AssignmentViewRequest
}

type Response struct {
	response.Response
	View *api.AssignmentView `json:"view,omitempty"`
}

func New(log *slog.Logger, marker ViewMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.assignments.view.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if err := validate.Struct(req); err != nil {
			log.Error("invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FromValidation(err))
			return
		}

		view, err := marker.MarkAssignmentViewed(r.Context(), req.MemberID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("assignment not found", slog.String("assignment_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "assignment not found"))
			return
		}

		if err != nil {
			log.Error("Failed to mark assignment viewed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to mark assignment viewed"))
			return
		}

		log.Info("Assignment marked viewed", slog.String("assignment_id", id))

		render.JSON(w, r, Response{View: view})
	}
}
