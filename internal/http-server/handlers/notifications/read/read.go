package read

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

type ReadMarker interface {
	MarkNotificationRead(ctx context.Context, memberID, id string) error
}

type Request struct {
	api.NotificationReadRequest
}

func New(log *slog.Logger, marker ReadMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.read.New"

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

		err := marker.MarkNotificationRead(r.Context(), req.MemberID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("notification not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "notification not found"))
			return
		}

		if err != nil {
			log.Error("Failed to mark notification read", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to mark notification read"))
			return
		}

		log.Info("Notification marked read", slog.String("id", id))

		w.WriteHeader(http.StatusNoContent)
	}
}
