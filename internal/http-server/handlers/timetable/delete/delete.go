package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"qitt-service/pkg/response"
	"qitt-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type EntryDeleter interface {
	DeleteTimetableEntry(ctx context.Context, id string) error
}

func New(log *slog.Logger, deleter EntryDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetable.delete.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		err := deleter.DeleteTimetableEntry(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("timetable entry not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "timetable entry not found"))
			return
		}

		if err != nil {
			log.Error("Failed to delete timetable entry", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete timetable entry"))
			return
		}

		log.Info("Timetable entry deleted", slog.String("id", id))

		w.WriteHeader(http.StatusNoContent)
	}
}
