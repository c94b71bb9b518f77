package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"qitt-service/api"
	"qitt-service/internal/models"
	"qitt-service/internal/timeofday"
	"qitt-service/pkg/response"
	"qitt-service/pkg/sl"
	"qitt-service/pkg/validate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type EntryUpdater interface {
	UpdateTimetableEntry(ctx context.Context, id string, req *api.TimetableEntryRequest) (*api.Class, error)
}

type Request struct {
	api.TimetableEntryRequest
}

type Response struct {
	response.Response
	Class *api.Class `json:"class,omitempty"`
}

func New(log *slog.Logger, updater EntryUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetable.update.New"

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

		class, err := updater.UpdateTimetableEntry(r.Context(), id, &req.TimetableEntryRequest)

		switch {
		case errors.Is(err, response.ErrInvalidInterval):
			log.Error("invalid interval", slog.String("start", req.StartTime), slog.String("end", req.EndTime))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INTERVAL), response.ErrInvalidInterval.Error()))
			return
		case errors.Is(err, timeofday.ErrFormat), errors.Is(err, models.ErrInvalidWeekday):
			log.Error("invalid day or time", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_TIME), err.Error()))
			return
		case errors.Is(err, response.ErrNotFound):
			log.Error("timetable entry not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "timetable entry not found"))
			return
		case err != nil:
			log.Error("Failed to update timetable entry", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update timetable entry"))
			return
		}

		log.Info("Timetable entry updated", slog.String("id", id))

		render.JSON(w, r, Response{Class: class})
	}
}
