package create

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

type EntryCreator interface {
	CreateTimetableEntry(ctx context.Context, groupID string, req *api.TimetableEntryRequest) (*api.Class, error)
}

type Request struct {
	api.TimetableEntryRequest
}

type Response struct {
	response.Response
	Class *api.Class `json:"class,omitempty"`
}

func New(log *slog.Logger, creator EntryCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetable.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		groupID := chi.URLParam(r, "groupID")

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

		class, err := creator.CreateTimetableEntry(r.Context(), groupID, &req.TimetableEntryRequest)

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
			log.Error("group not found", slog.String("group_id", groupID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "group not found"))
			return
		case err != nil:
			log.Error("Failed to create timetable entry", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create timetable entry"))
			return
		}

		log.Info("Timetable entry created", slog.String("id", class.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Class: class})
	}
}
