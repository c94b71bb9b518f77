package today

import (
	"context"
	"log/slog"
	"net/http"

	"qitt-service/api"
	"qitt-service/pkg/response"
	"qitt-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type TodayGetter interface {
	TodaySchedule(ctx context.Context, groupID string) (*api.TodaySchedule, error)
}

type Response struct {
	response.Response
	Schedule *api.TodaySchedule `json:"schedule,omitempty"`
}

func New(log *slog.Logger, getter TodayGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetable.today.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		groupID := chi.URLParam(r, "groupID")

		schedule, err := getter.TodaySchedule(r.Context(), groupID)
		if err != nil {
			log.Error("Failed to resolve today's schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get today's schedule"))
			return
		}

		if len(schedule.Warnings) > 0 {
			log.Warn("Timetable has invalid entries", slog.Any("warnings", schedule.Warnings))
		}

		log.Info("Today's schedule resolved",
			slog.String("day", schedule.Day),
			slog.Int("classes", len(schedule.Classes)),
		)

		render.JSON(w, r, Response{Schedule: schedule})
	}
}
