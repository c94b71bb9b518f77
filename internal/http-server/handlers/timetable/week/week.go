package week

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

type WeekGetter interface {
	WeeklyTimetable(ctx context.Context, groupID string) (*api.WeeklyTimetable, error)
}

type Response struct {
	response.Response
	Timetable *api.WeeklyTimetable `json:"timetable,omitempty"`
}

func New(log *slog.Logger, getter WeekGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetable.week.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		timetable, err := getter.WeeklyTimetable(r.Context(), chi.URLParam(r, "groupID"))
		if err != nil {
			log.Error("Failed to get weekly timetable", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get timetable"))
			return
		}

		log.Info("Weekly timetable retrieved", slog.Int("days", len(timetable.Days)))

		render.JSON(w, r, Response{Timetable: timetable})
	}
}
