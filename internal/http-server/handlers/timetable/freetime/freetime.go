package freetime

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

type FreeTimeGetter interface {
	FreeTime(ctx context.Context, groupID string) (*api.FreeTime, error)
}

type Response struct {
	response.Response
	FreeTime *api.FreeTime `json:"free_time,omitempty"`
}

func New(log *slog.Logger, getter FreeTimeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetable.freetime.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		free, err := getter.FreeTime(r.Context(), chi.URLParam(r, "groupID"))
		if err != nil {
			log.Error("Failed to compute free time", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to compute free time"))
			return
		}

		log.Info("Free time computed", slog.Int("slots", len(free.Slots)))

		render.JSON(w, r, Response{FreeTime: free})
	}
}
