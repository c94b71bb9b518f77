package send

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

type GroupNotifier interface {
	NotifyGroup(ctx context.Context, groupID string, req *api.NotifyGroupRequest) (*api.NotifyGroupResult, error)
}

type Request struct {
	api.NotifyGroupRequest
}

type Response struct {
	response.Response
	Result *api.NotifyGroupResult `json:"result,omitempty"`
}

func New(log *slog.Logger, notifier GroupNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.send.New"

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

		result, err := notifier.NotifyGroup(r.Context(), groupID, &req.NotifyGroupRequest)

		switch {
		case errors.Is(err, response.ErrLocked):
			log.Warn("notification already sent", slog.String("group_id", groupID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.LOCKED), "notification already sent"))
			return
		case errors.Is(err, response.ErrBadRequest):
			log.Error("bad notification", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), err.Error()))
			return
		case err != nil:
			log.Error("Failed to notify group", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to notify group"))
			return
		}

		log.Info("Group notified",
			slog.String("group_id", groupID),
			slog.Int("recipients", result.Recipients),
			slog.Bool("pushed", result.Pushed),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Result: result})
	}
}
