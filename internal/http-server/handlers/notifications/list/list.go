package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"qitt-service/api"
	"qitt-service/pkg/response"
	"qitt-service/pkg/sl"
	"qitt-service/pkg/validate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type NotificationLister interface {
	ListNotifications(ctx context.Context, memberID string, unreadOnly bool) ([]api.Notification, error)
}

type Response struct {
	response.Response
	Notifications []api.Notification `json:"notifications"`
}

func New(log *slog.Logger, lister NotificationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		memberID := r.URL.Query().Get("member_id")

		if err := validate.MemberID(memberID); err != nil {
			log.Error("invalid member_id", slog.String("member_id", memberID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "member_id must be a uuid"))
			return
		}

		unreadOnly := false
		if raw := r.URL.Query().Get("unread"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				log.Error("invalid unread flag", slog.String("unread", raw))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "unread must be a boolean"))
				return
			}
			unreadOnly = v
		}

		items, err := lister.ListNotifications(r.Context(), memberID, unreadOnly)
		if err != nil {
			log.Error("Failed to list notifications", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list notifications"))
			return
		}

		if items == nil {
			items = []api.Notification{}
		}

		log.Info("Notifications listed", slog.Int("count", len(items)))

		render.JSON(w, r, Response{Notifications: items})
	}
}
