package overview

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

type OverviewGetter interface {
	AssignmentOverview(ctx context.Context, memberID, groupID string, termID *string) (*api.AssignmentOverview, error)
}

type Response struct {
	response.Response
	Overview *api.AssignmentOverview `json:"overview,omitempty"`
}

func New(log *slog.Logger, getter OverviewGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.assignments.overview.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		groupID := chi.URLParam(r, "groupID")
		memberID := r.URL.Query().Get("member_id")

		if err := validate.MemberID(memberID); err != nil {
			log.Error("invalid member_id", slog.String("member_id", memberID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "member_id must be a uuid"))
			return
		}

		var termID *string
		if term := r.URL.Query().Get("term_id"); term != "" {
			termID = &term
		}

		overview, err := getter.AssignmentOverview(r.Context(), memberID, groupID, termID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get assignment overview", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get assignment overview"))
			return
		}

		log.Info("Assignment overview computed",
			slog.Int("total", overview.Stats.Total),
			slog.Int("unread", overview.UnreadCount),
		)

		render.JSON(w, r, Response{Overview: overview})
	}
}
