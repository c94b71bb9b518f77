// Package notify fans a notification out to every member of a class group:
// one row per member, plus an optional push message on a queue.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"qitt-service/api"
	"qitt-service/internal/lock"
	"qitt-service/internal/models"
	"qitt-service/pkg/response"
	"qitt-service/pkg/sl"

	"github.com/google/uuid"
)

// dedupeTTL is how long a (kind, reference) fan-out blocks repeats.
const dedupeTTL = 10 * time.Minute

type Store interface {
	GroupMemberIDs(ctx context.Context, groupID string) ([]string, error)
	InsertNotifications(ctx context.Context, notifications []models.Notification) error
	ListNotifications(ctx context.Context, memberID string, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, memberID, id string) error
}

// PushMessage is what push workers consume from the queue.
type PushMessage struct {
	GroupID   string                  `json:"group_id"`
	MemberIDs []string                `json:"member_ids"`
	Kind      models.NotificationKind `json:"type"`
	Title     string                  `json:"title"`
	Body      string                  `json:"message"`
	RefID     *string                 `json:"reference_id,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, msg PushMessage) error
}

type Service struct {
	log       *slog.Logger
	store     Store
	locker    lock.Locker
	publisher Publisher
	now       func() time.Time
}

// NewService wires the fan-out. locker and publisher may be nil, which
// disables deduplication and push respectively.
func NewService(log *slog.Logger, store Store, locker lock.Locker, publisher Publisher) *Service {
	return &Service{
		log:       log,
		store:     store,
		locker:    locker,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Service) NotifyGroup(ctx context.Context, groupID string, req *api.NotifyGroupRequest) (*api.NotifyGroupResult, error) {
	const op = "notify.NotifyGroup"

	kind := models.NotificationKind(req.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%s: unknown type %q: %w", op, req.Kind, response.ErrBadRequest)
	}

	var lease lock.Lease
	if s.locker != nil && req.ReferenceID != nil {
		key := fmt.Sprintf("notify:%s:%s:%s", groupID, kind, *req.ReferenceID)

		l, ok, err := s.locker.Lock(ctx, key, dedupeTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: lock error: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
		}
		lease = l
	}

	result, err := s.fanOut(ctx, groupID, kind, req)
	if err != nil {
		// Let a retry through when nothing was written.
		if lease != nil {
			if uerr := lease.Unlock(context.WithoutCancel(ctx)); uerr != nil {
				s.log.Warn("failed to release fan-out lock", sl.Err(uerr))
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Service) fanOut(ctx context.Context, groupID string, kind models.NotificationKind, req *api.NotifyGroupRequest) (*api.NotifyGroupResult, error) {
	members, err := s.store.GroupMemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return &api.NotifyGroupResult{}, nil
	}

	createdAt := s.now()
	rows := make([]models.Notification, 0, len(members))
	for _, memberID := range members {
		rows = append(rows, models.Notification{
			ID:        uuid.NewString(),
			MemberID:  memberID,
			GroupID:   groupID,
			Kind:      kind,
			Title:     req.Title,
			Body:      req.Body,
			RefID:     req.ReferenceID,
			CreatedAt: createdAt,
		})
	}

	if err := s.store.InsertNotifications(ctx, rows); err != nil {
		return nil, err
	}

	result := &api.NotifyGroupResult{Recipients: len(rows)}

	if s.publisher == nil {
		return result, nil
	}

	err = s.publisher.Publish(ctx, PushMessage{
		GroupID:   groupID,
		MemberIDs: members,
		Kind:      kind,
		Title:     req.Title,
		Body:      req.Body,
		RefID:     req.ReferenceID,
	})
	if err != nil {
		// Rows are already stored; the app still shows them without push.
		s.log.Warn("push publish failed",
			slog.String("group_id", groupID),
			slog.Int("recipients", len(rows)),
			sl.Err(err),
		)
		return result, nil
	}

	result.Pushed = true
	return result, nil
}

func (s *Service) ListNotifications(ctx context.Context, memberID string, unreadOnly bool) ([]api.Notification, error) {
	const op = "notify.ListNotifications"

	items, err := s.store.ListNotifications(ctx, memberID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]api.Notification, 0, len(items))
	for _, n := range items {
		out = append(out, api.Notification{
			ID:          n.ID,
			Kind:        string(n.Kind),
			Title:       n.Title,
			Body:        n.Body,
			ReferenceID: n.RefID,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		})
	}

	return out, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, memberID, id string) error {
	const op = "notify.MarkNotificationRead"

	if err := s.store.MarkNotificationRead(ctx, memberID, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
