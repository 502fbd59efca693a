package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lithammer/shortuuid/v4"

	"github.com/fayaz1010/Iqra/plugin/notification"
	"github.com/fayaz1010/Iqra/store"
)

// Notify stores a notification for the learner.
func (s *service) Notify(ctx context.Context, userID string, msg notification.Message) (*Notification, error) {
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("invalid notification kind %q", msg.Kind)
	}
	payload, err := msg.EncodePayload()
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateNotification(ctx, &store.Notification{
		UID:     shortuuid.New(),
		UserID:  userID,
		Type:    string(msg.Kind),
		Title:   msg.Title,
		Message: msg.Body,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return convertNotificationFromStore(created), nil
}

func (s *service) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	find := &store.FindNotification{UserID: &userID, UnreadOnly: unreadOnly}
	if limit > 0 {
		find.Limit = &limit
	}
	list, err := s.store.ListNotifications(ctx, find)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	result := make([]*Notification, 0, len(list))
	for _, n := range list {
		result = append(result, convertNotificationFromStore(n))
	}
	return result, nil
}

func (s *service) MarkNotificationRead(ctx context.Context, userID string, id int32) (*Notification, error) {
	existing, err := s.store.GetNotification(ctx, &store.FindNotification{ID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	if existing.Read {
		return convertNotificationFromStore(existing), nil
	}

	read := true
	updated, err := s.store.UpdateNotification(ctx, &store.UpdateNotification{ID: id, Read: &read})
	if err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return convertNotificationFromStore(updated), nil
}

func convertNotificationFromStore(n *store.Notification) *Notification {
	payload, err := notification.DecodePayload(n.Payload)
	if err != nil {
		slog.Warn("ignoring malformed notification payload", slog.String("uid", n.UID), slog.String("error", err.Error()))
	}
	return &Notification{
		ID:        n.ID,
		UID:       n.UID,
		Kind:      notification.Kind(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Payload:   payload,
		Read:      n.Read,
		CreatedTs: n.CreatedTs,
	}
}
