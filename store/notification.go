package store

import (
	"context"
)

// Notification is a message delivered to a learner.
type Notification struct {
	ID        int32
	UID       string
	UserID    string
	Type      string
	Title     string
	Message   string
	Payload   string // JSON
	Read      bool
	CreatedTs int64
}

type FindNotification struct {
	ID         *int32
	UID        *string
	UserID     *string
	UnreadOnly bool
	Limit      *int
}

type UpdateNotification struct {
	ID   int32
	Read *bool
}

func (s *Store) CreateNotification(ctx context.Context, create *Notification) (*Notification, error) {
	return s.driver.CreateNotification(ctx, create)
}

// ListNotifications returns notifications newest first.
func (s *Store) ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error) {
	return s.driver.ListNotifications(ctx, find)
}

func (s *Store) GetNotification(ctx context.Context, find *FindNotification) (*Notification, error) {
	list, err := s.ListNotifications(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateNotification(ctx context.Context, update *UpdateNotification) (*Notification, error) {
	return s.driver.UpdateNotification(ctx, update)
}
