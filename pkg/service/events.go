package service

import (
	"context"
	"errors"
	"strings"

	"github.com/osit-platform/osit-backend/pkg/db"
	"github.com/osit-platform/osit-backend/pkg/types"
)

type EventService struct {
	store EventStore
}

func NewEventService(store EventStore) *EventService {
	return &EventService{store: store}
}

func validateEvent(event *types.Event) error {
	event.Name = strings.TrimSpace(event.Name)
	event.Location = strings.TrimSpace(event.Location)
	if err := validateStruct(*event); err != nil {
		return err
	}
	if event.StartDate.After(event.EndDate) {
		return NewValidationError("startDate cannot be after endDate")
	}
	return nil
}

func (s *EventService) CreateEvent(ctx context.Context, event types.Event) (types.Event, error) {
	if err := validateEvent(&event); err != nil {
		return types.Event{}, err
	}
	created, err := s.store.AddEvent(ctx, event)
	if err != nil {
		return types.Event{}, NewPersistenceError("failed to create event", err)
	}
	return created, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]types.Event, error) {
	events, err := s.store.FindAllEvents(ctx)
	if err != nil {
		return nil, NewPersistenceError("failed to fetch events", err)
	}
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, idHex string) (types.Event, error) {
	id, err := ParseObjectID(idHex, "event")
	if err != nil {
		return types.Event{}, err
	}
	event, err := s.store.FindEventByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return types.Event{}, NewNotFoundError("event not found")
	}
	if err != nil {
		return types.Event{}, NewPersistenceError("failed to fetch event", err)
	}
	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, idHex string, event types.Event) (types.Event, error) {
	id, err := ParseObjectID(idHex, "event")
	if err != nil {
		return types.Event{}, err
	}
	if err := validateEvent(&event); err != nil {
		return types.Event{}, err
	}
	event.ID = id
	updated, err := s.store.UpdateEvent(ctx, event)
	if errors.Is(err, db.ErrNotFound) {
		return types.Event{}, NewNotFoundError("event not found")
	}
	if err != nil {
		return types.Event{}, NewPersistenceError("failed to update event", err)
	}
	return updated, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, idHex string) error {
	id, err := ParseObjectID(idHex, "event")
	if err != nil {
		return err
	}
	err = s.store.DeleteEvent(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return NewNotFoundError("event not found")
	}
	if err != nil {
		return NewPersistenceError("failed to delete event", err)
	}
	return nil
}
