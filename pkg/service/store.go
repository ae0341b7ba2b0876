package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/types"
)

// CredentialStore persists participant and therapist identities. Lookups
// return db.ErrNotFound when nothing matches and inserts return
// db.ErrDuplicateKey on unique index violations.
type CredentialStore interface {
	AddParticipant(ctx context.Context, p types.Participant) (primitive.ObjectID, error)
	FindParticipantByID(ctx context.Context, id primitive.ObjectID) (types.Participant, error)
	FindParticipantByEmail(ctx context.Context, email string) (types.Participant, error)
	UpdateParticipantProfile(ctx context.Context, id primitive.ObjectID, profile types.ParticipantProfile) (types.Participant, error)

	AddTherapist(ctx context.Context, t types.Therapist) (primitive.ObjectID, error)
	FindTherapistByID(ctx context.Context, id primitive.ObjectID) (types.Therapist, error)
	FindTherapistByEmail(ctx context.Context, email string) (types.Therapist, error)
	FindTherapistByPhone(ctx context.Context, phone string) (types.Therapist, error)
}

type EventStore interface {
	AddEvent(ctx context.Context, event types.Event) (types.Event, error)
	FindAllEvents(ctx context.Context) ([]types.Event, error)
	FindEventByID(ctx context.Context, id primitive.ObjectID) (types.Event, error)
	UpdateEvent(ctx context.Context, event types.Event) (types.Event, error)
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
}

// AssignmentStore persists composite assignments. WithTransaction runs fn
// atomically: either every write made through the ctx it passes is kept, or none.
type AssignmentStore interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	FindParticipantByID(ctx context.Context, id primitive.ObjectID) (types.Participant, error)
	FindParticipantByEmail(ctx context.Context, email string) (types.Participant, error)
	FindTherapistByID(ctx context.Context, id primitive.ObjectID) (types.Therapist, error)
	FindEventByID(ctx context.Context, id primitive.ObjectID) (types.Event, error)

	InsertChildProfile(ctx context.Context, cp types.ChildProfile) (primitive.ObjectID, error)
	InsertAssignmentDetail(ctx context.Context, ad types.AssignmentDetail) (primitive.ObjectID, error)
	InsertInterventionPlan(ctx context.Context, plan types.InterventionPlan) (primitive.ObjectID, error)
	InsertAssignment(ctx context.Context, a types.OSITAssignment) (primitive.ObjectID, error)

	FindAssignmentByID(ctx context.Context, id primitive.ObjectID) (types.OSITAssignment, error)
	QueryAssignments(ctx context.Context, q types.AssignmentQuery) ([]types.AssignmentView, error)

	ReplaceChildProfile(ctx context.Context, id primitive.ObjectID, cp types.ChildProfile) error
	ReplaceAssignmentDetail(ctx context.Context, id primitive.ObjectID, ad types.AssignmentDetail) error
	ReplaceInterventionPlan(ctx context.Context, id primitive.ObjectID, plan types.InterventionPlan) error
	TouchAssignment(ctx context.Context, id primitive.ObjectID) error

	DeleteAssignment(ctx context.Context, id primitive.ObjectID) error
	DeleteChildProfile(ctx context.Context, id primitive.ObjectID) error
	DeleteAssignmentDetail(ctx context.Context, id primitive.ObjectID) error
	DeleteInterventionPlan(ctx context.Context, id primitive.ObjectID) error

	SaveScoring(ctx context.Context, scoring types.Scoring) (types.Scoring, bool, error)
	DeleteScoringByAssignment(ctx context.Context, assignmentID primitive.ObjectID) error
}
