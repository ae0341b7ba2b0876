package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name" validate:"required"`
	StartDate Date               `bson:"startDate" json:"startDate" validate:"required"`
	EndDate   Date               `bson:"endDate" json:"endDate" validate:"required"`
	// SubmissionExpiry is the number of days after EndDate during which
	// assignments may still reference the event.
	SubmissionExpiry int       `bson:"submissionExpiry" json:"submissionExpiry" validate:"required,gt=0"`
	Location         string    `bson:"location" json:"location" validate:"required"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SubmissionDeadline is the last moment an assignment may be submitted for the event
func (e Event) SubmissionDeadline() time.Time {
	return e.EndDate.AddDate(0, 0, e.SubmissionExpiry)
}
