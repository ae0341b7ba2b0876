package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Criterion struct {
	Criteria      string  `bson:"criteria" json:"criteria" validate:"required"`
	MaxMarks      float64 `bson:"maxMarks" json:"maxMarks" validate:"gt=0"`
	ObtainedMarks float64 `bson:"obtainedMarks" json:"obtainedMarks" validate:"gte=0,ltefield=MaxMarks"`
	Remarks       string  `bson:"remarks,omitempty" json:"remarks,omitempty"`
}

// Scoring is the therapist's assessment of one assignment. At most one exists per assignment.
type Scoring struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AssignmentID primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	TherapistID  primitive.ObjectID `bson:"therapist" json:"therapist"`
	CriteriaList []Criterion        `bson:"criteriaList" json:"criteriaList"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func SumCriteria(criteria []Criterion) (obtained float64, possible float64) {
	for _, c := range criteria {
		obtained += c.ObtainedMarks
		possible += c.MaxMarks
	}
	return
}
