package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScoringStatus string

const (
	SCORING_STATUS_ALL      ScoringStatus = "all"
	SCORING_STATUS_SCORED   ScoringStatus = "scored"
	SCORING_STATUS_UNSCORED ScoringStatus = "unscored"
)

// AssignmentQuery selects assignments for the joined read. Zero values match everything.
type AssignmentQuery struct {
	ID            *primitive.ObjectID
	ParticipantID *primitive.ObjectID
	Status        ScoringStatus
}

// ScoringView is a scoring record joined with its therapist
type ScoringView struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	AssignmentID  primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	Therapist     *Therapist         `bson:"therapist,omitempty" json:"therapist,omitempty"`
	CriteriaList  []Criterion        `bson:"criteriaList" json:"criteriaList"`
	TotalObtained float64            `bson:"-" json:"totalObtained"`
	TotalPossible float64            `bson:"-" json:"totalPossible"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (s *ScoringView) ComputeTotals() {
	s.TotalObtained, s.TotalPossible = SumCriteria(s.CriteriaList)
}

// AssignmentView is an assignment with every referenced document resolved
type AssignmentView struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Participant      *Participant       `bson:"participantInfo,omitempty" json:"participantInfo"`
	ChildProfile     *ChildProfile      `bson:"childProfile,omitempty" json:"childProfile"`
	AssignmentDetail *AssignmentDetail  `bson:"assignmentDetail,omitempty" json:"assignmentDetail"`
	InterventionPlan *InterventionPlan  `bson:"interventionPlan,omitempty" json:"interventionPlan"`
	Event            *Event             `bson:"event,omitempty" json:"event,omitempty"`
	Scoring          *ScoringView       `bson:"scoring,omitempty" json:"scoring,omitempty"`
	TotalObtained    *float64           `bson:"-" json:"totalObtained,omitempty"`
	TotalPossible    *float64           `bson:"-" json:"totalPossible,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AssignmentSummary is the compact per-assignment entry returned to participants
type AssignmentSummary struct {
	ID            primitive.ObjectID  `json:"id"`
	ChildName     string              `json:"childName"`
	EventID       *primitive.ObjectID `json:"eventId,omitempty"`
	Scored        bool                `json:"scored"`
	Scoring       *ScoringView        `json:"scoring,omitempty"`
	TotalObtained *float64            `json:"totalObtained,omitempty"`
	TotalPossible *float64            `json:"totalPossible,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrphanSweepReport counts the owned documents removed because no assignment references them
type OrphanSweepReport struct {
	ChildProfiles     int64
	AssignmentDetails int64
	InterventionPlans int64
}

func (r OrphanSweepReport) Total() int64 {
	return r.ChildProfiles + r.AssignmentDetails + r.InterventionPlans
}
