package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChildProfile struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name" validate:"required"`
	DOB              Date               `bson:"dob" json:"dob" validate:"required"`
	Gender           string             `bson:"gender" json:"gender" validate:"required"`
	Diagnosis        string             `bson:"diagnosis" json:"diagnosis" validate:"required"`
	PresentComplaint string             `bson:"presentComplaint" json:"presentComplaint" validate:"required"`
	MedicalHistory   string             `bson:"medicalHistory" json:"medicalHistory" validate:"required"`
}

type AssignmentDetail struct {
	ID                                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProblemStatement                  string             `bson:"problemStatement" json:"problemStatement" validate:"required"`
	IdentificationAndObjectiveSetting string             `bson:"identificationAndObjectiveSetting" json:"identificationAndObjectiveSetting" validate:"required"`
	PlanningAndToolSection            string             `bson:"planningAndToolSection" json:"planningAndToolSection" validate:"required"`
	ToolStrategiesApproaches          string             `bson:"toolStrategiesApproaches" json:"toolStrategiesApproaches" validate:"required"`
}

// InterventionPlan maps a week label (e.g. "week1") to the sessions held that week
type InterventionPlan struct {
	ID                               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Weeks                            map[string]Week    `bson:"weeks" json:"weeks" validate:"min=2,dive,keys,required,endkeys"`
	MentionToolUsedForRespectiveGoal string             `bson:"mentionToolUsedForRespectiveGoal,omitempty" json:"mentionToolUsedForRespectiveGoal,omitempty"`
}

type Week struct {
	Sessions []Session `bson:"sessions" json:"sessions" validate:"min=1,dive"`
}

type Session struct {
	SessionNo     *int     `bson:"sessionNo" json:"sessionNo" validate:"required,min=1"`
	Goal          []string `bson:"goal" json:"goal" validate:"min=1,dive,required"`
	Activity      []string `bson:"activity" json:"activity" validate:"min=1,dive,required"`
	ToolUsed      string   `bson:"toolUsed,omitempty" json:"toolUsed,omitempty"`
	ChildResponse string   `bson:"childResponse,omitempty" json:"childResponse,omitempty"`
	Date          Date     `bson:"date,omitempty" json:"date,omitempty"`
}

// OSITAssignment is the composite root. It exclusively owns the child profile,
// assignment detail and intervention plan it references.
type OSITAssignment struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	ParticipantID      primitive.ObjectID  `bson:"participantInfo" json:"participantInfo"`
	ChildProfileID     primitive.ObjectID  `bson:"childProfile" json:"childProfile"`
	AssignmentDetailID primitive.ObjectID  `bson:"assignmentDetail" json:"assignmentDetail"`
	InterventionPlanID primitive.ObjectID  `bson:"interventionPlan" json:"interventionPlan"`
	EventID            *primitive.ObjectID `bson:"event,omitempty" json:"event,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// AssignmentUpdate carries the sub-documents to replace; nil parts are left untouched
type AssignmentUpdate struct {
	ChildProfile     *ChildProfile     `json:"childProfile"`
	AssignmentDetail *AssignmentDetail `json:"assignmentDetail"`
	InterventionPlan *InterventionPlan `json:"interventionPlan"`
}

func (u AssignmentUpdate) IsEmpty() bool {
	return u.ChildProfile == nil && u.AssignmentDetail == nil && u.InterventionPlan == nil
}

// AssignmentSubmission is what a participant sends to create an assignment
type AssignmentSubmission struct {
	ChildProfile     *ChildProfile     `json:"childProfile" validate:"required"`
	AssignmentDetail *AssignmentDetail `json:"assignmentDetail" validate:"required"`
	InterventionPlan *InterventionPlan `json:"interventionPlan" validate:"required"`
	EventID          string            `json:"eventId,omitempty"`
}
