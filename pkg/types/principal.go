package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	ROLE_PARTICIPANT Role = "PARTICIPANT"
	ROLE_THERAPIST   Role = "THERAPIST"
)

// ParticipantProfile holds the editable demographic fields of a participant
type ParticipantProfile struct {
	FName         string `bson:"fName,omitempty" json:"fName,omitempty"`
	LName         string `bson:"lName,omitempty" json:"lName,omitempty"`
	Gender        string `bson:"gender,omitempty" json:"gender,omitempty"`
	DOB           Date   `bson:"dob,omitempty" json:"dob,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty" validate:"omitempty,phone"`
	State         string `bson:"state,omitempty" json:"state,omitempty"`
	City          string `bson:"city,omitempty" json:"city,omitempty"`
	TherapistType string `bson:"therapistType,omitempty" json:"therapistType,omitempty"`
	EnrollmentID  string `bson:"enrollmentId,omitempty" json:"enrollmentId,omitempty"`
}

type Participant struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email              string             `bson:"email" json:"email"`
	Password           string             `bson:"password,omitempty" json:"-"`
	ParticipantProfile `bson:",inline"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Therapist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FName     string             `bson:"fName" json:"fName"`
	LName     string             `bson:"lName" json:"lName"`
	Phone     string             `bson:"phone" json:"phone"`
	Gender    string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ParticipantRegistration is the payload accepted when a participant signs up
type ParticipantRegistration struct {
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,password"`
	ParticipantProfile
}

// TherapistRegistration is the payload accepted when a therapist signs up
type TherapistRegistration struct {
	FName    string `json:"fName" validate:"required"`
	LName    string `json:"lName" validate:"required"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone" validate:"required,phone"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// Principal is an authenticated participant or therapist. Password hashes are
// never set on the embedded records.
type Principal struct {
	ID          primitive.ObjectID `json:"id"`
	Role        Role               `json:"role"`
	Email       string             `json:"email"`
	Participant *Participant       `json:"participant,omitempty"`
	Therapist   *Therapist         `json:"therapist,omitempty"`
}
