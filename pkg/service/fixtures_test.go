package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/osit-platform/osit-backend/pkg/db/memstore"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func intPtr(n int) *int { return &n }

func testSession(no int) types.Session {
	return types.Session{
		SessionNo: intPtr(no),
		Goal:      []string{"improve eye contact"},
		Activity:  []string{"ball rolling"},
		ToolUsed:  "mirror",
	}
}

func testPlan(weeks ...string) types.InterventionPlan {
	if len(weeks) == 0 {
		weeks = []string{"week1", "week2"}
	}
	plan := types.InterventionPlan{Weeks: map[string]types.Week{}}
	for i, w := range weeks {
		plan.Weeks[w] = types.Week{Sessions: []types.Session{testSession(i + 1)}}
	}
	return plan
}

func testChildProfile(name string) types.ChildProfile {
	return types.ChildProfile{
		Name:             name,
		DOB:              types.NewDate(2017, time.March, 4),
		Gender:           "female",
		Diagnosis:        "ASD",
		PresentComplaint: "limited social interaction",
		MedicalHistory:   "none",
	}
}

func testDetail() types.AssignmentDetail {
	return types.AssignmentDetail{
		ProblemStatement:                  "avoids group play",
		IdentificationAndObjectiveSetting: "join group play twice a week",
		PlanningAndToolSection:            "structured play sessions",
		ToolStrategiesApproaches:          "social stories",
	}
}

func testSubmission(childName string) types.AssignmentSubmission {
	cp := testChildProfile(childName)
	ad := testDetail()
	plan := testPlan()
	return types.AssignmentSubmission{
		ChildProfile:     &cp,
		AssignmentDetail: &ad,
		InterventionPlan: &plan,
	}
}

func newTestCredentials(store CredentialStore) *CredentialService {
	svc := NewCredentialService(store)
	svc.cost = bcrypt.MinCost
	return svc
}

func addParticipant(t *testing.T, store *memstore.Store, email string) primitive.ObjectID {
	t.Helper()
	id, err := newTestCredentials(store).RegisterParticipant(context.Background(), types.ParticipantRegistration{
		Email:              email,
		Password:           "Secret123",
		ParticipantProfile: types.ParticipantProfile{FName: "Asha", LName: "Rao"},
	})
	require.NoError(t, err)
	return id
}

func addTherapist(t *testing.T, store *memstore.Store, email string, phone string) primitive.ObjectID {
	t.Helper()
	id, err := newTestCredentials(store).RegisterTherapist(context.Background(), types.TherapistRegistration{
		FName:    "Meera",
		LName:    "Iyer",
		Phone:    phone,
		Email:    email,
		Password: "Therapy123",
	})
	require.NoError(t, err)
	return id
}

// steppingClock returns a clock that advances one minute per call
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	se, ok := AsServiceError(err)
	require.True(t, ok, "expected a ServiceError, got %T: %v", err, err)
	require.Equal(t, kind, se.Kind, "unexpected error: %v", err)
}
