package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osit-platform/osit-backend/pkg/db"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func TestUniqueKeys(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.AddParticipant(ctx, types.Participant{Email: "a@example.com"})
	require.NoError(t, err)
	_, err = s.AddParticipant(ctx, types.Participant{Email: "a@example.com"})
	assert.ErrorIs(t, err, db.ErrDuplicateKey)

	_, err = s.AddTherapist(ctx, types.Therapist{Email: "t@example.com", Phone: "9999999999"})
	require.NoError(t, err)
	_, err = s.AddTherapist(ctx, types.Therapist{Email: "u@example.com", Phone: "9999999999"})
	assert.ErrorIs(t, err, db.ErrDuplicateKey)

	_, err = s.FindTherapistByEmail(ctx, "u@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestWithTransactionRestoresOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.InsertChildProfile(ctx, types.ChildProfile{Name: "Ravi"}); err != nil {
			return err
		}
		if _, err := s.InsertAssignmentDetail(ctx, types.AssignmentDetail{}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Counts{}, s.Counts())

	err = s.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.InsertChildProfile(ctx, types.ChildProfile{Name: "Ravi"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Counts().ChildProfiles)
}

func TestRollbackKeepsWritesMadeOutsideTransaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	outside := make(chan error, 1)

	err := s.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.InsertChildProfile(txCtx, types.ChildProfile{Name: "Ravi"}); err != nil {
			return err
		}
		go func() {
			_, err := s.AddEvent(ctx, types.Event{Name: "Camp"})
			outside <- err
		}()
		time.Sleep(50 * time.Millisecond)
		return errors.New("abort")
	})
	require.Error(t, err)
	require.NoError(t, <-outside)

	counts := s.Counts()
	assert.Zero(t, counts.ChildProfiles)
	assert.Equal(t, 1, counts.Events)
}

func TestStoredPlansAreIsolatedFromCallers(t *testing.T) {
	ctx := context.Background()
	s := New()
	no := 1
	plan := types.InterventionPlan{Weeks: map[string]types.Week{
		"week1": {Sessions: []types.Session{{SessionNo: &no, Goal: []string{"g"}, Activity: []string{"a"}}}},
	}}
	id, err := s.InsertInterventionPlan(ctx, plan)
	require.NoError(t, err)

	no = 7
	plan.Weeks["week1"].Sessions[0].Goal[0] = "changed"

	stored := s.data.interventionPlans[id]
	assert.Equal(t, 1, *stored.Weeks["week1"].Sessions[0].SessionNo)
	assert.Equal(t, "g", stored.Weeks["week1"].Sessions[0].Goal[0])
}

func TestSaveScoringUpserts(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, err := s.InsertAssignment(ctx, types.OSITAssignment{CreatedAt: time.Now()})
	require.NoError(t, err)

	first, created, err := s.SaveScoring(ctx, types.Scoring{AssignmentID: a, CriteriaList: []types.Criterion{{Criteria: "x", MaxMarks: 1}}})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.SaveScoring(ctx, types.Scoring{AssignmentID: a})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Empty(t, second.CriteriaList)

	require.NoError(t, s.DeleteScoringByAssignment(ctx, a))
	assert.ErrorIs(t, s.DeleteScoringByAssignment(ctx, a), db.ErrNotFound)
}
