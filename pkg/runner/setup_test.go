package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/db/memstore"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func seed(t *testing.T, store *memstore.Store) {
	t.Helper()
	ctx := context.Background()

	cp, err := store.InsertChildProfile(ctx, types.ChildProfile{Name: "Ravi"})
	require.NoError(t, err)
	ad, err := store.InsertAssignmentDetail(ctx, types.AssignmentDetail{ProblemStatement: "p"})
	require.NoError(t, err)
	plan, err := store.InsertInterventionPlan(ctx, types.InterventionPlan{})
	require.NoError(t, err)
	_, err = store.InsertAssignment(ctx, types.OSITAssignment{
		ParticipantID:      primitive.NewObjectID(),
		ChildProfileID:     cp,
		AssignmentDetailID: ad,
		InterventionPlanID: plan,
	})
	require.NoError(t, err)

	// orphans
	_, err = store.InsertChildProfile(ctx, types.ChildProfile{Name: "Lost"})
	require.NoError(t, err)
	_, err = store.InsertInterventionPlan(ctx, types.InterventionPlan{})
	require.NoError(t, err)
}

func TestSweepOrphans(t *testing.T) {
	store := memstore.New()
	seed(t, store)

	report := NewRunner(store, 1).SweepOrphans(context.Background())
	assert.Equal(t, types.OrphanSweepReport{ChildProfiles: 1, InterventionPlans: 1}, report)

	counts := store.Counts()
	assert.Equal(t, 1, counts.ChildProfiles)
	assert.Equal(t, 1, counts.AssignmentDetails)
	assert.Equal(t, 1, counts.InterventionPlans)

	assert.Zero(t, NewRunner(store, 1).SweepOrphans(context.Background()).Total())
}

func TestSweepOrphansStoreFailure(t *testing.T) {
	store := memstore.New()
	seed(t, store)
	store.FailOn("DeleteOrphanedSubDocuments", errors.New("not primary"))

	report := NewRunner(store, 1).SweepOrphans(context.Background())
	assert.Zero(t, report.Total())
	assert.Equal(t, 2, store.Counts().ChildProfiles)
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	store := memstore.New()
	seed(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewRunner(store, 1).Run(ctx)

	assert.Eventually(t, func() bool {
		return store.Counts().ChildProfiles == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRunDisabled(t *testing.T) {
	store := memstore.New()
	seed(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewRunner(store, 0).Run(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, store.Counts().ChildProfiles)
}
