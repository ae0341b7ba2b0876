package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/types"
)

func stageNames(t *testing.T, q types.AssignmentQuery) []string {
	t.Helper()
	names := []string{}
	for _, stage := range assignmentViewPipeline(q) {
		require.Len(t, stage, 1)
		names = append(names, stage[0].Key)
	}
	return names
}

func TestAssignmentViewPipelineJoinsEveryReference(t *testing.T) {
	pipeline := assignmentViewPipeline(types.AssignmentQuery{})

	lookups := []string{}
	for _, stage := range pipeline {
		if stage[0].Key != "$lookup" {
			continue
		}
		lookup, ok := stage[0].Value.(bson.M)
		require.True(t, ok)
		lookups = append(lookups, lookup["from"].(string))
	}
	assert.Equal(t, []string{"participants", "child-profiles", "assignment-details", "intervention-plans", "events", "scorings"}, lookups)

	names := stageNames(t, types.AssignmentQuery{})
	assert.NotEqual(t, "$match", names[0])
	assert.Equal(t, "$sort", names[len(names)-1])
	assert.Equal(t, "$project", names[len(names)-2])
}

func TestAssignmentViewPipelineFilters(t *testing.T) {
	id := primitive.NewObjectID()
	participant := primitive.NewObjectID()

	pipeline := assignmentViewPipeline(types.AssignmentQuery{ID: &id, ParticipantID: &participant})
	require.Equal(t, "$match", pipeline[0][0].Key)
	match := pipeline[0][0].Value.(bson.M)
	assert.Equal(t, id, match["_id"])
	assert.Equal(t, participant, match["participantInfo"])

	for status, exists := range map[types.ScoringStatus]bool{
		types.SCORING_STATUS_SCORED:   true,
		types.SCORING_STATUS_UNSCORED: false,
	} {
		pipeline := assignmentViewPipeline(types.AssignmentQuery{Status: status})
		statusStage := pipeline[len(pipeline)-3]
		require.Equal(t, "$match", statusStage[0].Key)
		assert.Equal(t, bson.M{"scoring": bson.M{"$exists": exists}}, statusStage[0].Value)
	}

	all := stageNames(t, types.AssignmentQuery{Status: types.SCORING_STATUS_ALL})
	for _, name := range all {
		assert.NotEqual(t, "$match", name)
	}
}
