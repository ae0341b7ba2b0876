package db

import (
	"context"
	"time"

	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveScoring creates the scoring of an assignment or overwrites its therapist
// and criteria. The last writer wins.
func (dbService *OSITDBService) SaveScoring(ctx context.Context, scoring types.Scoring) (saved types.Scoring, created bool, err error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"assignmentId": scoring.AssignmentID}
	update := bson.M{
		"$set": bson.M{
			"therapist":    scoring.TherapistID,
			"criteriaList": scoring.CriteriaList,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	res, err := dbService.collectionRefScorings().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return saved, false, normalizeErr(err)
	}
	created = res.UpsertedCount > 0

	err = dbService.collectionRefScorings().FindOne(ctx, filter).Decode(&saved)
	return saved, created, normalizeErr(err)
}

func (dbService *OSITDBService) DeleteScoringByAssignment(ctx context.Context, assignmentID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionRefScorings().DeleteOne(ctx, bson.M{"assignmentId": assignmentID})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return ErrNotFound
	}
	return nil
}
