package db

import (
	"context"

	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DeleteOrphanedSubDocuments removes child profiles, assignment details and
// intervention plans that no assignment references any more.
func (dbService *OSITDBService) DeleteOrphanedSubDocuments(ctx context.Context) (report types.OrphanSweepReport, err error) {
	report.ChildProfiles, err = dbService.deleteOrphans(ctx, dbService.collectionRefChildProfiles(), "childProfile")
	if err != nil {
		return
	}
	report.AssignmentDetails, err = dbService.deleteOrphans(ctx, dbService.collectionRefAssignmentDetails(), "assignmentDetail")
	if err != nil {
		return
	}
	report.InterventionPlans, err = dbService.deleteOrphans(ctx, dbService.collectionRefInterventionPlans(), "interventionPlan")
	return
}

func (dbService *OSITDBService) deleteOrphans(ctx context.Context, coll *mongo.Collection, refField string) (int64, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         dbService.collectionRefAssignments().Name(),
			"localField":   "_id",
			"foreignField": refField,
			"as":           "refs",
		}}},
		{{Key: "$match", Value: bson.M{"refs": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	}
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var result struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&result); err != nil {
			return 0, err
		}
		ids = append(ids, result.ID)
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
