package db

import (
	"context"
	"time"

	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (dbService *OSITDBService) InsertChildProfile(ctx context.Context, cp types.ChildProfile) (primitive.ObjectID, error) {
	cp.ID = primitive.NilObjectID
	return dbService.insertOne(ctx, dbService.collectionRefChildProfiles(), cp)
}

func (dbService *OSITDBService) InsertAssignmentDetail(ctx context.Context, ad types.AssignmentDetail) (primitive.ObjectID, error) {
	ad.ID = primitive.NilObjectID
	return dbService.insertOne(ctx, dbService.collectionRefAssignmentDetails(), ad)
}

func (dbService *OSITDBService) InsertInterventionPlan(ctx context.Context, plan types.InterventionPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NilObjectID
	return dbService.insertOne(ctx, dbService.collectionRefInterventionPlans(), plan)
}

func (dbService *OSITDBService) InsertAssignment(ctx context.Context, a types.OSITAssignment) (primitive.ObjectID, error) {
	a.ID = primitive.NilObjectID
	return dbService.insertOne(ctx, dbService.collectionRefAssignments(), a)
}

func (dbService *OSITDBService) insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, normalizeErr(err)
	}
	return insertedID(res), nil
}

func (dbService *OSITDBService) FindAssignmentByID(ctx context.Context, id primitive.ObjectID) (types.OSITAssignment, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	elem := types.OSITAssignment{}
	err := dbService.collectionRefAssignments().FindOne(ctx, bson.M{"_id": id}).Decode(&elem)
	return elem, normalizeErr(err)
}

func (dbService *OSITDBService) ReplaceChildProfile(ctx context.Context, id primitive.ObjectID, cp types.ChildProfile) error {
	cp.ID = id
	return dbService.replaceOne(ctx, dbService.collectionRefChildProfiles(), id, cp)
}

func (dbService *OSITDBService) ReplaceAssignmentDetail(ctx context.Context, id primitive.ObjectID, ad types.AssignmentDetail) error {
	ad.ID = id
	return dbService.replaceOne(ctx, dbService.collectionRefAssignmentDetails(), id, ad)
}

func (dbService *OSITDBService) ReplaceInterventionPlan(ctx context.Context, id primitive.ObjectID, plan types.InterventionPlan) error {
	plan.ID = id
	return dbService.replaceOne(ctx, dbService.collectionRefInterventionPlans(), id, plan)
}

func (dbService *OSITDBService) replaceOne(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc interface{}) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return normalizeErr(err)
	}
	if res.MatchedCount < 1 {
		return ErrNotFound
	}
	return nil
}

func (dbService *OSITDBService) TouchAssignment(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_, err := dbService.collectionRefAssignments().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}})
	return err
}

func (dbService *OSITDBService) DeleteAssignment(ctx context.Context, id primitive.ObjectID) error {
	return dbService.deleteOne(ctx, dbService.collectionRefAssignments(), id)
}

func (dbService *OSITDBService) DeleteChildProfile(ctx context.Context, id primitive.ObjectID) error {
	return dbService.deleteOne(ctx, dbService.collectionRefChildProfiles(), id)
}

func (dbService *OSITDBService) DeleteAssignmentDetail(ctx context.Context, id primitive.ObjectID) error {
	return dbService.deleteOne(ctx, dbService.collectionRefAssignmentDetails(), id)
}

func (dbService *OSITDBService) DeleteInterventionPlan(ctx context.Context, id primitive.ObjectID) error {
	return dbService.deleteOne(ctx, dbService.collectionRefInterventionPlans(), id)
}

func (dbService *OSITDBService) deleteOne(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return ErrNotFound
	}
	return nil
}

// QueryAssignments resolves every reference of the matching assignments in a
// single aggregation, left-joining the scoring (with its therapist), newest first.
func (dbService *OSITDBService) QueryAssignments(ctx context.Context, q types.AssignmentQuery) (views []types.AssignmentView, err error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	cur, err := dbService.collectionRefAssignments().Aggregate(ctx, assignmentViewPipeline(q))
	if err != nil {
		return views, err
	}
	defer cur.Close(ctx)

	views = []types.AssignmentView{}
	for cur.Next(ctx) {
		var result types.AssignmentView
		err := cur.Decode(&result)

		if err != nil {
			return views, err
		}

		views = append(views, result)
	}
	if err := cur.Err(); err != nil {
		return views, err
	}

	return views, nil
}

func assignmentViewPipeline(q types.AssignmentQuery) mongo.Pipeline {
	pipeline := mongo.Pipeline{}

	match := bson.M{}
	if q.ID != nil {
		match["_id"] = *q.ID
	}
	if q.ParticipantID != nil {
		match["participantInfo"] = *q.ParticipantID
	}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	joins := []struct{ from, field string }{
		{"participants", "participantInfo"},
		{"child-profiles", "childProfile"},
		{"assignment-details", "assignmentDetail"},
		{"intervention-plans", "interventionPlan"},
		{"events", "event"},
	}
	for _, j := range joins {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{"from": j.from, "localField": j.field, "foreignField": "_id", "as": j.field}}},
			bson.D{{Key: "$unwind", Value: bson.M{"path": "$" + j.field, "preserveNullAndEmptyArrays": true}}},
		)
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from": "scorings",
			"let":  bson.M{"aid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$assignmentId", "$$aid"}}}},
				bson.M{"$lookup": bson.M{"from": "therapists", "localField": "therapist", "foreignField": "_id", "as": "therapist"}},
				bson.M{"$unwind": bson.M{"path": "$therapist", "preserveNullAndEmptyArrays": true}},
				bson.M{"$project": bson.M{"therapist.password": 0}},
			},
			"as": "scoring",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$scoring", "preserveNullAndEmptyArrays": true}}},
	)

	switch q.Status {
	case types.SCORING_STATUS_SCORED:
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"scoring": bson.M{"$exists": true}}}})
	case types.SCORING_STATUS_UNSCORED:
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"scoring": bson.M{"$exists": false}}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: bson.M{"participantInfo.password": 0}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	)
	return pipeline
}
