package db

import (
	"context"
	"time"

	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *OSITDBService) AddEvent(ctx context.Context, event types.Event) (types.Event, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	event.ID = primitive.NilObjectID
	event.CreatedAt = now
	event.UpdatedAt = now
	res, err := dbService.collectionRefEvents().InsertOne(ctx, event)
	if err != nil {
		return event, normalizeErr(err)
	}
	event.ID = insertedID(res)
	return event, nil
}

func (dbService *OSITDBService) FindAllEvents(ctx context.Context) (events []types.Event, err error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	batchSize := int32(32)
	opts := options.FindOptions{
		BatchSize: &batchSize,
		Sort:      bson.D{{Key: "createdAt", Value: -1}},
	}
	cur, err := dbService.collectionRefEvents().Find(ctx, bson.M{}, &opts)
	if err != nil {
		return events, err
	}
	defer cur.Close(ctx)

	events = []types.Event{}
	for cur.Next(ctx) {
		var result types.Event
		err := cur.Decode(&result)

		if err != nil {
			return events, err
		}

		events = append(events, result)
	}
	if err := cur.Err(); err != nil {
		return events, err
	}

	return events, nil
}

func (dbService *OSITDBService) FindEventByID(ctx context.Context, id primitive.ObjectID) (types.Event, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	elem := types.Event{}
	err := dbService.collectionRefEvents().FindOne(ctx, bson.M{"_id": id}).Decode(&elem)
	return elem, normalizeErr(err)
}

func (dbService *OSITDBService) UpdateEvent(ctx context.Context, event types.Event) (types.Event, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":             event.Name,
		"startDate":        event.StartDate,
		"endDate":          event.EndDate,
		"submissionExpiry": event.SubmissionExpiry,
		"location":         event.Location,
		"updatedAt":        time.Now().UTC(),
	}}
	rd := options.After
	opts := options.FindOneAndUpdateOptions{ReturnDocument: &rd}

	elem := types.Event{}
	err := dbService.collectionRefEvents().FindOneAndUpdate(ctx, bson.M{"_id": event.ID}, update, &opts).Decode(&elem)
	return elem, normalizeErr(err)
}

func (dbService *OSITDBService) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionRefEvents().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return ErrNotFound
	}
	return nil
}
