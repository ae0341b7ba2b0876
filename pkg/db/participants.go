package db

import (
	"context"
	"time"

	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *OSITDBService) AddParticipant(ctx context.Context, p types.Participant) (primitive.ObjectID, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionRefParticipants().InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, normalizeErr(err)
	}
	return insertedID(res), nil
}

func (dbService *OSITDBService) FindParticipantByID(ctx context.Context, id primitive.ObjectID) (types.Participant, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	elem := types.Participant{}
	err := dbService.collectionRefParticipants().FindOne(ctx, bson.M{"_id": id}).Decode(&elem)
	return elem, normalizeErr(err)
}

func (dbService *OSITDBService) FindParticipantByEmail(ctx context.Context, email string) (types.Participant, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	elem := types.Participant{}
	err := dbService.collectionRefParticipants().FindOne(ctx, bson.M{"email": email}).Decode(&elem)
	return elem, normalizeErr(err)
}

// UpdateParticipantProfile overwrites every profile field; email and password are untouched
func (dbService *OSITDBService) UpdateParticipantProfile(ctx context.Context, id primitive.ObjectID, profile types.ParticipantProfile) (types.Participant, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"fName":         profile.FName,
		"lName":         profile.LName,
		"gender":        profile.Gender,
		"dob":           profile.DOB,
		"phone":         profile.Phone,
		"state":         profile.State,
		"city":          profile.City,
		"therapistType": profile.TherapistType,
		"enrollmentId":  profile.EnrollmentID,
		"updatedAt":     time.Now().UTC(),
	}}
	rd := options.After
	opts := options.FindOneAndUpdateOptions{ReturnDocument: &rd}

	elem := types.Participant{}
	err := dbService.collectionRefParticipants().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, &opts).Decode(&elem)
	return elem, normalizeErr(err)
}
