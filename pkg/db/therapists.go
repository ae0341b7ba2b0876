package db

import (
	"context"

	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (dbService *OSITDBService) AddTherapist(ctx context.Context, t types.Therapist) (primitive.ObjectID, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionRefTherapists().InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, normalizeErr(err)
	}
	return insertedID(res), nil
}

func (dbService *OSITDBService) FindTherapistByID(ctx context.Context, id primitive.ObjectID) (types.Therapist, error) {
	return dbService.findTherapist(ctx, bson.M{"_id": id})
}

func (dbService *OSITDBService) FindTherapistByEmail(ctx context.Context, email string) (types.Therapist, error) {
	return dbService.findTherapist(ctx, bson.M{"email": email})
}

func (dbService *OSITDBService) FindTherapistByPhone(ctx context.Context, phone string) (types.Therapist, error) {
	return dbService.findTherapist(ctx, bson.M{"phone": phone})
}

func (dbService *OSITDBService) findTherapist(ctx context.Context, filter bson.M) (types.Therapist, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	elem := types.Therapist{}
	err := dbService.collectionRefTherapists().FindOne(ctx, filter).Decode(&elem)
	return elem, normalizeErr(err)
}
