package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coneno/logger"
	"github.com/osit-platform/osit-backend/pkg/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const codeNamespaceExists = 48

var (
	// ErrNotFound is returned when a lookup by id or unique key matches nothing
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a write violates a unique index
	ErrDuplicateKey = errors.New("duplicate key")
)

type OSITDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
}

func NewOSITDBService(configs types.DBConfig) *OSITDBService {
	var err error
	dbClient, err := mongo.NewClient(
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		logger.Error.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	err = dbClient.Connect(ctx)
	if err != nil {
		logger.Error.Fatal(err)
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()
	if err != nil {
		logger.Error.Fatal("fail to connect to DB: " + err.Error())
	}

	OSITDBService := &OSITDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
	}

	if err := OSITDBService.ensureIndexes(); err != nil {
		logger.Error.Fatal("fail to create indexes: " + err.Error())
	}

	return OSITDBService
}

func (dbService *OSITDBService) Close(ctx context.Context) error {
	return dbService.DBClient.Disconnect(ctx)
}

// ensureIndexes creates the unique indexes and every collection written
// inside the create transaction (older servers refuse implicit creation there).
func (dbService *OSITDBService) ensureIndexes() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	for _, coll := range []*mongo.Collection{
		dbService.collectionRefChildProfiles(),
		dbService.collectionRefAssignmentDetails(),
		dbService.collectionRefInterventionPlans(),
		dbService.collectionRefAssignments(),
	} {
		err := dbService.database().CreateCollection(ctx, coll.Name())
		var cmdErr mongo.CommandError
		if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists) {
			return fmt.Errorf("%s: %w", coll.Name(), err)
		}
	}

	unique := func(keys ...string) mongo.IndexModel {
		doc := bson.D{}
		for _, k := range keys {
			doc = append(doc, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: doc, Options: options.Index().SetUnique(true)}
	}

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{dbService.collectionRefParticipants(), unique("email")},
		{dbService.collectionRefTherapists(), unique("email")},
		{dbService.collectionRefTherapists(), unique("phone")},
		{dbService.collectionRefScorings(), unique("assignmentId")},
		{dbService.collectionRefAssignments(), mongo.IndexModel{Keys: bson.D{{Key: "participantInfo", Value: 1}}}},
		{dbService.collectionRefAssignments(), mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("%s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (dbService *OSITDBService) database() *mongo.Database {
	return dbService.DBClient.Database(dbService.DBNamePrefix + "ositDB")
}

func (dbService *OSITDBService) collectionRefParticipants() *mongo.Collection {
	return dbService.database().Collection("participants")
}

func (dbService *OSITDBService) collectionRefTherapists() *mongo.Collection {
	return dbService.database().Collection("therapists")
}

func (dbService *OSITDBService) collectionRefEvents() *mongo.Collection {
	return dbService.database().Collection("events")
}

func (dbService *OSITDBService) collectionRefChildProfiles() *mongo.Collection {
	return dbService.database().Collection("child-profiles")
}

func (dbService *OSITDBService) collectionRefAssignmentDetails() *mongo.Collection {
	return dbService.database().Collection("assignment-details")
}

func (dbService *OSITDBService) collectionRefInterventionPlans() *mongo.Collection {
	return dbService.database().Collection("intervention-plans")
}

func (dbService *OSITDBService) collectionRefAssignments() *mongo.Collection {
	return dbService.database().Collection("osit-assignments")
}

func (dbService *OSITDBService) collectionRefScorings() *mongo.Collection {
	return dbService.database().Collection("scorings")
}

// WithTransaction runs fn inside a single multi-document transaction. The
// context handed to fn carries the session and must be used for every store
// call that belongs to the transaction. Any error from fn aborts it.
func (dbService *OSITDBService) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := dbService.DBClient.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			if abortErr := sc.AbortTransaction(context.Background()); abortErr != nil {
				logger.Error.Printf("failed to abort transaction: %v", abortErr)
			}
			return err
		}
		return sc.CommitTransaction(context.Background())
	})
}

// DB utils
func (dbService *OSITDBService) getContext(parent context.Context) (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(dbService.timeout)*time.Second)
}

func normalizeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

func insertedID(res *mongo.InsertOneResult) primitive.ObjectID {
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id
}
