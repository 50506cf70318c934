package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := db.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_email").
				SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	interviews := db.Collection("interviews")
	_, err = interviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// "my interviews" listing
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_user_created"),
		},
		// discovery listing (finalized, newest first)
		{
			Keys:    bson.D{{Key: "finalized", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_finalized_created"),
		},
	})
	if err != nil {
		return err
	}

	// Deliberately NOT unique: duplicate generate calls create duplicate
	// feedback records.
	feedback := db.Collection("feedback")
	_, err = feedback.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "interview_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("by_interview_user"),
		},
	})
	return err
}
