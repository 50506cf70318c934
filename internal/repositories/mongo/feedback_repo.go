package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) (string, error)
	GetByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{col: db.Collection("feedback")}
}

func (r *feedbackRepo) Create(ctx context.Context, f *models.Feedback) (string, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, f)
	if err != nil {
		return "", err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (r *feedbackRepo) GetByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	var f models.Feedback
	err := r.col.FindOne(ctx, bson.M{
		"interview_id": interviewID,
		"user_id":      userID,
	}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &f, err
}
