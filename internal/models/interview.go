package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Interview struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role      string             `bson:"role" json:"role"`
	Type      string             `bson:"type" json:"type"` // technical|behavioural|mixed
	Level     string             `bson:"level" json:"level"`
	Techstack []string           `bson:"techstack" json:"techstack"`
	Questions []string           `bson:"questions" json:"questions"` // empty for open-ended interviews
	UserID    string             `bson:"user_id" json:"user_id"`
	Finalized bool               `bson:"finalized" json:"finalized"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
