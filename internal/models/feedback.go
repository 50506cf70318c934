package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The closed set of scoring categories. Generation is constrained to exactly
// these five; anything else fails validation.
const (
	CategoryCommunication  = "Communication Skills"
	CategoryTechnical      = "Technical Knowledge"
	CategoryProblemSolving = "Problem-Solving"
	CategoryCultureFit     = "Cultural & Role Fit"
	CategoryConfidence     = "Confidence & Clarity"
)

var FeedbackCategories = []string{
	CategoryCommunication,
	CategoryTechnical,
	CategoryProblemSolving,
	CategoryCultureFit,
	CategoryConfidence,
}

// Feedback is immutable once written; the pipeline only ever creates.
type Feedback struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterviewID         string             `bson:"interview_id" json:"interview_id"`
	UserID              string             `bson:"user_id" json:"user_id"`
	TotalScore          int                `bson:"total_score" json:"total_score"`
	CategoryScores      map[string]int     `bson:"category_scores" json:"category_scores"`
	Strengths           []string           `bson:"strengths" json:"strengths"`
	AreasForImprovement []string           `bson:"areas_for_improvement" json:"areas_for_improvement"`
	FinalAssessment     string             `bson:"final_assessment" json:"final_assessment"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
}
