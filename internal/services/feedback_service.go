package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/providers/llm"
	mongorepo "github.com/gilangrmdn/preptalk/internal/repositories/mongo"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/sirupsen/logrus"
)

type FeedbackService interface {
	// Generate runs the full pipeline: format transcript, call structured
	// generation, persist the validated result. Fail-fast, at-most-once
	// write, no idempotency key.
	Generate(ctx context.Context, interviewID, userID string, transcript []models.TranscriptEntry) (string, error)
	// GetByInterview returns at most one record; storage failures degrade
	// to absent.
	GetByInterview(ctx context.Context, interviewID, userID string) *models.Feedback
}

type feedbackService struct {
	feedback mongorepo.FeedbackRepository
	llm      llm.Provider
	log      *logrus.Logger
}

func NewFeedbackService(feedback mongorepo.FeedbackRepository, provider llm.Provider, log *logrus.Logger) FeedbackService {
	return &feedbackService{feedback: feedback, llm: provider, log: log}
}

const feedbackSystem = "You are a professional interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories"

var feedbackSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"totalScore": {Type: llm.TypeInteger},
		"categoryScores": {
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				models.CategoryCommunication:  {Type: llm.TypeInteger},
				models.CategoryTechnical:      {Type: llm.TypeInteger},
				models.CategoryProblemSolving: {Type: llm.TypeInteger},
				models.CategoryCultureFit:     {Type: llm.TypeInteger},
				models.CategoryConfidence:     {Type: llm.TypeInteger},
			},
			Required: models.FeedbackCategories,
		},
		"strengths":           {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
		"areasForImprovement": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
		"finalAssessment":     {Type: llm.TypeString},
	},
	Required: []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
}

// FormatTranscript serialises a transcript into one line per utterance,
// original order. An empty transcript serialises to an empty block.
func FormatTranscript(transcript []models.TranscriptEntry) string {
	var b strings.Builder
	for _, e := range transcript {
		b.WriteString("- " + string(e.Speaker) + ": " + e.Text + "\n")
	}
	return b.String()
}

func feedbackPrompt(formattedTranscript string) string {
	return `You are an AI interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories. Be thorough and detailed in your analysis. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out.
Transcript:
` + formattedTranscript + `

Please score the candidate from 0 to 100 in the following areas. Do not add categories other than the ones provided:
- **Communication Skills**: Clarity, articulation, structured responses.
- **Technical Knowledge**: Understanding of key concepts for the role.
- **Problem-Solving**: Ability to analyze problems and propose solutions.
- **Cultural & Role Fit**: Alignment with company values and job role.
- **Confidence & Clarity**: Confidence in responses, engagement, and clarity.`
}

func (s *feedbackService) Generate(ctx context.Context, interviewID, userID string, transcript []models.TranscriptEntry) (string, error) {
	const op = "FeedbackService.Generate"

	if interviewID == "" || userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "interview_id and user_id are required", nil)
	}

	prompt := feedbackPrompt(FormatTranscript(transcript))

	raw, err := s.llm.GenerateObject(ctx, feedbackSystem, prompt, feedbackSchema)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "feedback generation failed", err)
	}

	obj, err := parseFeedbackObject(raw)
	if err != nil {
		return "", utils.E(utils.CodeSchemaMismatch, op, "generation response failed schema validation", err)
	}

	record := &models.Feedback{
		InterviewID:         interviewID,
		UserID:              userID,
		TotalScore:          *obj.TotalScore,
		CategoryScores:      obj.categoryScores(),
		Strengths:           obj.Strengths,
		AreasForImprovement: obj.AreasForImprovement,
		FinalAssessment:     obj.FinalAssessment,
		CreatedAt:           time.Now().UTC(),
	}

	id, err := s.feedback.Create(ctx, record)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to store feedback", err)
	}
	return id, nil
}

func (s *feedbackService) GetByInterview(ctx context.Context, interviewID, userID string) *models.Feedback {
	if interviewID == "" || userID == "" {
		return nil
	}

	f, err := s.feedback.GetByInterviewAndUser(ctx, interviewID, userID)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			s.log.WithError(err).WithField("interview_id", interviewID).Error("failed to fetch feedback")
		}
		return nil
	}
	return f
}

// feedbackObject mirrors the generation response schema. Pointer fields
// distinguish missing values from zero scores.
type feedbackObject struct {
	TotalScore          *int            `json:"totalScore"`
	CategoryScores      map[string]*int `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
}

func (o *feedbackObject) categoryScores() map[string]int {
	out := make(map[string]int, len(o.CategoryScores))
	for k, v := range o.CategoryScores {
		out[k] = *v
	}
	return out
}

func parseFeedbackObject(raw []byte) (*feedbackObject, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var obj feedbackObject
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}

	if obj.TotalScore == nil {
		return nil, errors.New("missing totalScore")
	}
	if *obj.TotalScore < 0 || *obj.TotalScore > 100 {
		return nil, fmt.Errorf("totalScore %d out of range", *obj.TotalScore)
	}

	if len(obj.CategoryScores) != len(models.FeedbackCategories) {
		return nil, fmt.Errorf("expected %d category scores, got %d", len(models.FeedbackCategories), len(obj.CategoryScores))
	}
	for _, name := range models.FeedbackCategories {
		score, ok := obj.CategoryScores[name]
		if !ok || score == nil {
			return nil, fmt.Errorf("missing category score %q", name)
		}
		if *score < 0 || *score > 100 {
			return nil, fmt.Errorf("category score %q out of range: %d", name, *score)
		}
	}

	if obj.Strengths == nil {
		return nil, errors.New("missing strengths")
	}
	if obj.AreasForImprovement == nil {
		return nil, errors.New("missing areasForImprovement")
	}
	if obj.FinalAssessment == "" {
		return nil, errors.New("missing finalAssessment")
	}
	return &obj, nil
}
