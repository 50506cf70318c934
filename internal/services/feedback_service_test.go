package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/providers/llm"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/sirupsen/logrus"
)

type fakeLLM struct {
	text      string
	textErr   error
	object    []byte
	objectErr error

	lastSystem string
	lastPrompt string
	lastSchema *llm.Schema
}

func (f *fakeLLM) GenerateText(_ context.Context, system, prompt string) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.text, f.textErr
}

func (f *fakeLLM) GenerateObject(_ context.Context, system, prompt string, schema *llm.Schema) ([]byte, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	f.lastSchema = schema
	return f.object, f.objectErr
}

func (f *fakeLLM) Close() error { return nil }

type fakeFeedbackRepo struct {
	created   []*models.Feedback
	id        string
	createErr error

	stored *models.Feedback
	getErr error
}

func (r *fakeFeedbackRepo) Create(_ context.Context, f *models.Feedback) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.created = append(r.created, f)
	return r.id, nil
}

func (r *fakeFeedbackRepo) GetByInterviewAndUser(_ context.Context, _, _ string) (*models.Feedback, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.stored == nil {
		return nil, utils.ErrNotFound
	}
	return r.stored, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

const validFeedbackJSON = `{
	"totalScore": 72,
	"categoryScores": {
		"Communication Skills": 80,
		"Technical Knowledge": 65,
		"Problem-Solving": 70,
		"Cultural & Role Fit": 75,
		"Confidence & Clarity": 70
	},
	"strengths": ["clear structure"],
	"areasForImprovement": ["deeper examples"],
	"finalAssessment": "Solid overall performance."
}`

var sampleTranscript = []models.TranscriptEntry{
	{Speaker: models.SpeakerUser, Text: "Hi"},
	{Speaker: models.SpeakerAssistant, Text: "Hello"},
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript(sampleTranscript)
	want := "- user: Hi\n- assistant: Hello\n"
	if got != want {
		t.Fatalf("FormatTranscript = %q, want %q", got, want)
	}

	if got := FormatTranscript(nil); got != "" {
		t.Fatalf("empty transcript must serialize to empty block, got %q", got)
	}
}

func TestGenerateRejectsEmptyIdentifiers(t *testing.T) {
	repo := &fakeFeedbackRepo{id: "fb-1"}
	svc := NewFeedbackService(repo, &fakeLLM{object: []byte(validFeedbackJSON)}, quietLogger())
	ctx := context.Background()

	for _, tc := range []struct {
		name                string
		interviewID, userID string
	}{
		{"empty interview id", "", "user-1"},
		{"empty user id", "iv-1", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Generate(ctx, tc.interviewID, tc.userID, sampleTranscript)
			if !utils.IsCode(err, utils.CodeInvalidArgument) {
				t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}

	if len(repo.created) != 0 {
		t.Fatalf("nothing may be written, got %d records", len(repo.created))
	}
}

func TestGenerateSubmitsFormattedTranscript(t *testing.T) {
	provider := &fakeLLM{object: []byte(validFeedbackJSON)}
	svc := NewFeedbackService(&fakeFeedbackRepo{id: "fb-1"}, provider, quietLogger())

	if _, err := svc.Generate(context.Background(), "iv-1", "user-1", sampleTranscript); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(provider.lastPrompt, "- user: Hi\n- assistant: Hello\n") {
		t.Fatalf("prompt missing serialized transcript:\n%s", provider.lastPrompt)
	}
	if provider.lastSystem == "" {
		t.Fatal("expected a system instruction")
	}
	if provider.lastSchema == nil || len(provider.lastSchema.Required) != 5 {
		t.Fatalf("unexpected schema: %+v", provider.lastSchema)
	}
}

func TestGenerateEmptyTranscriptStillProceeds(t *testing.T) {
	repo := &fakeFeedbackRepo{id: "fb-1"}
	svc := NewFeedbackService(repo, &fakeLLM{object: []byte(validFeedbackJSON)}, quietLogger())

	id, err := svc.Generate(context.Background(), "iv-1", "user-1", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if id != "fb-1" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestGenerateRejectsInvalidResponses(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{"missing totalScore", `{
			"categoryScores": {"Communication Skills": 80, "Technical Knowledge": 65, "Problem-Solving": 70, "Cultural & Role Fit": 75, "Confidence & Clarity": 70},
			"strengths": [], "areasForImprovement": [], "finalAssessment": "ok"
		}`},
		{"missing category", `{
			"totalScore": 70,
			"categoryScores": {"Communication Skills": 80, "Technical Knowledge": 65, "Problem-Solving": 70, "Cultural & Role Fit": 75},
			"strengths": [], "areasForImprovement": [], "finalAssessment": "ok"
		}`},
		{"score out of range", `{
			"totalScore": 170,
			"categoryScores": {"Communication Skills": 80, "Technical Knowledge": 65, "Problem-Solving": 70, "Cultural & Role Fit": 75, "Confidence & Clarity": 70},
			"strengths": [], "areasForImprovement": [], "finalAssessment": "ok"
		}`},
		{"unknown field", `{
			"totalScore": 70, "bonus": true,
			"categoryScores": {"Communication Skills": 80, "Technical Knowledge": 65, "Problem-Solving": 70, "Cultural & Role Fit": 75, "Confidence & Clarity": 70},
			"strengths": [], "areasForImprovement": [], "finalAssessment": "ok"
		}`},
		{"not json", `scores look great!`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeFeedbackRepo{id: "fb-1"}
			svc := NewFeedbackService(repo, &fakeLLM{object: []byte(tc.raw)}, quietLogger())

			_, err := svc.Generate(context.Background(), "iv-1", "user-1", sampleTranscript)
			if !utils.IsCode(err, utils.CodeSchemaMismatch) {
				t.Fatalf("expected SCHEMA_MISMATCH, got %v", err)
			}
			if len(repo.created) != 0 {
				t.Fatalf("no record may be persisted, got %d", len(repo.created))
			}
		})
	}
}

func TestGeneratePersistsValidatedRecord(t *testing.T) {
	repo := &fakeFeedbackRepo{id: "fb-1"}
	svc := NewFeedbackService(repo, &fakeLLM{object: []byte(validFeedbackJSON)}, quietLogger())

	id, err := svc.Generate(context.Background(), "iv-1", "user-1", sampleTranscript)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if id != "fb-1" {
		t.Fatalf("unexpected id %q", id)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one record, got %d", len(repo.created))
	}
	rec := repo.created[0]
	if rec.InterviewID != "iv-1" || rec.UserID != "user-1" {
		t.Fatalf("identifiers not merged: %+v", rec)
	}
	if rec.TotalScore != 72 {
		t.Fatalf("totalScore = %d", rec.TotalScore)
	}
	if rec.CategoryScores[models.CategoryCommunication] != 80 {
		t.Fatalf("unexpected category scores: %v", rec.CategoryScores)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("createdAt must be set")
	}
}

func TestGenerateDuplicateCallsCreateDuplicateRecords(t *testing.T) {
	repo := &fakeFeedbackRepo{id: "fb-1"}
	svc := NewFeedbackService(repo, &fakeLLM{object: []byte(validFeedbackJSON)}, quietLogger())
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "iv-1", "user-1", sampleTranscript); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	if _, err := svc.Generate(ctx, "iv-1", "user-1", sampleTranscript); err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if len(repo.created) != 2 {
		t.Fatalf("expected two distinct records, got %d", len(repo.created))
	}
}

func TestGenerateStorageFailureFailsWhole(t *testing.T) {
	repo := &fakeFeedbackRepo{createErr: errors.New("write concern error")}
	svc := NewFeedbackService(repo, &fakeLLM{object: []byte(validFeedbackJSON)}, quietLogger())

	_, err := svc.Generate(context.Background(), "iv-1", "user-1", sampleTranscript)
	if !utils.IsCode(err, utils.CodeInternal) {
		t.Fatalf("expected INTERNAL, got %v", err)
	}
}

func TestGetByInterviewSwallowsStorageFailure(t *testing.T) {
	repo := &fakeFeedbackRepo{getErr: errors.New("connection reset")}
	svc := NewFeedbackService(repo, &fakeLLM{}, quietLogger())

	if f := svc.GetByInterview(context.Background(), "iv-1", "user-1"); f != nil {
		t.Fatalf("expected absent result, got %+v", f)
	}
}

func TestGetByInterviewReturnsStored(t *testing.T) {
	stored := &models.Feedback{InterviewID: "iv-1", UserID: "user-1", TotalScore: 50}
	svc := NewFeedbackService(&fakeFeedbackRepo{stored: stored}, &fakeLLM{}, quietLogger())

	f := svc.GetByInterview(context.Background(), "iv-1", "user-1")
	if f == nil || f.TotalScore != 50 {
		t.Fatalf("unexpected result: %+v", f)
	}

	if f := svc.GetByInterview(context.Background(), "", "user-1"); f != nil {
		t.Fatal("empty interview id must yield absent result")
	}
}
