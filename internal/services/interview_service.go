package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gilangrmdn/preptalk/internal/cache"
	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/providers/llm"
	mongorepo "github.com/gilangrmdn/preptalk/internal/repositories/mongo"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultLatestLimit = 20
	defaultQuestionN   = 5
	latestCacheTTL     = 30 * time.Second
	latestCacheKeyStem = "interviews:latest"
)

type GenerateInterviewParams struct {
	UserID    string
	Role      string
	Type      string
	Level     string
	Techstack []string
	Amount    int
}

type InterviewService interface {
	// Generate produces a question list via the LLM and persists a new
	// finalized interview. Nothing is persisted when the model output
	// cannot be parsed.
	Generate(ctx context.Context, p GenerateInterviewParams) (*models.Interview, error)

	// Read paths. All degrade to empty/absent results on storage failure;
	// the failure is logged, never propagated.
	GetByID(ctx context.Context, id string) *models.Interview
	ListByOwner(ctx context.Context, userID string) []models.Interview
	ListAvailable(ctx context.Context, excludeUserID string, limit int64) []models.Interview
}

type interviewService struct {
	interviews mongorepo.InterviewRepository
	llm        llm.Provider
	cache      cache.Cache
	log        *logrus.Logger
}

func NewInterviewService(interviews mongorepo.InterviewRepository, provider llm.Provider, c cache.Cache, log *logrus.Logger) InterviewService {
	return &interviewService{interviews: interviews, llm: provider, cache: c, log: log}
}

func questionsPrompt(p GenerateInterviewParams) string {
	amount := p.Amount
	if amount <= 0 {
		amount = defaultQuestionN
	}
	return `Prepare questions for a job interview.
The job role is ` + p.Role + `.
The job experience level is ` + p.Level + `.
The tech stack used in the job is: ` + strings.Join(p.Techstack, ", ") + `.
The focus between behavioural and technical questions should lean towards: ` + p.Type + `.
The amount of questions required is: ` + strconv.Itoa(amount) + `.
Please return only the questions, without any additional text.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.
Return the questions formatted like this:
["Question 1", "Question 2", "Question 3"]`
}

func (s *interviewService) Generate(ctx context.Context, p GenerateInterviewParams) (*models.Interview, error) {
	const op = "InterviewService.Generate"

	if p.UserID == "" || p.Role == "" || p.Type == "" || p.Level == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id, role, type, and level are required", nil)
	}

	text, err := s.llm.GenerateText(ctx, "", questionsPrompt(p))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "question generation failed", err)
	}

	questions, err := parseQuestionList(text)
	if err != nil {
		return nil, utils.E(utils.CodeSchemaMismatch, op, "model returned an unparseable question list", err)
	}

	iv := &models.Interview{
		Role:      p.Role,
		Type:      p.Type,
		Level:     p.Level,
		Techstack: p.Techstack,
		Questions: questions,
		UserID:    p.UserID,
		Finalized: true,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.interviews.Create(ctx, iv)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store interview", err)
	}

	stored, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		// record exists; fall back to the in-memory copy
		return iv, nil
	}
	return stored, nil
}

func (s *interviewService) GetByID(ctx context.Context, id string) *models.Interview {
	if id == "" {
		return nil
	}

	iv, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			s.log.WithError(err).WithField("interview_id", id).Error("failed to fetch interview")
		}
		return nil
	}
	return iv
}

func (s *interviewService) ListByOwner(ctx context.Context, userID string) []models.Interview {
	if userID == "" {
		return []models.Interview{}
	}

	rows, err := s.interviews.ListByUser(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to list interviews")
		return []models.Interview{}
	}
	if rows == nil {
		rows = []models.Interview{}
	}
	return rows
}

func (s *interviewService) ListAvailable(ctx context.Context, excludeUserID string, limit int64) []models.Interview {
	if limit <= 0 {
		limit = defaultLatestLimit
	}

	key := fmt.Sprintf("%s:%s:%d", latestCacheKeyStem, excludeUserID, limit)
	if s.cache != nil {
		var cached []models.Interview
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached
		}
	}

	rows, err := s.interviews.ListLatest(ctx, excludeUserID, limit)
	if err != nil {
		s.log.WithError(err).Error("failed to list latest interviews")
		return []models.Interview{}
	}
	if rows == nil {
		rows = []models.Interview{}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, rows, latestCacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache latest interviews")
		}
	}
	return rows
}

// parseQuestionList extracts the JSON string array from the model output,
// tolerating surrounding prose or markdown fences.
func parseQuestionList(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in output")
	}

	var questions []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, errors.New("empty question list")
	}
	return questions, nil
}
