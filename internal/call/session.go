package call

import (
	"context"
	"strconv"
	"strings"

	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusFinished   Status = "finished"
)

// Mode is chosen explicitly at session creation. Setup calls collect interview
// parameters conversationally and submit no transcript; structured calls run a
// predetermined question list and end in feedback generation.
type Mode string

const (
	ModeSetup      Mode = "setup"
	ModeStructured Mode = "structured"
)

// FeedbackFunc submits a frozen transcript to the feedback pipeline and
// returns the new feedback record id.
type FeedbackFunc func(ctx context.Context, interviewID, userID string, transcript []models.TranscriptEntry) (string, error)

// Outcome tells the client where to route once the call has finished.
type Outcome struct {
	Route      string `json:"route"`
	FeedbackID string `json:"feedback_id,omitempty"`
}

type Params struct {
	Mode        Mode
	Config      Config
	Transport   Transport
	Generate    FeedbackFunc
	Logger      *logrus.Logger
	UserID      string
	UserName    string
	InterviewID string
	Questions   []string
}

// Session tracks one voice call: idle -> connecting -> active -> finished,
// monotonic, finished is terminal. Events must be delivered from a single
// goroutine; the session holds no locks of its own.
type Session struct {
	id        string
	mode      Mode
	cfg       Config
	transport Transport
	generate  FeedbackFunc
	log       *logrus.Entry

	userID      string
	userName    string
	interviewID string
	questions   []string

	status         Status
	transcript     []models.TranscriptEntry
	remoteSpeaking bool
	submitted      bool
	outcome        *Outcome
}

func NewSession(p Params) *Session {
	l := p.Logger
	if l == nil {
		l = logrus.New()
	}

	id := uuid.NewString()
	return &Session{
		id:          id,
		mode:        p.Mode,
		cfg:         p.Config,
		transport:   p.Transport,
		generate:    p.Generate,
		log:         l.WithFields(logrus.Fields{"call_session": id, "mode": string(p.Mode)}),
		userID:      p.UserID,
		userName:    p.UserName,
		interviewID: p.InterviewID,
		questions:   p.Questions,
		status:      StatusIdle,
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Mode() Mode     { return s.mode }
func (s *Session) Status() Status { return s.status }

func (s *Session) RemoteSpeaking() bool { return s.remoteSpeaking }

// Transcript returns a copy of the accumulated utterances in arrival order.
func (s *Session) Transcript() []models.TranscriptEntry {
	out := make([]models.TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Start moves idle -> connecting and asks the transport to establish the
// call. A missing session identifier aborts before the transport is touched;
// a transport failure reverts to idle with a categorised message.
func (s *Session) Start(ctx context.Context) error {
	const op = "CallSession.Start"

	if s.status != StatusIdle {
		return utils.E(utils.CodeFailedPrecondition, op, "call already started", nil)
	}

	sessionID, variables := s.startArgs()
	if sessionID == "" {
		if s.mode == ModeSetup {
			return utils.E(utils.CodeFailedPrecondition, op, "voice workflow id is not configured", nil)
		}
		return utils.E(utils.CodeFailedPrecondition, op, "voice assistant id is not configured", nil)
	}
	if s.mode == ModeStructured && len(s.questions) == 0 {
		return utils.E(utils.CodeFailedPrecondition, op, "structured interview has no questions", nil)
	}

	s.status = StatusConnecting
	if err := s.transport.Start(ctx, sessionID, variables); err != nil {
		s.status = StatusIdle
		s.log.WithError(err).Error("transport start failed")
		return utils.E(utils.CodeUnavailable, op, startErrorMessage(err), err)
	}
	return nil
}

func (s *Session) startArgs() (string, map[string]string) {
	if s.mode == ModeSetup {
		return s.cfg.WorkflowID, map[string]string{
			"username": s.userName,
			"userid":   s.userID,
		}
	}
	return s.cfg.AssistantID, map[string]string{
		"questions": formatQuestions(s.questions),
	}
}

// HandleEvent processes one transport callback. It returns a non-nil Outcome
// exactly when the event drove the session into its terminal state.
func (s *Session) HandleEvent(ctx context.Context, ev Event) *Outcome {
	if s.status == StatusFinished {
		// inert after termination
		return nil
	}

	switch ev.Type {
	case EventCallStart:
		if s.status == StatusConnecting {
			s.status = StatusActive
		}
		return nil

	case EventCallEnd:
		if s.status == StatusConnecting || s.status == StatusActive {
			return s.finish(ctx)
		}
		// a call that never started has nothing to end
		return nil

	case EventTranscript:
		if ev.TranscriptType == TranscriptFinal {
			s.transcript = append(s.transcript, models.TranscriptEntry{
				Speaker: ev.Speaker,
				Text:    ev.Text,
			})
		}
		return nil

	case EventSpeechStart:
		s.remoteSpeaking = true
		return nil

	case EventSpeechEnd:
		s.remoteSpeaking = false
		return nil

	case EventError:
		s.log.WithError(ev.Err).Error("transport error")
		if s.status == StatusConnecting || s.status == StatusActive {
			// error during a live call ends it
			return s.finish(ctx)
		}
		return nil
	}

	return nil
}

// Disconnect is the user-initiated teardown. The session is marked finished
// before the transport is asked to stop (optimistic termination). A session
// that never left Idle is left untouched.
func (s *Session) Disconnect(ctx context.Context) *Outcome {
	if s.status == StatusIdle || s.status == StatusFinished {
		return s.outcome
	}

	out := s.finish(ctx)
	if err := s.transport.Stop(); err != nil {
		s.log.WithError(err).Warn("transport stop failed")
	}
	return out
}

// finish freezes the transcript and, for structured calls, submits it to the
// feedback pipeline exactly once. Generation failure routes back to the
// landing view with no retry.
func (s *Session) finish(ctx context.Context) *Outcome {
	if s.status == StatusFinished {
		return s.outcome
	}
	s.status = StatusFinished

	if s.mode == ModeSetup {
		s.outcome = &Outcome{Route: "/"}
		return s.outcome
	}

	if s.submitted {
		return s.outcome
	}
	s.submitted = true

	feedbackID, err := s.generate(ctx, s.interviewID, s.userID, s.Transcript())
	if err != nil {
		s.log.WithError(err).Error("feedback generation failed")
		s.outcome = &Outcome{Route: "/"}
		return s.outcome
	}

	s.outcome = &Outcome{
		Route:      "/interview/" + s.interviewID + "/feedback",
		FeedbackID: feedbackID,
	}
	return s.outcome
}

func formatQuestions(questions []string) string {
	var b strings.Builder
	for i, q := range questions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i+1) + ". " + q)
	}
	return b.String()
}

// startErrorMessage folds opaque transport failures into the handful of
// user-facing causes worth distinguishing.
func startErrorMessage(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "does not exist") || strings.Contains(lower, "not found"):
		return "the configured voice assistant or workflow does not exist"
	case strings.Contains(lower, "ejection") || strings.Contains(lower, "meeting ended"):
		return "the call was terminated before it could start"
	case strings.Contains(lower, "unauthorized") || strings.Contains(msg, "401"):
		return "authentication with the voice provider failed"
	default:
		return "failed to start the voice call"
	}
}
