package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gilangrmdn/preptalk/internal/call"
	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/services"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// CallWSHandler bridges the browser voice SDK to the call-session state
// machine. The SDK relays its lifecycle and transcript callbacks over the
// socket; server control frames (start/stop) flow back the other way.
type CallWSHandler struct {
	interviews services.InterviewService
	feedback   services.FeedbackService
	cfg        call.Config
	log        *logrus.Logger
	upgrader   websocket.Upgrader
}

func NewCallWSHandler(interviews services.InterviewService, feedback services.FeedbackService, cfg call.Config, log *logrus.Logger) *CallWSHandler {
	return &CallWSHandler{
		interviews: interviews,
		feedback:   feedback,
		cfg:        cfg,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type callClientMsg struct {
	Type string `json:"type"`

	// transcript events
	Role           string `json:"role"`
	Content        string `json:"content"`
	TranscriptType string `json:"transcript_type"`

	// error events
	Message string `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

// wsTransport asks the client-side SDK to start or stop the vendor call.
type wsTransport struct {
	conn *wsConn
}

func (t *wsTransport) Start(_ context.Context, sessionID string, variables map[string]string) error {
	return t.conn.writeJSON(map[string]any{
		"type":       "start",
		"session_id": sessionID,
		"variables":  variables,
	})
}

func (t *wsTransport) Stop() error {
	return t.conn.writeText([]byte(`{"type":"stop"}`))
}

func (h *CallWSHandler) CallWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	mode := call.Mode(c.Query("mode"))
	if mode != call.ModeSetup && mode != call.ModeStructured {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CallWSHandler.CallWS", "mode must be setup or structured", nil))
		return
	}

	var interviewID string
	var questions []string
	if mode == call.ModeStructured {
		interviewID = c.Query("interview_id")
		iv := h.interviews.GetByID(c.Request.Context(), interviewID)
		if iv == nil {
			writeError(c, utils.E(utils.CodeNotFound, "CallWSHandler.CallWS", "interview not found", nil))
			return
		}
		questions = iv.Questions
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	sess := call.NewSession(call.Params{
		Mode:        mode,
		Config:      h.cfg,
		Transport:   &wsTransport{conn: wc},
		Generate:    h.feedback.Generate,
		Logger:      h.log,
		UserID:      userID,
		UserName:    c.Query("user_name"),
		InterviewID: interviewID,
		Questions:   questions,
	})

	h.log.WithFields(logrus.Fields{
		"call_session": sess.ID(),
		"mode":         sess.Mode(),
		"user_id":      userID,
	}).Info("call session opened")

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// single-threaded dispatcher: every session mutation happens in this loop
	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			// client went away mid-call: treat as disconnect so a
			// structured transcript is still submitted
			if sess.Status() == call.StatusConnecting || sess.Status() == call.StatusActive {
				sess.Disconnect(context.WithoutCancel(ctx))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg callClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
			continue
		}

		switch msg.Type {
		case "start":
			if err := sess.Start(ctx); err != nil {
				h.writeWSError(wc, err)
				continue
			}
			_ = wc.writeJSON(map[string]any{"type": "status", "status": sess.Status()})

		case "disconnect":
			out := sess.Disconnect(ctx)
			h.writeOutcome(wc, out)
			return

		default:
			ev, ok := toCallEvent(msg)
			if !ok {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
				continue
			}

			before := sess.Status()
			out := sess.HandleEvent(ctx, ev)
			if sess.Status() != before {
				_ = wc.writeJSON(map[string]any{"type": "status", "status": sess.Status()})
			}
			if out != nil {
				h.writeOutcome(wc, out)
				return
			}
		}
	}
}

func toCallEvent(msg callClientMsg) (call.Event, bool) {
	switch msg.Type {
	case "call-start":
		return call.Event{Type: call.EventCallStart}, true
	case "call-end":
		return call.Event{Type: call.EventCallEnd}, true
	case "transcript":
		return call.Event{
			Type:           call.EventTranscript,
			Speaker:        models.Speaker(msg.Role),
			Text:           msg.Content,
			TranscriptType: msg.TranscriptType,
		}, true
	case "speech-start":
		return call.Event{Type: call.EventSpeechStart}, true
	case "speech-end":
		return call.Event{Type: call.EventSpeechEnd}, true
	case "error":
		return call.Event{Type: call.EventError, Err: errors.New(msg.Message)}, true
	default:
		return call.Event{}, false
	}
}

func (h *CallWSHandler) writeWSError(wc *wsConn, err error) {
	code := utils.CodeInternal
	message := "internal error"

	var ae *utils.AppError
	if errors.As(err, &ae) {
		code = ae.Code
		message = ae.Message
	}

	_ = wc.writeJSON(map[string]any{
		"type":    "error",
		"code":    code,
		"message": message,
	})
}

func (h *CallWSHandler) writeOutcome(wc *wsConn, out *call.Outcome) {
	if out == nil {
		return
	}
	_ = wc.writeJSON(map[string]any{
		"type":        "outcome",
		"route":       out.Route,
		"feedback_id": out.FeedbackID,
	})
}
