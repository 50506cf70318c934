package handlers

import (
	"net/http"

	"github.com/gilangrmdn/preptalk/internal/models"
	"github.com/gilangrmdn/preptalk/internal/services"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	svc services.FeedbackService
}

func NewFeedbackHandler(svc services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type CreateFeedbackRequest struct {
	Transcript []models.TranscriptEntry `json:"transcript"`
}

// Create submits a finished call transcript to the generation pipeline.
func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Create", "invalid request body", err))
		return
	}

	feedbackID, err := h.svc.Generate(c.Request.Context(), c.Param("interview_id"), userID, req.Transcript)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"feedback_id": feedbackID,
	})
}

func (h *FeedbackHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	f := h.svc.GetByInterview(c.Request.Context(), c.Param("interview_id"), userID)
	if f == nil {
		writeError(c, utils.E(utils.CodeNotFound, "FeedbackHandler.Get", "feedback not found", nil))
		return
	}

	c.JSON(http.StatusOK, f)
}
