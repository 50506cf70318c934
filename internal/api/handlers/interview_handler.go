package handlers

import (
	"net/http"
	"strconv"

	"github.com/gilangrmdn/preptalk/internal/services"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/gin-gonic/gin"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type GenerateInterviewRequest struct {
	Role      string   `json:"role" binding:"required"`
	Type      string   `json:"type" binding:"required"`
	Level     string   `json:"level" binding:"required"`
	Techstack []string `json:"techstack"`
	Amount    int      `json:"amount"`
}

func (h *InterviewHandler) Generate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req GenerateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Generate", "invalid request body", err))
		return
	}

	iv, err := h.svc.Generate(c.Request.Context(), services.GenerateInterviewParams{
		UserID:    userID,
		Role:      req.Role,
		Type:      req.Type,
		Level:     req.Level,
		Techstack: req.Techstack,
		Amount:    req.Amount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, iv)
}

func (h *InterviewHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows := h.svc.ListByOwner(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"interviews": rows})
}

func (h *InterviewHandler) ListLatest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var limit int64
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rows := h.svc.ListAvailable(c.Request.Context(), userID, limit)
	c.JSON(http.StatusOK, gin.H{"interviews": rows})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	iv := h.svc.GetByID(c.Request.Context(), c.Param("interview_id"))
	if iv == nil {
		writeError(c, utils.E(utils.CodeNotFound, "InterviewHandler.Get", "interview not found", nil))
		return
	}

	c.JSON(http.StatusOK, iv)
}
