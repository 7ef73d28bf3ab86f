package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fairbot/internal/apperrors"
	"fairbot/internal/corrections"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
)

const msgInvalidJSON = "Invalid JSON in request body."

type chatRequest struct {
	UserQuestion string `json:"userQuestion"`
	SessionID    string `json:"sessionId"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidJSON})
		return
	}
	if req.UserQuestion == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing 'userQuestion' in request body."})
		return
	}
	if s.deps.Chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Assistant is not configured."})
		return
	}

	reply, err := s.deps.Chat.Ask(c.Request.Context(), req.SessionID, req.UserQuestion)
	if err != nil {
		s.fail(c, err, "Failed to process chat request.")
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleCorrect(c *gin.Context) {
	var in logstore.CorrectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidJSON})
		return
	}

	entry, err := s.deps.Corrections.RecordCorrection(c.Request.Context(), in)
	if err != nil {
		if fields := apperrors.MissingFields(err); fields != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message":       "Missing required fields for admin correction.",
				"missingFields": fields,
			})
			return
		}
		s.fail(c, err, "Failed to save admin correction due to database error.")
		return
	}

	logger.Get(c.Request.Context()).Infow("admin correction saved",
		"session_id", entry.SessionID, "interaction_id", entry.InteractionID)
	c.JSON(http.StatusOK, gin.H{"message": "Admin correction saved successfully."})
}

func (s *Server) handleHistory(c *gin.Context) {
	page, errPage := intQuery(c, "page", DefaultPage)
	limit, errLimit := intQuery(c, "limit", DefaultLimit)
	if errPage != nil || errLimit != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid 'limit' or 'page' query parameter. Must be an integer."})
		return
	}

	out, err := s.deps.History.GetHistory(c.Request.Context(), c.Query("sessionId"), page, limit)
	if err != nil {
		s.fail(c, err, "Failed to retrieve history due to database error.")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleFindCorrections(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing 'q' query parameter."})
		return
	}
	limit, err := intQuery(c, "limit", corrections.DefaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid 'limit' query parameter. Must be an integer."})
		return
	}

	found, err := s.deps.Matcher.Find(c.Request.Context(), q, limit)
	if err != nil {
		s.fail(c, err, "Failed to retrieve corrections due to database error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": found, "text": corrections.Render(found)})
}

// fail maps an error to a response: caller mistakes are 400, everything
// else is 500 with msg.
func (s *Server) fail(c *gin.Context, err error, msg string) {
	log := logger.Get(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrMissingField), errors.Is(err, apperrors.ErrMalformed):
		log.Warnw("rejected request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		log.Errorw("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msg})
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	return strconv.Atoi(raw)
}
