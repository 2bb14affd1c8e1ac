package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aichorus/internal/app"
	"aichorus/internal/schedule"
	"aichorus/internal/transport/http/response"
)

type OrchestrateHandler struct {
	orchestrator  *app.OrchestratorService
	storyService  *app.StoryService
	defaultLength int
}

type GenerateReplyRequest struct {
	PersonaID string `json:"persona_id" binding:"required"`
}

func NewOrchestrateHandler(orchestrator *app.OrchestratorService, storyService *app.StoryService, defaultLength int) *OrchestrateHandler {
	if defaultLength <= 0 {
		defaultLength = 50
	}
	return &OrchestrateHandler{
		orchestrator:  orchestrator,
		storyService:  storyService,
		defaultLength: defaultLength,
	}
}

// TurnOrder plans the next speaking order for the session roster.
func (h *OrchestrateHandler) TurnOrder(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	length, err := strconv.Atoi(c.DefaultQuery("length", strconv.Itoa(h.defaultLength)))
	if err != nil || length < 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid length")
		return
	}

	order, err := h.orchestrator.ScheduleTurnOrder(sessionID, length)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, schedule.ErrEmptyRoster):
			response.Error(c, http.StatusBadRequest, response.CodeEmptyRoster, err.Error())
		case errors.Is(err, schedule.ErrNoRegulars):
			response.Error(c, http.StatusBadRequest, response.CodeNoRegulars, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "schedule turn order failed")
		}
		return
	}
	response.OK(c, order)
}

// GenerateReply produces the next AI turn for one persona.
func (h *OrchestrateHandler) GenerateReply(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req GenerateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply, err := h.orchestrator.Respond(c.Request.Context(), sessionID, req.PersonaID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrPersonaNotFound):
			response.Error(c, http.StatusNotFound, response.CodePersonaNotFound, err.Error())
		case errors.Is(err, app.ErrUpstreamCall):
			response.Error(c, http.StatusBadGateway, response.CodeUpstreamFailed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "generate reply failed")
		}
		return
	}
	response.OK(c, reply)
}

// ProcessStory runs the keyword-then-story pipeline over the session's user
// messages.
func (h *OrchestrateHandler) ProcessStory(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	result, err := h.storyService.ProcessSession(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoUserMessages), errors.Is(err, app.ErrStoryUnconfigured):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrPersonaNotFound):
			response.Error(c, http.StatusNotFound, response.CodePersonaNotFound, err.Error())
		case errors.Is(err, app.ErrUpstreamCall):
			response.Error(c, http.StatusBadGateway, response.CodeUpstreamFailed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process session failed")
		}
		return
	}
	response.OK(c, result)
}
