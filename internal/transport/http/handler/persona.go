package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aichorus/internal/app"
	"aichorus/internal/transport/http/response"
)

type PersonaHandler struct {
	personaService *app.PersonaService
}

type PersonaRequest struct {
	Name         string `json:"name" binding:"max=128"`
	Description  string `json:"description" binding:"max=512"`
	Personality  string `json:"personality"`
	BaseURL      string `json:"base_url" binding:"max=255"`
	APIKey       string `json:"api_key" binding:"max=255"`
	ModelName    string `json:"model_name" binding:"max=128"`
	BusinessRole string `json:"business_role" binding:"max=32"`
	ResponseRule string `json:"response_rule" binding:"max=255"`
}

func NewPersonaHandler(personaService *app.PersonaService) *PersonaHandler {
	return &PersonaHandler{personaService: personaService}
}

func (h *PersonaHandler) Create(c *gin.Context) {
	var req PersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	persona, err := h.personaService.Create(toPersonaInput(req))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrBadBusinessRole):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create persona failed")
		}
		return
	}
	response.OK(c, persona)
}

func (h *PersonaHandler) List(c *gin.Context) {
	personas, err := h.personaService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list personas failed")
		return
	}
	response.OK(c, personas)
}

func (h *PersonaHandler) Get(c *gin.Context) {
	persona, err := h.personaService.Get(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPersonaNotFound):
			response.Error(c, http.StatusNotFound, response.CodePersonaNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get persona failed")
		}
		return
	}
	response.OK(c, persona)
}

func (h *PersonaHandler) Update(c *gin.Context) {
	var req PersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	persona, err := h.personaService.Update(c.Param("id"), toPersonaInput(req))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrBadBusinessRole):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrPersonaNotFound):
			response.Error(c, http.StatusNotFound, response.CodePersonaNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update persona failed")
		}
		return
	}
	response.OK(c, persona)
}

func (h *PersonaHandler) Delete(c *gin.Context) {
	personaID := c.Param("id")
	if err := h.personaService.Delete(personaID); err != nil {
		switch {
		case errors.Is(err, app.ErrPersonaNotFound):
			response.Error(c, http.StatusNotFound, response.CodePersonaNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete persona failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_persona_id": personaID})
}

func toPersonaInput(req PersonaRequest) app.PersonaInput {
	return app.PersonaInput{
		Name:         req.Name,
		Description:  req.Description,
		Personality:  req.Personality,
		BaseURL:      req.BaseURL,
		APIKey:       req.APIKey,
		ModelName:    req.ModelName,
		BusinessRole: req.BusinessRole,
		ResponseRule: req.ResponseRule,
	}
}
