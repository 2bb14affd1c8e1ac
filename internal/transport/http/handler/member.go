package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aichorus/internal/app"
	"aichorus/internal/transport/http/response"
)

type MemberHandler struct {
	memberService *app.MemberService
}

type AddMemberRequest struct {
	PersonaID string `json:"persona_id" binding:"required"`
}

type AddMembersRequest struct {
	PersonaIDs []string `json:"persona_ids" binding:"required,min=1"`
}

func NewMemberHandler(memberService *app.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

func (h *MemberHandler) Add(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.memberService.AddMember(sessionID, req.PersonaID); err != nil {
		h.writeMemberError(c, err, "add member failed")
		return
	}
	response.OK(c, gin.H{"session_id": sessionID, "persona_id": req.PersonaID})
}

func (h *MemberHandler) AddBatch(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	results, err := h.memberService.AddMembers(sessionID, req.PersonaIDs)
	if err != nil {
		h.writeMemberError(c, err, "add members failed")
		return
	}
	response.OK(c, gin.H{"results": results})
}

func (h *MemberHandler) Remove(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	personaID := c.Param("personaId")

	if err := h.memberService.RemoveMember(sessionID, personaID); err != nil {
		h.writeMemberError(c, err, "remove member failed")
		return
	}
	response.OK(c, gin.H{"session_id": sessionID, "persona_id": personaID})
}

func (h *MemberHandler) List(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	personas, err := h.memberService.ListMembers(sessionID)
	if err != nil {
		h.writeMemberError(c, err, "list members failed")
		return
	}
	response.OK(c, personas)
}

func (h *MemberHandler) writeMemberError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrPersonaNotFound):
		response.Error(c, http.StatusNotFound, response.CodePersonaNotFound, err.Error())
	case errors.Is(err, app.ErrAlreadyMember):
		response.Error(c, http.StatusConflict, response.CodeAlreadyMember, err.Error())
	case errors.Is(err, app.ErrNotAMember):
		response.Error(c, http.StatusConflict, response.CodeNotAMember, err.Error())
	case errors.Is(err, app.ErrCapExceeded):
		response.Error(c, http.StatusConflict, response.CodeCapExceeded, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
