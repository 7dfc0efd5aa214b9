package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"txprop/internal/core/apperror"
	"txprop/internal/domain/member"
	"txprop/internal/infrastructure/http/v1/dto"
)

// Layout names accepted by the join endpoint.
const (
	LayoutRepositories   = "repositories"
	LayoutService        = "service"
	LayoutAll            = "all"
	LayoutLogRequiresNew = "log_requires_new"
)

// MemberHandler handles member endpoints. It holds one service per layout.
type MemberHandler struct {
	*BaseHandler
	services map[string]*member.Service
}

// NewMemberHandler creates a new member handler. services is keyed by
// layout name and must contain LayoutLogRequiresNew.
func NewMemberHandler(base *BaseHandler, services map[string]*member.Service) *MemberHandler {
	if _, ok := services[LayoutLogRequiresNew]; !ok {
		panic(fmt.Sprintf("member handler: missing %q layout", LayoutLogRequiresNew))
	}
	return &MemberHandler{BaseHandler: base, services: services}
}

// Join registers a member.
// POST /api/v1/members/join
func (h *MemberHandler) Join(c *gin.Context) {
	var req dto.JoinRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = "v2"
	}
	if req.Layout == "" {
		req.Layout = LayoutLogRequiresNew
	}

	svc, ok := h.services[req.Layout]
	if !ok {
		h.Error(c, apperror.NewValidation("unknown layout").WithDetail("layout", req.Layout))
		return
	}

	ctx := c.Request.Context()
	join := svc.JoinV2
	if req.Mode == "v1" {
		join = svc.JoinV1
	}
	if err := join(ctx, req.Username); err != nil {
		h.Error(c, err)
		return
	}

	memberSaved, logSaved, err := svc.Lookup(ctx, req.Username)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.JoinResponse{
		Username:    req.Username,
		Mode:        req.Mode,
		Layout:      req.Layout,
		MemberSaved: memberSaved,
		LogSaved:    logSaved,
	})
}

// Get reports whether the member and its log entry exist.
// GET /api/v1/members/:username
func (h *MemberHandler) Get(c *gin.Context) {
	username := c.Param("username")

	memberFound, logFound, err := h.services[LayoutLogRequiresNew].Lookup(c.Request.Context(), username)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !memberFound && !logFound {
		h.Error(c, apperror.NewNotFound("member", username))
		return
	}

	h.OK(c, dto.MemberResponse{Username: username, Member: memberFound, Log: logFound})
}
