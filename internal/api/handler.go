// Package api exposes the group service over Connect.
//
// Messages are plain Go structs carried by a JSON codec. Every procedure
// takes the caller from the context, where middleware.RequireAuth puts it.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/stepsquad/internal/middleware"
	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/service"
)

// ServiceName is the fully-qualified name of the group service.
const ServiceName = "stepsquad.v1.GroupService"

const (
	CreateGroupProcedure        = "/" + ServiceName + "/CreateGroup"
	GetGroupProcedure           = "/" + ServiceName + "/GetGroup"
	ListMyGroupsProcedure       = "/" + ServiceName + "/ListMyGroups"
	UpdateGroupProcedure        = "/" + ServiceName + "/UpdateGroup"
	DeleteGroupProcedure        = "/" + ServiceName + "/DeleteGroup"
	JoinGroupProcedure          = "/" + ServiceName + "/JoinGroup"
	LeaveGroupProcedure         = "/" + ServiceName + "/LeaveGroup"
	InviteMemberProcedure       = "/" + ServiceName + "/InviteMember"
	RemoveMemberProcedure       = "/" + ServiceName + "/RemoveMember"
	SetMemberRoleProcedure      = "/" + ServiceName + "/SetMemberRole"
	GetMembersProcedure         = "/" + ServiceName + "/GetMembers"
	GetLeaderboardProcedure     = "/" + ServiceName + "/GetLeaderboard"
	RegenerateJoinCodeProcedure = "/" + ServiceName + "/RegenerateJoinCode"
	SearchPublicGroupsProcedure = "/" + ServiceName + "/SearchPublicGroups"
)

// GroupServiceHandler adapts service.GroupService to Connect.
type GroupServiceHandler struct {
	svc    *service.GroupService
	logger *slog.Logger
}

// NewGroupServiceHandler builds an HTTP handler serving every group procedure.
// It returns the path prefix to mount it on.
func NewGroupServiceHandler(svc *service.GroupService, logger *slog.Logger, opts ...connect.HandlerOption) (string, http.Handler) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &GroupServiceHandler{svc: svc, logger: logger}
	opts = append(opts, connect.WithCodec(Codec{}))

	mux := http.NewServeMux()
	mux.Handle(CreateGroupProcedure, connect.NewUnaryHandler(CreateGroupProcedure, h.CreateGroup, opts...))
	mux.Handle(GetGroupProcedure, connect.NewUnaryHandler(GetGroupProcedure, h.GetGroup, opts...))
	mux.Handle(ListMyGroupsProcedure, connect.NewUnaryHandler(ListMyGroupsProcedure, h.ListMyGroups, opts...))
	mux.Handle(UpdateGroupProcedure, connect.NewUnaryHandler(UpdateGroupProcedure, h.UpdateGroup, opts...))
	mux.Handle(DeleteGroupProcedure, connect.NewUnaryHandler(DeleteGroupProcedure, h.DeleteGroup, opts...))
	mux.Handle(JoinGroupProcedure, connect.NewUnaryHandler(JoinGroupProcedure, h.JoinGroup, opts...))
	mux.Handle(LeaveGroupProcedure, connect.NewUnaryHandler(LeaveGroupProcedure, h.LeaveGroup, opts...))
	mux.Handle(InviteMemberProcedure, connect.NewUnaryHandler(InviteMemberProcedure, h.InviteMember, opts...))
	mux.Handle(RemoveMemberProcedure, connect.NewUnaryHandler(RemoveMemberProcedure, h.RemoveMember, opts...))
	mux.Handle(SetMemberRoleProcedure, connect.NewUnaryHandler(SetMemberRoleProcedure, h.SetMemberRole, opts...))
	mux.Handle(GetMembersProcedure, connect.NewUnaryHandler(GetMembersProcedure, h.GetMembers, opts...))
	mux.Handle(GetLeaderboardProcedure, connect.NewUnaryHandler(GetLeaderboardProcedure, h.GetLeaderboard, opts...))
	mux.Handle(RegenerateJoinCodeProcedure, connect.NewUnaryHandler(RegenerateJoinCodeProcedure, h.RegenerateJoinCode, opts...))
	mux.Handle(SearchPublicGroupsProcedure, connect.NewUnaryHandler(SearchPublicGroupsProcedure, h.SearchPublicGroups, opts...))

	return "/" + ServiceName + "/", mux
}

// CreateGroup creates a group owned by the caller.
func (h *GroupServiceHandler) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	h.logger.Debug("CreateGroup request received", "name", req.Msg.Name, "is_public", req.Msg.IsPublic)

	g, err := h.svc.CreateGroup(ctx, middleware.GetUserID(ctx), service.CreateGroupInput{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		IsPublic:    req.Msg.IsPublic,
		PeriodType:  models.PeriodType(req.Msg.PeriodType),
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(g)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (h *GroupServiceHandler) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	g, err := h.svc.GetGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetGroupResponse{Group: toGroup(g)}), nil
}

// ListMyGroups lists the caller's groups.
func (h *GroupServiceHandler) ListMyGroups(ctx context.Context, _ *connect.Request[ListMyGroupsRequest]) (*connect.Response[ListMyGroupsResponse], error) {
	groups, err := h.svc.GetUserGroups(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListMyGroupsResponse{Groups: toGroups(groups)}), nil
}

// UpdateGroup edits name, description and visibility.
func (h *GroupServiceHandler) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	g, err := h.svc.UpdateGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, service.UpdateGroupInput{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		IsPublic:    req.Msg.IsPublic,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&UpdateGroupResponse{Group: toGroup(g)}), nil
}

// DeleteGroup removes a group.
func (h *GroupServiceHandler) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	if err := h.svc.DeleteGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteGroupResponse{}), nil
}

// JoinGroup adds the caller to a group.
func (h *GroupServiceHandler) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[JoinGroupResponse], error) {
	g, err := h.svc.JoinGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, service.JoinGroupInput{JoinCode: req.Msg.JoinCode})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&JoinGroupResponse{Group: toGroup(g)}), nil
}

// LeaveGroup removes the caller from a group.
func (h *GroupServiceHandler) LeaveGroup(ctx context.Context, req *connect.Request[LeaveGroupRequest]) (*connect.Response[LeaveGroupResponse], error) {
	if err := h.svc.LeaveGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LeaveGroupResponse{}), nil
}

// InviteMember adds another user to a group.
func (h *GroupServiceHandler) InviteMember(ctx context.Context, req *connect.Request[InviteMemberRequest]) (*connect.Response[InviteMemberResponse], error) {
	m, err := h.svc.InviteMember(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, service.InviteMemberInput{TargetUserID: req.Msg.UserID})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&InviteMemberResponse{Member: toMember(m)}), nil
}

// RemoveMember removes another member from a group.
func (h *GroupServiceHandler) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	if err := h.svc.RemoveMember(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, req.Msg.UserID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RemoveMemberResponse{}), nil
}

// SetMemberRole promotes or demotes a member.
func (h *GroupServiceHandler) SetMemberRole(ctx context.Context, req *connect.Request[SetMemberRoleRequest]) (*connect.Response[SetMemberRoleResponse], error) {
	m, err := h.svc.SetMemberRole(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, req.Msg.UserID, models.Role(req.Msg.Role))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SetMemberRoleResponse{Member: toMember(m)}), nil
}

// GetMembers lists a group's members.
func (h *GroupServiceHandler) GetMembers(ctx context.Context, req *connect.Request[GetMembersRequest]) (*connect.Response[GetMembersResponse], error) {
	members, err := h.svc.GetMembers(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, service.MemberFilter{
		Role:  models.Role(req.Msg.Role),
		Query: req.Msg.Query,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*GroupMember, len(members))
	for i, m := range members {
		out[i] = toMember(m)
	}
	return connect.NewResponse(&GetMembersResponse{Members: out}), nil
}

// GetLeaderboard ranks a group's members for the current period.
func (h *GroupServiceHandler) GetLeaderboard(ctx context.Context, req *connect.Request[GetLeaderboardRequest]) (*connect.Response[GetLeaderboardResponse], error) {
	lb, err := h.svc.GetLeaderboard(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toLeaderboard(lb)), nil
}

// RegenerateJoinCode issues a new join code for a private group.
func (h *GroupServiceHandler) RegenerateJoinCode(ctx context.Context, req *connect.Request[RegenerateJoinCodeRequest]) (*connect.Response[RegenerateJoinCodeResponse], error) {
	g, err := h.svc.RegenerateJoinCode(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RegenerateJoinCodeResponse{Group: toGroup(g)}), nil
}

// SearchPublicGroups finds public groups by name or description.
func (h *GroupServiceHandler) SearchPublicGroups(ctx context.Context, req *connect.Request[SearchPublicGroupsRequest]) (*connect.Response[SearchPublicGroupsResponse], error) {
	groups, err := h.svc.SearchPublicGroups(ctx, req.Msg.Query, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SearchPublicGroupsResponse{Groups: toGroups(groups)}), nil
}
