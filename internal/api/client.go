package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// GroupServiceClient calls the group service over Connect.
type GroupServiceClient struct {
	createGroup        *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup           *connect.Client[GetGroupRequest, GetGroupResponse]
	listMyGroups       *connect.Client[ListMyGroupsRequest, ListMyGroupsResponse]
	updateGroup        *connect.Client[UpdateGroupRequest, UpdateGroupResponse]
	deleteGroup        *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	joinGroup          *connect.Client[JoinGroupRequest, JoinGroupResponse]
	leaveGroup         *connect.Client[LeaveGroupRequest, LeaveGroupResponse]
	inviteMember       *connect.Client[InviteMemberRequest, InviteMemberResponse]
	removeMember       *connect.Client[RemoveMemberRequest, RemoveMemberResponse]
	setMemberRole      *connect.Client[SetMemberRoleRequest, SetMemberRoleResponse]
	getMembers         *connect.Client[GetMembersRequest, GetMembersResponse]
	getLeaderboard     *connect.Client[GetLeaderboardRequest, GetLeaderboardResponse]
	regenerateJoinCode *connect.Client[RegenerateJoinCodeRequest, RegenerateJoinCodeResponse]
	searchPublicGroups *connect.Client[SearchPublicGroupsRequest, SearchPublicGroupsResponse]
}

// NewGroupServiceClient constructs a client for the service at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append(opts, connect.WithCodec(Codec{}))
	return &GroupServiceClient{
		createGroup:        connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+CreateGroupProcedure, opts...),
		getGroup:           connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GetGroupProcedure, opts...),
		listMyGroups:       connect.NewClient[ListMyGroupsRequest, ListMyGroupsResponse](httpClient, baseURL+ListMyGroupsProcedure, opts...),
		updateGroup:        connect.NewClient[UpdateGroupRequest, UpdateGroupResponse](httpClient, baseURL+UpdateGroupProcedure, opts...),
		deleteGroup:        connect.NewClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL+DeleteGroupProcedure, opts...),
		joinGroup:          connect.NewClient[JoinGroupRequest, JoinGroupResponse](httpClient, baseURL+JoinGroupProcedure, opts...),
		leaveGroup:         connect.NewClient[LeaveGroupRequest, LeaveGroupResponse](httpClient, baseURL+LeaveGroupProcedure, opts...),
		inviteMember:       connect.NewClient[InviteMemberRequest, InviteMemberResponse](httpClient, baseURL+InviteMemberProcedure, opts...),
		removeMember:       connect.NewClient[RemoveMemberRequest, RemoveMemberResponse](httpClient, baseURL+RemoveMemberProcedure, opts...),
		setMemberRole:      connect.NewClient[SetMemberRoleRequest, SetMemberRoleResponse](httpClient, baseURL+SetMemberRoleProcedure, opts...),
		getMembers:         connect.NewClient[GetMembersRequest, GetMembersResponse](httpClient, baseURL+GetMembersProcedure, opts...),
		getLeaderboard:     connect.NewClient[GetLeaderboardRequest, GetLeaderboardResponse](httpClient, baseURL+GetLeaderboardProcedure, opts...),
		regenerateJoinCode: connect.NewClient[RegenerateJoinCodeRequest, RegenerateJoinCodeResponse](httpClient, baseURL+RegenerateJoinCodeProcedure, opts...),
		searchPublicGroups: connect.NewClient[SearchPublicGroupsRequest, SearchPublicGroupsResponse](httpClient, baseURL+SearchPublicGroupsProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListMyGroups(ctx context.Context, req *connect.Request[ListMyGroupsRequest]) (*connect.Response[ListMyGroupsResponse], error) {
	return c.listMyGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) LeaveGroup(ctx context.Context, req *connect.Request[LeaveGroupRequest]) (*connect.Response[LeaveGroupResponse], error) {
	return c.leaveGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) InviteMember(ctx context.Context, req *connect.Request[InviteMemberRequest]) (*connect.Response[InviteMemberResponse], error) {
	return c.inviteMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SetMemberRole(ctx context.Context, req *connect.Request[SetMemberRoleRequest]) (*connect.Response[SetMemberRoleResponse], error) {
	return c.setMemberRole.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetMembers(ctx context.Context, req *connect.Request[GetMembersRequest]) (*connect.Response[GetMembersResponse], error) {
	return c.getMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetLeaderboard(ctx context.Context, req *connect.Request[GetLeaderboardRequest]) (*connect.Response[GetLeaderboardResponse], error) {
	return c.getLeaderboard.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RegenerateJoinCode(ctx context.Context, req *connect.Request[RegenerateJoinCodeRequest]) (*connect.Response[RegenerateJoinCodeResponse], error) {
	return c.regenerateJoinCode.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SearchPublicGroups(ctx context.Context, req *connect.Request[SearchPublicGroupsRequest]) (*connect.Response[SearchPublicGroupsResponse], error) {
	return c.searchPublicGroups.CallUnary(ctx, req)
}
