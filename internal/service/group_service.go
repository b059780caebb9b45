package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/stepsquad/internal/apperr"
	"github.com/mmynk/stepsquad/internal/joincode"
	"github.com/mmynk/stepsquad/internal/lock"
	"github.com/mmynk/stepsquad/internal/metrics"
	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/rbac"
	"github.com/mmynk/stepsquad/internal/storage"
)

const (
	minNameLength        = 2
	maxNameLength        = 50
	maxDescriptionLength = 500
	maxSearchLimit       = 100

	// maxCodeAttempts bounds retries when a generated join code is already taken.
	maxCodeAttempts = 5
)

// GroupService enforces group membership rules and computes leaderboards.
// All state lives in the store; mutations of one group are serialized by the locker.
type GroupService struct {
	store   storage.Store
	users   storage.UserDirectory
	locker  lock.Locker
	codes   *joincode.Generator
	metrics *metrics.Metrics
	now     func() time.Time
	loc     *time.Location
	logger  *slog.Logger
}

// Option configures a GroupService.
type Option func(*GroupService)

// WithLocker replaces the default in-process locker.
func WithLocker(l lock.Locker) Option {
	return func(s *GroupService) { s.locker = l }
}

// WithClock sets the source of "now" used for leaderboard windows.
func WithClock(now func() time.Time) Option {
	return func(s *GroupService) { s.now = now }
}

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *GroupService) { s.loc = loc }
}

// WithCodeGenerator replaces the crypto/rand join code generator.
func WithCodeGenerator(g *joincode.Generator) Option {
	return func(s *GroupService) { s.codes = g }
}

// WithMetrics records group events and lock waits.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GroupService) { s.metrics = m }
}

// NewGroupService creates a GroupService over store and users.
func NewGroupService(store storage.Store, users storage.UserDirectory, logger *slog.Logger, opts ...Option) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &GroupService{
		store:  store,
		users:  users,
		locker: lock.NewKeyedMutex(),
		codes:  joincode.NewGenerator(),
		now:    time.Now,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroup creates a group owned by userID. Private groups get a join code.
func (s *GroupService) CreateGroup(ctx context.Context, userID string, in CreateGroupInput) (*GroupView, error) {
	if err := requireID(userID, "User ID"); err != nil {
		return nil, err
	}
	name, description, err := validateGroupFields(in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	period := in.PeriodType
	if period == "" {
		period = models.PeriodWeekly
	}
	if _, err := models.ParsePeriodType(string(period)); err != nil {
		return nil, apperr.Validation("Period type must be daily, weekly or monthly.")
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		CreatedByID: userID,
		IsPublic:    in.IsPublic,
		PeriodType:  period,
	}
	owner := &models.Membership{UserID: userID, Role: models.RoleOwner}

	create := func() error { return s.store.CreateGroup(ctx, group, owner) }
	if group.IsPublic {
		err = create()
	} else {
		err = s.withFreshJoinCode(group, "", create)
	}
	if err != nil {
		s.logger.Error("CreateGroup failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.logger.Info("Group created", "group_id", group.ID, "user_id", userID, "is_public", group.IsPublic)
	s.metrics.GroupEvent(metrics.EventCreated)
	return newGroupView(group, models.RoleOwner), nil
}

// GetGroup returns a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (*GroupView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	member, err := s.requireMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(member.Role, rbac.ActionView); err != nil {
		return nil, err
	}

	return newGroupView(group, member.Role), nil
}

// GetUserGroups lists every group the caller belongs to with the caller's role.
func (s *GroupService) GetUserGroups(ctx context.Context, userID string) ([]*GroupView, error) {
	if err := requireID(userID, "User ID"); err != nil {
		return nil, err
	}

	userGroups, err := s.store.ListUserGroups(ctx, userID)
	if err != nil {
		s.logger.Error("GetUserGroups failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}

	views := make([]*GroupView, len(userGroups))
	for i, ug := range userGroups {
		views[i] = newGroupView(ug.Group, ug.Role)
	}
	return views, nil
}

// UpdateGroup replaces name, description and visibility. Making a group
// private issues a join code; making it public drops the code.
func (s *GroupService) UpdateGroup(ctx context.Context, userID, groupID string, in UpdateGroupInput) (*GroupView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}
	name, description, err := validateGroupFields(in.Name, in.Description)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, member, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}

	wasPublic := group.IsPublic
	group.Name = name
	group.Description = description
	group.IsPublic = in.IsPublic

	update := func() error { return s.store.UpdateGroup(ctx, group) }
	switch {
	case !wasPublic && in.IsPublic:
		group.JoinCode = nil
		err = update()
	case wasPublic && !in.IsPublic:
		err = s.withFreshJoinCode(group, "", update)
	default:
		err = update()
	}
	if err != nil {
		return nil, s.storageFailure("update group", groupID, err)
	}

	s.logger.Info("Group updated", "group_id", groupID, "user_id", userID, "is_public", group.IsPublic)
	s.metrics.GroupEvent(metrics.EventUpdated)
	return newGroupView(group, member.Role), nil
}

// DeleteGroup removes a group and all of its memberships. Owner only.
func (s *GroupService) DeleteGroup(ctx context.Context, userID, groupID string) error {
	if err := requireIDs(userID, groupID); err != nil {
		return err
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, _, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionDelete); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return s.storageFailure("delete group", groupID, err)
	}

	s.logger.Info("Group deleted", "group_id", groupID, "user_id", userID)
	s.metrics.GroupEvent(metrics.EventDeleted)
	return nil
}

// RegenerateJoinCode replaces the join code of a private group with a different one.
func (s *GroupService) RegenerateJoinCode(ctx context.Context, userID, groupID string) (*GroupView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, member, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionRegenerateCode)
	if err != nil {
		return nil, err
	}
	if group.IsPublic {
		return nil, apperr.Conflict("Public groups do not have join codes.")
	}

	previous := ""
	if group.JoinCode != nil {
		previous = *group.JoinCode
	}
	err = s.withFreshJoinCode(group, previous, func() error { return s.store.UpdateGroup(ctx, group) })
	if err != nil {
		return nil, s.storageFailure("regenerate join code", groupID, err)
	}

	s.logger.Info("Join code regenerated", "group_id", groupID, "user_id", userID)
	s.metrics.GroupEvent(metrics.EventCodeRegenerated)
	return newGroupView(group, member.Role), nil
}

// SearchPublicGroups finds public groups matching query. Results never carry join codes.
func (s *GroupService) SearchPublicGroups(ctx context.Context, query string, limit int) ([]*GroupView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Search query is required.")
	}
	if limit < 1 || limit > maxSearchLimit {
		return nil, apperr.Validation("Limit must be between 1 and %d.", maxSearchLimit)
	}

	groups, err := s.store.SearchPublicGroups(ctx, query, limit)
	if err != nil {
		s.logger.Error("SearchPublicGroups failed", "query", query, "error", err)
		return nil, fmt.Errorf("failed to search groups: %w", err)
	}

	views := make([]*GroupView, len(groups))
	for i, g := range groups {
		views[i] = newGroupView(g, "")
	}
	return views, nil
}

// lockGroup acquires the group's lock, recording the wait.
func (s *GroupService) lockGroup(ctx context.Context, groupID string) (func(), error) {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, lock.GroupKey(groupID))
	if err != nil {
		s.logger.Warn("Group lock not acquired", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to lock group %s: %w", groupID, err)
	}
	s.metrics.ObserveLockWait(time.Since(start))
	return unlock, nil
}

// loadGroup fetches a group, mapping a missing one to a NotFound error.
func (s *GroupService) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Group not found.")
	}
	if err != nil {
		s.logger.Error("Failed to load group", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return group, nil
}

// findMembership returns the membership or nil when userID is not a member.
func (s *GroupService) findMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load membership", "group_id", groupID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return m, nil
}

// requireMembership is findMembership with non-members rejected.
func (s *GroupService) requireMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := s.findMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Forbidden("You are not a member of this group.")
	}
	return m, nil
}

// loadAuthorized loads the group and the caller's membership and checks action.
func (s *GroupService) loadAuthorized(ctx context.Context, groupID, userID string, action rbac.Action) (*models.Group, *models.Membership, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.requireMembership(ctx, groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := rbac.Authorize(member.Role, action); err != nil {
		return nil, nil, err
	}
	return group, member, nil
}

// withFreshJoinCode assigns a new code different from previous and runs
// write, drawing another code whenever the store reports it taken.
func (s *GroupService) withFreshJoinCode(group *models.Group, previous string, write func() error) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Regenerate(previous)
		if err != nil {
			return fmt.Errorf("failed to generate join code: %w", err)
		}
		group.JoinCode = &code

		err = write()
		if !errors.Is(err, storage.ErrJoinCodeTaken) {
			return err
		}
		s.logger.Warn("Join code already in use, retrying", "group_id", group.ID, "attempt", attempt)
	}
	return fmt.Errorf("no unused join code after %d attempts: %w", maxCodeAttempts, storage.ErrJoinCodeTaken)
}

// storageFailure translates a write error. A group that vanished under us is NotFound.
func (s *GroupService) storageFailure(action, groupID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("Group not found.")
	}
	s.logger.Error("Failed to "+action, "group_id", groupID, "error", err)
	return fmt.Errorf("failed to %s: %w", action, err)
}

func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation("%s is required.", what)
	}
	return nil
}

func requireIDs(userID, groupID string) error {
	if err := requireID(userID, "User ID"); err != nil {
		return err
	}
	return requireID(groupID, "Group ID")
}

// validateGroupFields trims and length-checks name and description.
func validateGroupFields(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return "", "", apperr.Validation("Name must be between %d and %d characters.", minNameLength, maxNameLength)
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", "", apperr.Validation("Description must be at most %d characters.", maxDescriptionLength)
	}
	return name, description, nil
}
