// Package models defines the core domain models for stepsquad.
//
// # Groups and memberships
//
//   - Group: a step competition with a reporting period (daily, weekly, monthly)
//   - Membership: a user's role inside one group (owner, admin, member)
//   - User: a registered user as seen by the group subsystem (id + display name)
//
// # Leaderboards
//
//   - StepEntry: one user's step count for one calendar date
//   - StepTotal: a user's aggregated steps over a DateRange
//   - LeaderboardEntry: a ranked StepTotal
//
// # Design Principles
//
//  1. Relationships use ID strings, never pointers between models.
//  2. Derived values (Group.MemberCount) are filled in by storage and never computed here.
//  3. A group's visibility and its join code move together: public groups have no code.
package models
