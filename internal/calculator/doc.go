// Package calculator derives leaderboard windows and rankings.
// It performs no I/O: callers fetch step totals for the computed window and pass them to Rank.
package calculator
