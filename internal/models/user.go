package models

// User is a registered user as far as groups are concerned.
// Accounts and credentials live in a separate identity subsystem.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// DisplayName is shown on member lists and leaderboards.
	DisplayName string

	// AvatarURL is optional.
	AvatarURL string
}
