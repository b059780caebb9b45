// Package joincode generates and checks the access codes of private groups.
package joincode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/mmynk/stepsquad/internal/models"
)

const (
	// Length is the number of characters in a join code.
	Length = 8

	// Alphabet holds the characters a code is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxAttempts = 10
)

var ErrExhausted = errors.New("could not generate a distinct join code")

// Generator draws join codes from a random source.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorFrom returns a Generator reading from r. Tests use it to make codes predictable.
func NewGeneratorFrom(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Generate returns a fresh code of Length characters from Alphabet.
func (g *Generator) Generate() (string, error) {
	// 252 is the largest multiple of len(Alphabet) below 256; higher bytes are
	// rejected so every character is equally likely.
	const limit = 256 - 256%len(Alphabet)

	code := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(code) < Length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("failed to read randomness: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == Length {
				break
			}
		}
	}
	return string(code), nil
}

// Regenerate returns a fresh code that differs from current.
func (g *Generator) Regenerate(current string) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		if code != current {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Validate reports whether supplied matches the group's code exactly.
// Public groups have nothing to match, so it is always false for them.
func Validate(group *models.Group, supplied string) bool {
	if group == nil || group.IsPublic || !group.HasJoinCode() || supplied == "" {
		return false
	}
	return *group.JoinCode == supplied
}

// Visible reports whether a viewer holding role may see a group's join code.
// Non-members pass the empty role.
func Visible(role models.Role) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// WellFormed reports whether code has the shape of a generated code.
func WellFormed(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
