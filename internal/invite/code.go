// Package invite derives shareable partner invite codes from user ids and
// resolves redeemed codes back to a user without a persisted mapping table.
//
// A code is the first eight alphanumeric characters of the canonical UUID
// string, uppercased. The transform is lossy, so two users can share a code;
// Resolve reports that case as ErrAmbiguous instead of picking one.
package invite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CodeLength is the fixed length of every invite code.
const CodeLength = 8

var (
	ErrInvalidCode = errors.New("invite code must be 8 letters or digits")
	ErrNoMatch     = errors.New("invite code matches no user")
	ErrAmbiguous   = errors.New("invite code matches more than one user")
)

// Encode returns the invite code for userID. It is a pure function of the id.
func Encode(userID uuid.UUID) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for _, r := range userID.String() {
		if !isAlnum(r) {
			continue
		}
		b.WriteRune(toUpper(r))
		if b.Len() == CodeLength {
			break
		}
	}
	return b.String()
}

// Normalize turns user input into canonical code form. Separators and
// whitespace are dropped and letters uppercased.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case isAlnum(r):
			b.WriteRune(toUpper(r))
		case r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			return "", ErrInvalidCode
		}
	}
	if b.Len() != CodeLength {
		return "", ErrInvalidCode
	}
	return b.String(), nil
}

// Resolve finds the single candidate whose derived code equals code.
// userID extracts the identifier each candidate's code is derived from.
func Resolve[T any](code string, candidates []T, userID func(T) uuid.UUID) (T, error) {
	var zero T

	normalized, err := Normalize(code)
	if err != nil {
		return zero, err
	}

	var (
		match   T
		matches int
	)
	for _, c := range candidates {
		if Encode(userID(c)) != normalized {
			continue
		}
		if matches == 0 {
			match = c
		}
		matches++
	}

	switch matches {
	case 0:
		return zero, ErrNoMatch
	case 1:
		return match, nil
	default:
		return zero, fmt.Errorf("%w (%d candidates)", ErrAmbiguous, matches)
	}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
