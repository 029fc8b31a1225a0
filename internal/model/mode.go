package model

import (
	"fmt"
	"strings"
)

// Mode is the run posture. Release mode enforces the production rules:
// non-empty credentials and a non-empty roster.
type Mode string

const (
	ModeDev     Mode = "dev"
	ModeRelease Mode = "release"
)

// Strict reports whether production-only checks apply.
func (m Mode) Strict() bool {
	return m == ModeRelease
}

// ParseMode parses a mode name, ignoring case. "prod" and "production"
// are accepted as aliases of release.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "debug", "development":
		return ModeDev, nil
	case "release", "prod", "production":
		return ModeRelease, nil
	default:
		return "", fmt.Errorf("unknown run mode %q (want dev or release)", s)
	}
}
