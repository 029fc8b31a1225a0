package version

import (
	"runtime"

	"github.com/nhle/hsck/internal/model"
)

// Build information, injected via ldflags at build time:
//
//	go build -ldflags "-X github.com/nhle/hsck/internal/version.Version=v0.2.0 \
//	  -X github.com/nhle/hsck/internal/version.DefaultMode=release" ./cmd/hsck
var (
	// Version is the git tag or semantic version
	Version = "0.2.0-dev"
	// Commit is the git commit SHA
	Commit = "unknown"
	// BuildDate is the ISO 8601 build timestamp
	BuildDate = "unknown"
	// DefaultMode is the run mode used when none is given on the command
	// line or in HSCK_MODE. Release builds set it to "release".
	DefaultMode = string(model.ModeDev)
)

// Info holds complete build information.
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
	DefaultMode string `json:"default_mode"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:     Version,
		Commit:      Commit,
		BuildDate:   BuildDate,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		DefaultMode: DefaultMode,
	}
}

// Mode parses DefaultMode, falling back to dev when the injected value is
// not a known mode.
func Mode() model.Mode {
	m, err := model.ParseMode(DefaultMode)
	if err != nil {
		return model.ModeDev
	}
	return m
}
