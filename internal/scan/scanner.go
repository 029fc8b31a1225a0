// Package scan finds roster entries that have no matching submission in a
// directory.
package scan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/nhle/hsck/internal/model"
)

// DefaultDir is scanned when no directory is given.
const DefaultDir = "."

// ScanError reports that the submission directory could not be read.
type ScanError struct {
	Dir string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("reading submission directory %s: %v", e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsScanError reports whether err (or any error in its chain) is a
// ScanError.
func IsScanError(err error) bool {
	var scanErr *ScanError
	return errors.As(err, &scanErr)
}

// Scanner lists submission directories on a filesystem.
type Scanner struct {
	fs afero.Fs
}

// New returns a Scanner reading from fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Scanner{fs: fs}
}

// FindMissing returns the students in roster that have no entry in dir
// whose name contains the student's name. Only the immediate entries of
// dir are considered, files and subdirectories alike. The result keeps
// roster order.
func (s *Scanner) FindMissing(roster []model.Student, dir string) ([]model.Student, error) {
	names, err := s.List(dir)
	if err != nil {
		return nil, err
	}
	return Missing(roster, names), nil
}

// List returns the names of the entries directly under dir.
func (s *Scanner) List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, &ScanError{Dir: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Missing returns the students for whom Submitted is false, in roster
// order.
func Missing(roster []model.Student, names []string) []model.Student {
	missing := make([]model.Student, 0)
	for _, stu := range roster {
		if !Submitted(stu, names) {
			missing = append(missing, stu)
		}
	}
	return missing
}

// Submitted reports whether any name contains the student's name as a
// contiguous, case-sensitive substring.
func Submitted(stu model.Student, names []string) bool {
	for _, name := range names {
		if strings.Contains(name, stu.Name) {
			return true
		}
	}
	return false
}
