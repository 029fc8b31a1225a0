package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteConfigDir creates a temporary configuration directory holding the
// given documents (file name -> contents) and returns its path. The
// directory is removed when the test completes.
func WriteConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "cfg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating config dir: %v", err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

// SubmissionDir creates a temporary directory containing empty files with
// the given names and returns its path.
func SubmissionDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
	}
	return dir
}

// DefaultTOML is a base document with every section populated.
const DefaultTOML = `
[smtp_config]
server = "smtp.test.com"
port = 587
username = "test_user@test.com"
password = "test_password"
encryption = "tls"

[imap_config]
server = "imap.test.com"
port = 993
username = "test_user"
password = "test_password"
out_dir = "/test/out"

[stu_config]
list = []
`

// DevTOML overrides the SMTP server and provides a two-student roster.
const DevTOML = `
[smtp_config]
server = "smtp.dev.com"
port = 2525
encryption = "none"

[stu_config]
list = [
    { name = "测试学生1", email = "test1@example.com" },
    { name = "测试学生2", email = "test2@example.com" }
]
`

// ProdTOML overrides the SMTP server and the IMAP output directory.
const ProdTOML = `
[smtp_config]
server = "smtp.prod.com"
port = 465
encryption = "tls"

[imap_config]
out_dir = "/var/data/prod/out"
`
