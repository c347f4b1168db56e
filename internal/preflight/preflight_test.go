package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kernlog/internal/backend"
	"kernlog/internal/config"
	"kernlog/internal/kmsg"
)

type stubSource struct{ closed int }

func (s *stubSource) Read() ([][]byte, error) { return nil, kmsg.ErrWouldBlock }
func (s *stubSource) Format() kmsg.Format     { return kmsg.FormatKmsg }
func (s *stubSource) Blocking() bool          { return false }
func (s *stubSource) BootTime() time.Time     { return time.Time{} }
func (s *stubSource) Close() error            { s.closed++; return nil }

func withOpener(t *testing.T, fn func(backend.Options) (backend.Source, error)) {
	t.Helper()
	prev := openSource
	openSource = fn
	t.Cleanup(func() { openSource = prev })
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_WillBeCreated(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "a", "b"))
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected pass for creatable dir, got: %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDeviceAccess(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "kmsg")
	if err := os.WriteFile(fixture, []byte("6,1,1,-;hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDeviceAccess("kmsg", fixture); !r.Passed {
		t.Fatalf("expected readable fixture to pass: %+v", r)
	}
	missing := CheckDeviceAccess("kmsg", filepath.Join(t.TempDir(), "missing"))
	if missing.Passed || missing.Hint == "" {
		t.Fatalf("expected failure with hint for missing device: %+v", missing)
	}
	if r := CheckDeviceAccess("kmsg", t.TempDir()); r.Passed {
		t.Fatalf("directory should not pass as a device: %+v", r)
	}
}

func TestCheckBackend(t *testing.T) {
	src := &stubSource{}
	var seen backend.Options
	withOpener(t, func(opts backend.Options) (backend.Source, error) {
		seen = opts
		return src, nil
	})
	result := CheckBackend(backend.KindDevKmsg, "/dev/kmsg")
	if !result.Passed {
		t.Fatalf("expected pass: %+v", result)
	}
	if src.closed != 1 {
		t.Fatalf("probe source closed %d times, want 1", src.closed)
	}
	if seen.Kind != backend.KindDevKmsg || seen.Fallback || seen.Clear || !seen.NonBlocking {
		t.Fatalf("probe must not fall back, clear, or block: %+v", seen)
	}
}

func TestCheckBackendPermission(t *testing.T) {
	withOpener(t, func(backend.Options) (backend.Source, error) {
		return nil, kmsg.Wrap(kmsg.ErrPermission, "klogctl size", nil)
	})
	result := CheckBackend(backend.KindKlogctl, "")
	if result.Passed {
		t.Fatal("expected failure")
	}
	if result.Detail != "permission denied" || !strings.Contains(result.Hint, "CAP_SYSLOG") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHintFor(t *testing.T) {
	if HintFor(kmsg.Wrap(kmsg.ErrUnsupported, "open", nil)) == "" {
		t.Fatal("expected hint for unsupported backend")
	}
	if HintFor(kmsg.ErrFatal) != "" {
		t.Fatal("fatal errors carry no hint")
	}
}

func TestCheckDmesgRestrict(t *testing.T) {
	dir := t.TempDir()
	open := filepath.Join(dir, "open")
	if err := os.WriteFile(open, []byte("0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDmesgRestrict(open); !r.Passed {
		t.Fatalf("0 should pass: %+v", r)
	}
	if r := CheckDmesgRestrict(filepath.Join(dir, "absent")); !r.Passed {
		t.Fatalf("missing sysctl should pass: %+v", r)
	}

	restricted := filepath.Join(dir, "restricted")
	if err := os.WriteFile(restricted, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := CheckDmesgRestrict(restricted)
	if os.Geteuid() == 0 {
		if !r.Passed {
			t.Fatalf("root should pass: %+v", r)
		}
	} else if r.Passed || r.Hint == "" {
		t.Fatalf("restricted non-root should fail with hint: %+v", r)
	}
}

func TestRunAll(t *testing.T) {
	withOpener(t, func(backend.Options) (backend.Source, error) { return &stubSource{}, nil })
	cfg := config.Default()
	cfg.Backend.KmsgPath = filepath.Join(t.TempDir(), "kmsg")
	if err := os.WriteFile(cfg.Backend.KmsgPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Backend.Clear = true
	cfg.Lock.Path = filepath.Join(t.TempDir(), "locks", "clear.lock")
	cfg.Output.File = filepath.Join(t.TempDir(), "out.jsonl")

	results := RunAll(&cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := "kmsg device,Backend devkmsg,Backend klogctl,dmesg_restrict,Lock directory,Output directory"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("checks = %s, want %s", got, want)
	}
	if RunAll(nil) != nil {
		t.Fatal("nil config should produce no results")
	}
}

func TestPassed(t *testing.T) {
	if !Passed([]Result{{Passed: true}}) || Passed([]Result{{Passed: true}, {}}) {
		t.Fatal("Passed mismatch")
	}
}
