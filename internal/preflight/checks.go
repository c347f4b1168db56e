package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"kernlog/internal/backend"
	"kernlog/internal/kmsg"
)

// DmesgRestrictPath is the sysctl gating unprivileged kernel log reads.
const DmesgRestrictPath = "/proc/sys/kernel/dmesg_restrict"

const privilegeHint = "run as root, grant CAP_SYSLOG, or set kernel.dmesg_restrict=0"

// openSource is replaced in tests.
var openSource = backend.Open

// CheckBackend opens and immediately closes the given backend without
// consuming records.
func CheckBackend(kind backend.Kind, kmsgPath string) Result {
	name := "Backend " + kind.String()
	src, err := openSource(backend.Options{Kind: kind, NonBlocking: true, KmsgPath: kmsgPath})
	if err != nil {
		return Result{Name: name, Detail: summarizeOpenError(err), Hint: HintFor(err)}
	}
	defer src.Close()
	return Result{Name: name, Passed: true, Detail: "available"}
}

// HintFor returns the operator hint for a backend error, or "".
func HintFor(err error) string {
	switch {
	case errors.Is(err, kmsg.ErrPermission):
		return privilegeHint
	case errors.Is(err, kmsg.ErrUnsupported):
		return "kernel or container does not expose this interface; try the other backend"
	default:
		return ""
	}
}

func summarizeOpenError(err error) string {
	switch {
	case errors.Is(err, kmsg.ErrPermission):
		return "permission denied"
	case errors.Is(err, kmsg.ErrUnsupported):
		return "unsupported"
	default:
		return err.Error()
	}
}

// CheckDeviceAccess verifies that path exists, is a character device or a
// regular file, and is readable by the current user.
func CheckDeviceAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path), Hint: "is /dev mounted inside this container?"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	mode := info.Mode()
	if mode&os.ModeCharDevice == 0 && !mode.IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err), Hint: privilegeHint}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckDirectoryAccess verifies that dir, or its closest existing ancestor
// when dir does not exist yet, is a writable directory.
func CheckDirectoryAccess(name, dir string) Result {
	target := dir
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", target)}
			}
			break
		}
		if !os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", target, err)}
		}
		parent := filepath.Dir(target)
		if parent == target {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", dir)}
		}
		target = parent
	}
	if err := unix.Access(target, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", target, err)}
	}
	if target != dir {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", dir)}
}

// CheckDmesgRestrict reports the kernel.dmesg_restrict sysctl read from path.
func CheckDmesgRestrict(path string) Result {
	const name = "dmesg_restrict"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: "not present"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("read %s: %v", path, err)}
	}
	switch value := strings.TrimSpace(string(data)); value {
	case "0":
		return Result{Name: name, Passed: true, Detail: "0 (unprivileged reads allowed)"}
	case "1":
		if os.Geteuid() == 0 {
			return Result{Name: name, Passed: true, Detail: "1 (restricted, running as root)"}
		}
		return Result{Name: name, Detail: "1 (restricted to CAP_SYSLOG)", Hint: privilegeHint}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected value %q", value)}
	}
}
