package preflight

import (
	"path/filepath"
	"strings"

	"kernlog/internal/backend"
	"kernlog/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Hint suggests a fix for failed checks.
	Hint string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDeviceAccess("kmsg device", cfg.Backend.KmsgPath),
		CheckBackend(backend.KindDevKmsg, cfg.Backend.KmsgPath),
		CheckBackend(backend.KindKlogctl, cfg.Backend.KmsgPath),
		CheckDmesgRestrict(DmesgRestrictPath),
	}

	if cfg.Backend.Clear {
		results = append(results, CheckDirectoryAccess("Lock directory", filepath.Dir(cfg.Lock.Path)))
	}
	if file := strings.TrimSpace(cfg.Output.File); file != "" && file != "-" {
		results = append(results, CheckDirectoryAccess("Output directory", filepath.Dir(file)))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
