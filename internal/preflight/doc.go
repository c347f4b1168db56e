// Package preflight probes whether the kernel log can be read on this host
// and explains why not when it cannot.
//
// These checks run in two contexts:
//   - The CLI "kernlog backends" command runs RunAll and renders the results.
//   - The CLI read path runs CheckBackend after a permission failure so the
//     error message can point at the missing privilege.
//
// Checks never read or clear log records; klogctl is only asked for its
// buffer size.
package preflight
