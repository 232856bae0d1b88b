// Package files provides idempotent file and directory helpers for a
// hostkit.Session: content-checked uploads, ownership, directory creation,
// rsync mirroring, scoped temporary files, change watches and cron drop-ins.
//
// Helpers report whether they changed anything, so callers can chain
// restarts or reloads on the result.
package files
