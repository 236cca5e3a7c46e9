// Package repository implements MySQL persistence for users, the
// movie cache and the per-user movie relations. Sentinel errors
// live next to the repository that raises them; this file keeps
// the helpers shared by all of them.
package repository

import "strings"

// isDuplicate reports whether err is a MySQL duplicate-key error
// (error 1062). Used to turn constraint violations into sentinel
// errors instead of leaking driver messages upward.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
