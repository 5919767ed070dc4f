// internal/syncer/classify.go
package syncer

import "showcase-sync/internal/model"

// Policy holds the inclusion flags, hoisted out of the sync loop since they
// cannot change mid-run.
type Policy struct {
	SkipForks    bool
	SkipArchived bool
}

// ShouldImport decides whether a repository qualifies for import. Pure
// function, no I/O: a repo is rejected only when a skip flag is set and the
// matching attribute is true.
func ShouldImport(repo model.RemoteRepository, policy Policy) bool {
	if policy.SkipForks && repo.Fork {
		return false
	}
	if policy.SkipArchived && repo.Archived {
		return false
	}
	return true
}
