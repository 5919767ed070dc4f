// internal/syncer/classify_test.go
package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"showcase-sync/internal/model"
)

func TestShouldImport(t *testing.T) {
	tests := []struct {
		name   string
		repo   model.RemoteRepository
		policy Policy
		want   bool
	}{
		{"plain repo", model.RemoteRepository{}, Policy{SkipForks: true, SkipArchived: true}, true},
		{"fork skipped", model.RemoteRepository{Fork: true}, Policy{SkipForks: true}, false},
		{"fork kept when flag off", model.RemoteRepository{Fork: true}, Policy{}, true},
		{"archived skipped", model.RemoteRepository{Archived: true}, Policy{SkipArchived: true}, false},
		{"archived kept when flag off", model.RemoteRepository{Archived: true}, Policy{}, true},
		{"archived fork needs only one flag", model.RemoteRepository{Fork: true, Archived: true}, Policy{SkipArchived: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldImport(tt.repo, tt.policy))
		})
	}
}
