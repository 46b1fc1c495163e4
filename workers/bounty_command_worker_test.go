// workers/bounty_command_worker_test.go
package workers

import (
	"testing"
	"time"

	"bug-bounty-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshCommentsSkipsCheckpointedComment(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	comments := []services.RepoComment{
		{ID: 10, IssueNumber: 1, Body: "/bounty $50", CreatedAt: base},
		{ID: 11, IssueNumber: 2, Body: "/bounty $25", CreatedAt: base.Add(time.Minute)},
	}

	// The since-listing hands back the last processed comment (id 10);
	// it must not reach the pledge pipeline a second time.
	fresh := freshComments(comments, 10)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(11), fresh[0].ID)

	// Fresh checkpoint: everything goes through.
	assert.Len(t, freshComments(comments, 0), 2)

	// Fully caught up: nothing goes through.
	assert.Empty(t, freshComments(comments, 11))
}

func TestFreshCommentsSkipsUnresolvableIssues(t *testing.T) {
	comments := []services.RepoComment{
		{ID: 5, IssueNumber: 0, Body: "/bounty $50"},
		{ID: 6, IssueNumber: 3, Body: "/bounty $50"},
	}

	fresh := freshComments(comments, 0)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(6), fresh[0].ID)
}
