// services/bounty_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	labels   []string
	comments []TrackerComment

	nextCommentID int64
	failAddLabel  bool
	failRename    bool
	createdCount  int
	updatedCount  int
	renamedFromTo [2]string
}

func (f *fakeTracker) ListLabels(ctx context.Context, issue IssueRef) ([]string, error) {
	return append([]string(nil), f.labels...), nil
}

func (f *fakeTracker) AddLabel(ctx context.Context, issue IssueRef, name string) error {
	if f.failAddLabel {
		return errors.New("tracker unavailable")
	}
	f.labels = append(f.labels, name)
	return nil
}

func (f *fakeTracker) RenameLabel(ctx context.Context, issue IssueRef, oldName, newName string) error {
	if f.failRename {
		return errors.New("tracker unavailable")
	}
	for i, l := range f.labels {
		if l == oldName {
			f.labels[i] = newName
			f.renamedFromTo = [2]string{oldName, newName}
			return nil
		}
	}
	return fmt.Errorf("label %q not found", oldName)
}

func (f *fakeTracker) ListComments(ctx context.Context, issue IssueRef) ([]TrackerComment, error) {
	return append([]TrackerComment(nil), f.comments...), nil
}

func (f *fakeTracker) CreateComment(ctx context.Context, issue IssueRef, body string) (int64, error) {
	for _, c := range f.comments {
		if c.ID > f.nextCommentID {
			f.nextCommentID = c.ID
		}
	}
	f.nextCommentID++
	f.comments = append(f.comments, TrackerComment{ID: f.nextCommentID, Body: body})
	f.createdCount++
	return f.nextCommentID, nil
}

func (f *fakeTracker) UpdateComment(ctx context.Context, issue IssueRef, commentID int64, body string) error {
	for i := range f.comments {
		if f.comments[i].ID == commentID {
			f.comments[i].Body = body
			f.updatedCount++
			return nil
		}
	}
	return fmt.Errorf("comment %d not found", commentID)
}

func (f *fakeTracker) ListCommentsSince(ctx context.Context, repo string, since time.Time) ([]RepoComment, error) {
	return nil, nil
}

func newTestService(tracker TrackerClient) *BountyService {
	return &BountyService{Tracker: tracker, WebBase: "https://github.com"}
}

var testIssue = IssueRef{Repo: "OWASP-BLT/BLT", Number: 42}

func TestParseBountyCommand(t *testing.T) {
	tests := []struct {
		body   string
		amount int64
		ok     bool
	}{
		{"/bounty $50", 50, true},
		{"I'll add /bounty $25 to this one", 25, true},
		{"/bounty $10 and later /bounty $99", 10, true}, // first match wins
		{"/bounty $0", 0, false},
		{"/bounty $", 0, false},
		{"/bounty 50", 0, false},
		{"/bounty $-5", 0, false},
		{"bounty $50", 0, false},
		{"nothing to see here", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			amount, ok := ParseBountyCommand(tt.body)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestApplyBountyCreatesLabelWhenAbsent(t *testing.T) {
	tracker := &fakeTracker{}
	s := newTestService(tracker)

	total, err := s.ApplyBounty(context.Background(), testIssue, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), total)
	assert.Equal(t, []string{"$50"}, tracker.labels)
}

func TestApplyBountyAddsToExistingLabel(t *testing.T) {
	tracker := &fakeTracker{labels: []string{"bug", "$50"}}
	s := newTestService(tracker)

	total, err := s.ApplyBounty(context.Background(), testIssue, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(75), total)
	assert.Equal(t, [2]string{"$50", "$75"}, tracker.renamedFromTo)
	assert.Contains(t, tracker.labels, "$75")
	assert.NotContains(t, tracker.labels, "$50")
}

func TestApplyBountyFirstLabelWinsOnDuplicates(t *testing.T) {
	tracker := &fakeTracker{labels: []string{"$30", "$10"}}
	s := newTestService(tracker)

	total, err := s.ApplyBounty(context.Background(), testIssue, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(35), total)
	assert.Equal(t, [2]string{"$30", "$35"}, tracker.renamedFromTo)
	assert.Contains(t, tracker.labels, "$10", "extra labels are left alone")
}

func TestApplyBountyReturnsAmountOnCreateFailure(t *testing.T) {
	tracker := &fakeTracker{failAddLabel: true}
	s := newTestService(tracker)

	total, err := s.ApplyBounty(context.Background(), testIssue, 50)
	assert.ErrorIs(t, err, ErrLabelUpdate)
	assert.Equal(t, int64(50), total)
	assert.Empty(t, tracker.labels)
}

func TestApplyBountyReturnsTotalOnRenameFailure(t *testing.T) {
	tracker := &fakeTracker{labels: []string{"$50"}, failRename: true}
	s := newTestService(tracker)

	total, err := s.ApplyBounty(context.Background(), testIssue, 25)
	assert.ErrorIs(t, err, ErrLabelUpdate)
	assert.Equal(t, int64(75), total, "caller-computed total survives the side-effect failure")
}

func TestSyncSummaryIsIdempotent(t *testing.T) {
	tracker := &fakeTracker{
		comments: []TrackerComment{{ID: 1, Body: "unrelated discussion"}},
	}
	s := newTestService(tracker)

	require.NoError(t, s.SyncSummary(context.Background(), testIssue, 50, "alice", 1))
	assert.Equal(t, 1, tracker.createdCount)
	assert.Len(t, tracker.comments, 2)

	require.NoError(t, s.SyncSummary(context.Background(), testIssue, 75, "alice", 2))
	assert.Equal(t, 1, tracker.createdCount, "second sync edits, never duplicates")
	assert.Equal(t, 1, tracker.updatedCount)
	assert.Len(t, tracker.comments, 2)

	var summaries int
	for _, c := range tracker.comments {
		if strings.Contains(c.Body, SummaryMarker) {
			summaries++
			assert.Contains(t, c.Body, "$75")
			assert.Contains(t, c.Body, "alice")
			assert.Contains(t, c.Body, "2 bounties")
		}
	}
	assert.Equal(t, 1, summaries)
}

// Pledge scenario: a fresh issue gets "/bounty $50" from alice, then
// "/bounty $25". Label and summary comment must track $50 → $75 with no
// duplicate comment.
func TestPledgeScenarioEndToEnd(t *testing.T) {
	tracker := &fakeTracker{}
	s := newTestService(tracker)
	ctx := context.Background()

	amount, ok := ParseBountyCommand("/bounty $50 for whoever fixes this")
	require.True(t, ok)
	total, err := s.ApplyBounty(ctx, testIssue, amount)
	require.NoError(t, err)
	require.NoError(t, s.SyncSummary(ctx, testIssue, total, "alice", 1))

	assert.Equal(t, []string{"$50"}, tracker.labels)
	require.Len(t, tracker.comments, 1)
	assert.Contains(t, tracker.comments[0].Body, "$50")
	assert.Contains(t, tracker.comments[0].Body, "alice")
	assert.Contains(t, tracker.comments[0].Body, "1 bounty")

	amount, ok = ParseBountyCommand("/bounty $25")
	require.True(t, ok)
	total, err = s.ApplyBounty(ctx, testIssue, amount)
	require.NoError(t, err)
	require.NoError(t, s.SyncSummary(ctx, testIssue, total, "alice", 2))

	assert.Equal(t, []string{"$75"}, tracker.labels)
	require.Len(t, tracker.comments, 1, "summary comment is rewritten, not duplicated")
	assert.Contains(t, tracker.comments[0].Body, "$75")
	assert.Contains(t, tracker.comments[0].Body, "2 bounties")
}

func TestSyncSummaryProceedsAfterLabelFailure(t *testing.T) {
	tracker := &fakeTracker{labels: []string{"$50"}, failRename: true}
	s := newTestService(tracker)
	ctx := context.Background()

	total, err := s.ApplyBounty(ctx, testIssue, 25)
	require.ErrorIs(t, err, ErrLabelUpdate)

	require.NoError(t, s.SyncSummary(ctx, testIssue, total, "bob", 3))
	require.Len(t, tracker.comments, 1)
	assert.Contains(t, tracker.comments[0].Body, "$75", "comment reflects the caller-computed total")
	assert.Contains(t, tracker.labels, "$50", "label stays stale after the failed rename")
}
