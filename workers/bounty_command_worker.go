// workers/bounty_command_worker.go
package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"bug-bounty-service/models"
	"bug-bounty-service/services"

	"gorm.io/gorm"
)

// BountyCommandWorker scans tracked repositories for new issue comments
// and feeds them through the pledge pipeline. It is the poll-based
// fallback for trackers that cannot deliver the comment webhook.
type BountyCommandWorker struct {
	db       *gorm.DB
	bounty   *services.BountyService
	tracker  services.TrackerClient
	interval time.Duration
}

func NewBountyCommandWorker(db *gorm.DB, bounty *services.BountyService, tracker services.TrackerClient) *BountyCommandWorker {
	return &BountyCommandWorker{
		db:       db,
		bounty:   bounty,
		tracker:  tracker,
		interval: 1 * time.Minute,
	}
}

func (w *BountyCommandWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Bounty Command Worker (tracker comments → pledge pipeline)…")
	go w.run(ctx)
}

func (w *BountyCommandWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.scanAll(ctx); err != nil {
				log.Printf("❌ Bounty comment scan failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Bounty Command Worker stopped")
			return
		}
	}
}

func (w *BountyCommandWorker) scanAll(ctx context.Context) error {
	var repos []models.Repository
	if err := w.db.Find(&repos).Error; err != nil {
		return err
	}

	for i := range repos {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.scanRepository(ctx, &repos[i]); err != nil {
			log.Printf("❌ [SCAN] %s: %v", repos[i].FullName(), err)
		}
	}
	return nil
}

func (w *BountyCommandWorker) scanRepository(ctx context.Context, repo *models.Repository) error {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if repo.LastScannedAt != nil {
		since = *repo.LastScannedAt
	}

	comments, err := w.tracker.ListCommentsSince(ctx, repo.FullName(), since)
	if err != nil {
		return err
	}

	for _, comment := range freshComments(comments, repo.LastCommentID) {
		issue := services.IssueRef{Repo: repo.FullName(), Number: comment.IssueNumber}

		// The event log is the crash-safe record: a pledge that was
		// applied but not checkpointed must not be applied again.
		if w.alreadyProcessed(repo.ID, comment.ID) {
			log.Printf("➡️ [SCAN] %s: comment %d already processed, advancing checkpoint", issue, comment.ID)
		} else {
			err := w.bounty.ProcessPledge(ctx, repo.ID, comment.ID, issue, comment.Body, comment.Author)
			if err != nil && !errors.Is(err, services.ErrNoCommand) {
				// Checkpoint stays behind this comment so the next scan
				// retries it.
				return err
			}
		}

		if err := w.checkpoint(repo, comment); err != nil {
			return err
		}
	}
	return nil
}

// freshComments drops comments already covered by the checkpoint. The
// tracker's since-listing is inclusive, so the newest processed comment
// comes back on every scan; its id filters it out. Comments without a
// resolvable issue number are skipped too.
func freshComments(comments []services.RepoComment, lastCommentID int64) []services.RepoComment {
	var fresh []services.RepoComment
	for _, c := range comments {
		if c.IssueNumber <= 0 || c.ID <= lastCommentID {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh
}

func (w *BountyCommandWorker) alreadyProcessed(repositoryID string, commentID int64) bool {
	var count int64
	w.db.Model(&models.BountyEvent{}).
		Where("repository_id = ? AND comment_id = ?", repositoryID, commentID).
		Count(&count)
	return count > 0
}

// checkpoint persists the per-repo scan position after every comment so
// a crash mid-scan reprocesses at most the comment in flight, and that
// one is caught by the event-log check.
func (w *BountyCommandWorker) checkpoint(repo *models.Repository, comment services.RepoComment) error {
	repo.LastCommentID = comment.ID
	if repo.LastScannedAt == nil || comment.CreatedAt.After(*repo.LastScannedAt) {
		createdAt := comment.CreatedAt
		repo.LastScannedAt = &createdAt
	}
	return w.db.Model(repo).Updates(map[string]interface{}{
		"last_comment_id": repo.LastCommentID,
		"last_scanned_at": repo.LastScannedAt,
	}).Error
}
