// services/bounty_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bug-bounty-service/models"
	"bug-bounty-service/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryMarker is the fixed leading text of the single bounty summary
// comment per issue. Lookup keys on it, so it must stay stable across
// versions or duplicate comments will be created.
const SummaryMarker = "💰 A bounty has been added!"

// BountyLabelPrefix marks the label that encodes the issue's current
// total pledged amount, e.g. "$75". At most one is expected per issue.
const BountyLabelPrefix = "$"

var bountyCommandRe = regexp.MustCompile(`/bounty \$(\d+)`)

var (
	// ErrNoCommand: the text carried no pledge command. A legitimate
	// non-event, not a failure.
	ErrNoCommand = errors.New("no bounty command found")
	// ErrLabelUpdate: the tracker rejected the label create/rename.
	// Non-fatal; the rest of the pledge pipeline still runs.
	ErrLabelUpdate = errors.New("bounty label update failed")
	// ErrCommentSync: the summary comment could not be created/edited.
	ErrCommentSync = errors.New("summary comment sync failed")
)

type BountyService struct {
	DB      *gorm.DB
	Tracker TrackerClient
	Alerts  *utils.AlertClient

	// WebBase is the tracker's web origin for issue links in alerts.
	WebBase string
}

func NewBountyService(db *gorm.DB, tracker TrackerClient, alerts *utils.AlertClient) *BountyService {
	webBase := strings.TrimRight(getenvDefault("TRACKER_WEB_URL", "https://github.com"), "/")
	return &BountyService{DB: db, Tracker: tracker, Alerts: alerts, WebBase: webBase}
}

// ParseBountyCommand extracts the pledged amount from free text. The
// first `/bounty $N` match wins; N must be a positive integer.
func ParseBountyCommand(body string) (int64, bool) {
	m := bountyCommandRe.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// ApplyBounty adds amount to the issue's bounty label and returns the new
// total. The total is computed caller-side from the current label, so it
// is valid even when the tracker-side rename fails; in that case the
// returned error wraps ErrLabelUpdate and the caller proceeds best-effort.
func (s *BountyService) ApplyBounty(ctx context.Context, issue IssueRef, amount int64) (int64, error) {
	labels, err := s.Tracker.ListLabels(ctx, issue)
	if err != nil {
		// Cannot read the current total; treat as no prior bounty but
		// surface the failure so the event log records it.
		log.Printf("❌ [BOUNTY] %s: failed to list labels: %v", issue, err)
		return amount, fmt.Errorf("%w: %v", ErrLabelUpdate, err)
	}

	var bountyLabels []string
	for _, name := range labels {
		if strings.HasPrefix(name, BountyLabelPrefix) {
			bountyLabels = append(bountyLabels, name)
		}
	}

	if len(bountyLabels) == 0 {
		newLabel := BountyLabelPrefix + strconv.FormatInt(amount, 10)
		if err := s.Tracker.AddLabel(ctx, issue, newLabel); err != nil {
			log.Printf("❌ [BOUNTY] %s: failed to add label %q: %v", issue, newLabel, err)
			return amount, fmt.Errorf("%w: %v", ErrLabelUpdate, err)
		}
		return amount, nil
	}

	if len(bountyLabels) > 1 {
		// Should not happen: the first label in listing order is
		// authoritative, the rest are left alone.
		log.Printf("⚠️ [BOUNTY] %s: %d bounty labels found, using %q", issue, len(bountyLabels), bountyLabels[0])
	}

	current := bountyLabels[0]
	prev, err := strconv.ParseInt(strings.TrimPrefix(current, BountyLabelPrefix), 10, 64)
	if err != nil {
		log.Printf("⚠️ [BOUNTY] %s: unparseable bounty label %q, treating total as 0", issue, current)
		prev = 0
	}

	newTotal := prev + amount
	newLabel := BountyLabelPrefix + strconv.FormatInt(newTotal, 10)
	if err := s.Tracker.RenameLabel(ctx, issue, current, newLabel); err != nil {
		log.Printf("❌ [BOUNTY] %s: failed to rename label %q → %q: %v", issue, current, newLabel, err)
		return newTotal, fmt.Errorf("%w: %v", ErrLabelUpdate, err)
	}
	return newTotal, nil
}

// SyncSummary finds-or-creates the single marker comment on the issue and
// rewrites it to the current total. Idempotent: a second call edits the
// comment created by the first, never duplicates it.
func (s *BountyService) SyncSummary(ctx context.Context, issue IssueRef, total int64, sponsor string, sponsorshipCount int64) error {
	body := summaryBody(total, sponsor, sponsorshipCount)

	comments, err := s.Tracker.ListComments(ctx, issue)
	if err != nil {
		log.Printf("❌ [BOUNTY] %s: failed to list comments: %v", issue, err)
		return fmt.Errorf("%w: %v", ErrCommentSync, err)
	}

	for _, c := range comments {
		if strings.Contains(c.Body, SummaryMarker) {
			if err := s.Tracker.UpdateComment(ctx, issue, c.ID, body); err != nil {
				log.Printf("❌ [BOUNTY] %s: failed to update summary comment %d: %v", issue, c.ID, err)
				return fmt.Errorf("%w: %v", ErrCommentSync, err)
			}
			return nil
		}
	}

	if _, err := s.Tracker.CreateComment(ctx, issue, body); err != nil {
		log.Printf("❌ [BOUNTY] %s: failed to create summary comment: %v", issue, err)
		return fmt.Errorf("%w: %v", ErrCommentSync, err)
	}
	return nil
}

func summaryBody(total int64, sponsor string, sponsorshipCount int64) string {
	noun := "bounties"
	if sponsorshipCount == 1 {
		noun = "bounty"
	}
	return fmt.Sprintf(
		"%s\n\nThis issue now has a total bounty of **$%d**, last pledged by @%s.\n@%s has sponsored %d %s so far. 🙌\n\nWant to raise it? Comment `/bounty $<amount>`.",
		SummaryMarker, total, sponsor, sponsor, sponsorshipCount, noun,
	)
}

// ProcessPledge runs the full pledge pipeline for one comment body:
// parse → count sponsorship → label update → summary comment → alert →
// event log. Each tracker-side step is best-effort and independent; the
// comment sync always runs with the caller-computed total even when the
// label step failed.
func (s *BountyService) ProcessPledge(ctx context.Context, repositoryID string, commentID int64, issue IssueRef, body, sponsor string) error {
	amount, ok := ParseBountyCommand(body)
	if !ok {
		log.Printf("➡️ [BOUNTY] %s: no command found in comment by %s", issue, sponsor)
		return ErrNoCommand
	}

	count, err := s.recordSponsorship(sponsor, issue, amount)
	if err != nil {
		log.Printf("❌ [BOUNTY] %s: failed to record sponsorship for %s: %v", issue, sponsor, err)
		return err
	}

	total, labelErr := s.ApplyBounty(ctx, issue, amount)
	commentErr := s.SyncSummary(ctx, issue, total, sponsor, count)

	alertSent := s.dispatchAlert(issue, amount, total, sponsor)

	event := models.BountyEvent{
		RepositoryID:  repositoryID,
		CommentID:     commentID,
		IssueNumber:   issue.Number,
		Sponsor:       sponsor,
		Amount:        amount,
		NewTotal:      total,
		LabelUpdated:  labelErr == nil,
		CommentSynced: commentErr == nil,
		AlertSent:     alertSent,
	}
	if err := s.DB.Create(&event).Error; err != nil {
		log.Printf("❌ [BOUNTY] %s: failed to record bounty event: %v", issue, err)
	}

	log.Printf("✅ [BOUNTY] %s: $%d pledged by %s (total $%d, sponsorship #%d)", issue, amount, sponsor, total, count)
	return nil
}

// recordSponsorship bumps the durable per-sponsor counter and returns the
// new count.
func (s *BountyService) recordSponsorship(sponsor string, issue IssueRef, amount int64) (int64, error) {
	row := models.Sponsorship{
		Sponsor:    sponsor,
		Count:      1,
		LastIssue:  issue.String(),
		LastAmount: amount,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sponsor"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":       gorm.Expr("sponsorships.count + 1"),
			"last_issue":  issue.String(),
			"last_amount": amount,
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}

	var saved models.Sponsorship
	if err := s.DB.First(&saved, "sponsor = ?", sponsor).Error; err != nil {
		return 0, err
	}
	return saved.Count, nil
}

// dispatchAlert fires the external alert without blocking the pipeline.
// Delivery is fire-and-forget with its own timeout; failure is logged
// only. Returns whether an alert was dispatched at all.
func (s *BountyService) dispatchAlert(issue IssueRef, amount, total int64, sponsor string) bool {
	if s.Alerts == nil {
		return false
	}
	msg := fmt.Sprintf("💸 %s pledged $%d on %s, total bounty is now $%d", sponsor, amount, issue.HTMLURL(s.WebBase), total)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Alerts.Send(ctx, msg); err != nil {
			log.Printf("❌ [BOUNTY] %s: alert delivery failed: %v", issue, err)
		}
	}()
	return true
}

// --- Handlers ---

// HandlePledge is the tracker webhook endpoint for new issue comments.
func (s *BountyService) HandlePledge(c *fiber.Ctx) error {
	var req struct {
		Repo         string `json:"repo"`
		RepositoryID string `json:"repository_id"`
		CommentID    int64  `json:"comment_id"`
		IssueNumber  int    `json:"issue_number"`
		Body         string `json:"body"`
		Sponsor      string `json:"sponsor"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Repo == "" || req.IssueNumber <= 0 || req.Sponsor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "repo, issue_number, and sponsor are required"})
	}

	issue := IssueRef{Repo: req.Repo, Number: req.IssueNumber}
	err := s.ProcessPledge(c.Context(), req.RepositoryID, req.CommentID, issue, req.Body, req.Sponsor)
	if errors.Is(err, ErrNoCommand) {
		return c.JSON(fiber.Map{"status": "ignored", "reason": "no bounty command"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to process pledge"})
	}
	return c.JSON(fiber.Map{"status": "processed"})
}

// GetSponsorship reports the durable pledge counter for one sponsor.
func (s *BountyService) GetSponsorship(c *fiber.Ctx) error {
	sponsor := c.Params("sponsor")
	var row models.Sponsorship
	if err := s.DB.First(&row, "sponsor = ?", sponsor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "sponsor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(row)
}

// GetBountyEvents lists the pledge log for one issue, newest first.
func (s *BountyService) GetBountyEvents(c *fiber.Ctx) error {
	issueNumber, err := c.ParamsInt("issue_number")
	if err != nil || issueNumber <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid issue number"})
	}

	var events []models.BountyEvent
	if err := s.DB.Where("issue_number = ?", issueNumber).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(events)
}

func getenvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
