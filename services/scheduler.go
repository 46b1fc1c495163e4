// services/scheduler.go
package services

import (
	"log"
	"time"

	"bug-bounty-service/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *HuntService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish scheduled hunts whose time has come
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var hunts []models.Hunt
			now := time.Now()
			err := s.DB.Where("status = ? AND publish_schedule <= ?", models.HuntStatusScheduled, now).
				Find(&hunts).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for i := range hunts {
				if err := s.publish(&hunts[i]); err != nil {
					log.Printf("[Scheduler] Failed to publish hunt %s: %v", hunts[i].ID, err)
				} else {
					log.Printf("✅ Auto-published hunt: %s", hunts[i].Name)
				}
			}
		}),
	)
}
