package bot

import (
	"log"

	"raidguard-bot/enforcer"

	"github.com/robfig/cron/v3"
)

var c *cron.Cron

// startScheduler starts the cron jobs: the 30-second role-enforcement
// sweep and the hourly invite ledger refresh.
func startScheduler(b *Bot) {
	log.Println("Initializing scheduler...")
	c = cron.New()

	_, err := c.AddFunc("@every 30s", func() {
		enforcer.EnforceAll(b.Session)
	})
	if err != nil {
		log.Fatalf("Could not set up enforcement cron job: %v", err)
	}

	// 定期全量刷新邀请快照，避免长时间累积偏差。
	_, err = c.AddFunc("@hourly", func() {
		log.Println("Running hourly invite ledger refresh...")
		for _, guildID := range b.Guard.Guilds() {
			b.Guard.RefreshInvites(guildID)
		}
	})
	if err != nil {
		log.Fatalf("Could not set up invite refresh cron job: %v", err)
	}

	c.Start()
	log.Println("Cron jobs scheduled: enforcement every 30s, invite refresh hourly.")
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}
