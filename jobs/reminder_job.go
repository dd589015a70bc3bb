package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/database"
	"rightbridge-server/models"
	"rightbridge-server/services"
)

// ReminderJob emails assigned providers each morning about bookings scheduled
// for that day.
type ReminderJob struct {
	email *services.EmailService
	cron  *cron.Cron
}

// NewReminderJob creates the daily reminder job
func NewReminderJob(email *services.EmailService) *ReminderJob {
	return &ReminderJob{
		email: email,
		cron:  cron.New(),
	}
}

// Start schedules the job at 08:00 server time every day
func (j *ReminderJob) Start() error {
	_, err := j.cron.AddFunc("0 8 * * *", j.Run)
	if err != nil {
		return err
	}
	j.cron.Start()
	log.Info("booking reminder job scheduled for 08:00 daily")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (j *ReminderJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Run sends reminders for today's assigned and in-progress bookings. Exported
// so it can be triggered manually.
func (j *ReminderJob) Run() {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var bookings []models.Booking
	err := database.DB.
		Preload("Service").
		Preload("Customer").
		Preload("AssignedProvider").
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Where("status IN ?", []models.BookingStatus{
			models.BookingStatusAssigned,
			models.BookingStatusInProgress,
		}).
		Where("assigned_provider_id IS NOT NULL").
		Find(&bookings).Error
	if err != nil {
		log.Errorf("reminder job: failed to load today's bookings: %v", err)
		return
	}

	sent := 0
	for i := range bookings {
		if err := j.email.SendBookingReminder(&bookings[i]); err != nil {
			log.Errorf("reminder job: booking %d: %v", bookings[i].ID, err)
			continue
		}
		sent++
	}

	log.Infof("reminder job: %d bookings today, %d reminders sent", len(bookings), sent)
}
