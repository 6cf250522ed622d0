package database

import (
	"time"

	"marketsync/model"
)

// EnqueueJob stores a deferred write, runnable after the given delay.
func (db *DB) EnqueueJob(kind, payload string, delay time.Duration) error {
	now := time.Now()
	return db.Create(&model.RetryJob{
		Kind:        kind,
		Payload:     payload,
		State:       model.JobPending,
		EnqueueTime: now.Unix(),
		NextRunAt:   now.Add(delay).UnixMilli(),
	}).Error
}

// DueJobs lists pending jobs whose run time has passed, oldest first,
// so jobs of the same kind keep their enqueue order.
func (db *DB) DueJobs(limit int) (jobs []*model.RetryJob, err error) {
	err = db.Where("state=? AND next_run_at<=?", model.JobPending, time.Now().UnixMilli()).
		Order("id").Limit(limit).Find(&jobs).Error
	return
}

// FinishJob marks a job done in place. Rows are kept for history.
func (db *DB) FinishJob(id uint64) error {
	return db.Model(&model.RetryJob{}).Where("id=?", id).
		Update("state", model.JobDone).Error
}

// RescheduleJob counts one more failed attempt and pushes the next
// run out by the given delay.
func (db *DB) RescheduleJob(id uint64, attempts int, delay time.Duration) error {
	return db.Model(&model.RetryJob{}).Where("id=?", id).
		Updates(map[string]interface{}{
			"attempts":    attempts,
			"next_run_at": time.Now().Add(delay).UnixMilli(),
		}).Error
}

// DeadLetterJob parks a job that ran out of attempts.
func (db *DB) DeadLetterJob(id uint64) error {
	return db.Model(&model.RetryJob{}).Where("id=?", id).
		Update("state", model.JobDead).Error
}

// PendingJobs counts jobs still waiting to run.
func (db *DB) PendingJobs() (count int64, err error) {
	err = db.Model(&model.RetryJob{}).Where("state=?", model.JobPending).Count(&count).Error
	return
}
