package service

import (
	"marketsync/model"
)

// SyncStatusRes reports how far every stream has been scanned and how
// much deferred work is outstanding.
type SyncStatusRes struct {
	Cursors     []*model.SyncCursor `json:"cursors"`     //per stream last processed heights
	PendingJobs int64               `json:"pendingJobs"` //retry jobs waiting to run
	DeadJobs    int64               `json:"deadJobs"`    //retry jobs past the attempt cap
}

func SyncStatus() (res SyncStatusRes, err error) {
	if res.Cursors, err = DB.Cursors(); err != nil {
		return
	}
	if res.PendingJobs, err = DB.PendingJobs(); err != nil {
		return
	}
	err = DB.Model(&model.RetryJob{}).Where("state=?", model.JobDead).Count(&res.DeadJobs).Error
	return
}

// RatesRes lists the latest sampled coin prices.
type RatesRes struct {
	Rates []*model.TokenRate `json:"rates"`
}

func LatestRates() (res RatesRes, err error) {
	err = DB.Raw(`SELECT r.* FROM token_rates r JOIN (
		SELECT chain, token, MAX(timestamp) ts FROM token_rates GROUP BY chain, token
	) m ON r.chain=m.chain AND r.token=m.token AND r.timestamp=m.ts`).Scan(&res.Rates).Error
	return
}
