package model

// SyncCursor records the last fully processed block height per tracked
// (chain, contract, eventKind) stream. It is the sole resumption
// contract: a cold start needs nothing but this table and the contract
// deploy heights.
type SyncCursor struct {
	Chain      string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_cursor_key"`       //chain of the stream
	Contract   string `json:"contract" gorm:"type:CHAR(42);uniqueIndex:idx_cursor_key"`   //contract of the stream
	EventKind  string `json:"eventKind" gorm:"type:VARCHAR(32);uniqueIndex:idx_cursor_key"` //event kind of the stream
	LastHeight uint64 `json:"lastHeight"`                                                 //last durably processed height
}

// retry job states
const (
	JobPending = 0
	JobDone    = 1
	JobDead    = 2
)

// retry job operation kinds
const (
	JobUpdateTokenOwner     = "update-token-owner"
	JobUpdateTokenTimestamp = "update-token-timestamp"
	JobUpdateOrder          = "update-order"
	JobUpdateCollection     = "update-collection"
	JobUpdateTokenChannel   = "update-token-channel"
	JobFetchTokenUri        = "fetch-token-uri"
)

// RetryJob is one deferred write whose target entity did not exist
// when the triggering event arrived. Rows are updated in place, never
// deleted: finished jobs keep state JobDone, jobs past the attempt cap
// keep state JobDead.
type RetryJob struct {
	Id          uint64 `json:"id" gorm:"primaryKey;autoIncrement"` //queue position, FIFO within kind
	Kind        string `json:"kind" gorm:"type:VARCHAR(32);index"` //operation kind
	Payload     string `json:"payload" gorm:"type:TEXT"`           //operation arguments, JSON
	Attempts    int    `json:"attempts"`                           //times the write has been tried
	State       int    `json:"state" gorm:"index"`                 //0 pending, 1 done, 2 dead
	EnqueueTime int64  `json:"enqueueTime"`                        //first enqueue time, unix seconds
	NextRunAt   int64  `json:"nextRunAt" gorm:"index"`             //not runnable before this, unix milliseconds
}
