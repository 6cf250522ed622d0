package scanner

import (
	"context"
	"time"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
	"marketsync/node"
)

// ChainClient is the node access a scanner needs. *node.Client
// satisfies it; tests substitute a fake.
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, contract, topic string, from, to uint64) ([]*node.Log, error)
	CallContract(ctx context.Context, contract string, data []byte, height uint64) ([]byte, error)
	EventContext(ctx context.Context, txHash string, height uint64) (uint64, int64, error)
	SubscribeLogs(ctx context.Context, contract, topic string) (<-chan node.Log, <-chan error, error)
}

// Stream identifies one scanned event stream and how to interpret it.
type Stream struct {
	Chain    conf.Chain
	Contract string
	Kind     EventKind
	// Market is the marketplace address on the stream's chain, used to
	// tell escrow transfers apart from real ownership changes.
	Market string
	// DeployHeight seeds the cursor the first time the stream is seen.
	DeployHeight uint64
	Step         uint64
	StepInterval time.Duration
}

// Scanner drives one event stream through its backfill and live
// phases. A scanner never reconnects on its own: when the live
// subscription drops, Run returns and the next process start resumes
// from the persisted cursor.
type Scanner struct {
	client ChainClient
	db     *database.DB
	norm   *Normalizer
	stream Stream
}

func NewScanner(client ChainClient, db *database.DB, norm *Normalizer, stream Stream) *Scanner {
	return &Scanner{client: client, db: db, norm: norm, stream: stream}
}

// Run backfills the stream from its persisted cursor to the current
// head in fixed windows, then follows the live subscription until the
// context ends or the subscription drops.
func (s *Scanner) Run(ctx context.Context) {
	stream := s.stream
	last, err := s.db.CursorHeight(string(stream.Chain), stream.Contract, string(stream.Kind), stream.DeployHeight)
	if err != nil {
		log.Errorf("[%v/%v/%v] load cursor: %v", stream.Chain, stream.Contract, stream.Kind, err)
		return
	}
	now, err := s.blockNumber(ctx)
	if err != nil {
		log.Errorf("[%v/%v/%v] block number: %v", stream.Chain, stream.Contract, stream.Kind, err)
		return
	}

	if now > last && now-last > stream.Step+1 {
		log.Infof("[%v/%v/%v] backfill %v..%v", stream.Chain, stream.Contract, stream.Kind, last+1, now)
		if !s.backfill(ctx, last+1, now) {
			return
		}
		last = now
	}
	s.live(ctx, last)
}

func (s *Scanner) blockNumber(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, conf.CallTimeout)
	defer cancel()
	return s.client.BlockNumber(callCtx)
}

// backfill walks [from, to] in windows of Step blocks, persisting the
// cursor after each fully processed window. A failed window fetch or a
// transient processing failure is retried with the same range so no
// block is ever skipped; the writes are idempotent, so re-processing
// the already stored part of a window is harmless. Returns false when
// the context ended.
func (s *Scanner) backfill(ctx context.Context, from, to uint64) bool {
	stream := s.stream
	for from <= to {
		end := from + stream.Step - 1
		if end > to {
			end = to
		}
		logs, err := s.fetchWindow(ctx, from, end)
		if err == nil {
			err = s.processWindow(ctx, logs)
		}
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			log.Warnf("[%v/%v/%v] window %v..%v: %v", stream.Chain, stream.Contract, stream.Kind, from, end, err)
			if !sleep(ctx, stream.StepInterval) {
				return false
			}
			continue
		}
		if err := s.db.AdvanceCursor(string(stream.Chain), stream.Contract, string(stream.Kind), end); err != nil {
			log.Errorf("[%v/%v/%v] advance cursor: %v", stream.Chain, stream.Contract, stream.Kind, err)
			return false
		}
		from = end + 1
		if from <= to && !sleep(ctx, stream.StepInterval) {
			return false
		}
	}
	return true
}

func (s *Scanner) fetchWindow(ctx context.Context, from, to uint64) ([]*node.Log, error) {
	callCtx, cancel := context.WithTimeout(ctx, conf.CallTimeout)
	defer cancel()
	return s.client.FilterLogs(callCtx, s.stream.Contract, s.stream.Kind.Topic(), from, to)
}

// live closes the gap between the cursor and the head with one filter
// pass, then consumes the subscription.
func (s *Scanner) live(ctx context.Context, last uint64) {
	stream := s.stream
	logs, errs, err := s.client.SubscribeLogs(ctx, stream.Contract, stream.Kind.Topic())
	if err != nil {
		log.Errorf("[%v/%v/%v] subscribe: %v", stream.Chain, stream.Contract, stream.Kind, err)
		return
	}
	// events mined between the cursor and the subscription start;
	// the insert paths are idempotent so overlap with the first
	// subscribed events is harmless. On any failure the cursor stays
	// behind and the next start re-fetches the gap.
	if now, err := s.blockNumber(ctx); err != nil {
		log.Warnf("[%v/%v/%v] block number: %v", stream.Chain, stream.Contract, stream.Kind, err)
	} else if now > last {
		if gap, err := s.fetchWindow(ctx, last+1, now); err != nil {
			log.Warnf("[%v/%v/%v] fetch %v..%v: %v", stream.Chain, stream.Contract, stream.Kind, last+1, now, err)
		} else if err := s.processWindow(ctx, gap); err != nil {
			log.Warnf("[%v/%v/%v] window %v..%v: %v", stream.Chain, stream.Contract, stream.Kind, last+1, now, err)
		} else if err := s.db.AdvanceCursor(string(stream.Chain), stream.Contract, string(stream.Kind), now); err != nil {
			log.Errorf("[%v/%v/%v] advance cursor: %v", stream.Chain, stream.Contract, stream.Kind, err)
		}
	}
	log.Infof("[%v/%v/%v] live", stream.Chain, stream.Contract, stream.Kind)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Errorf("[%v/%v/%v] subscription dropped: %v", stream.Chain, stream.Contract, stream.Kind, err)
			return
		case raw, ok := <-logs:
			if !ok {
				return
			}
			if err := s.process(ctx, &raw); err != nil {
				// the cursor stays behind so a restart re-fetches the event
				log.Warnf("[%v/%v/%v] event %v#%v: %v", stream.Chain, stream.Contract, stream.Kind, raw.TxHash, raw.Index, err)
				continue
			}
			if err := s.db.AdvanceCursor(string(stream.Chain), stream.Contract, string(stream.Kind), uint64(raw.BlockNumber)); err != nil {
				log.Errorf("[%v/%v/%v] advance cursor: %v", stream.Chain, stream.Contract, stream.Kind, err)
			}
		}
	}
}

// processWindow feeds a fetched window to the normalizer. The first
// transient failure aborts the window so the caller retries it whole.
func (s *Scanner) processWindow(ctx context.Context, logs []*node.Log) error {
	for _, raw := range logs {
		if err := s.process(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

// process hands one raw log to the normalizer. A log whose payload
// cannot be decoded is logged and dropped; a transient node or store
// failure bubbles up so the caller retries without moving the cursor.
func (s *Scanner) process(ctx context.Context, raw *node.Log) error {
	if raw.Removed {
		return nil
	}
	err := s.norm.Handle(ctx, s.stream, raw)
	if err != nil && isDiscard(err) {
		log.Warnf("[%v/%v/%v] drop event %v#%v: %v", s.stream.Chain, s.stream.Contract, s.stream.Kind, raw.TxHash, raw.Index, err)
		return nil
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
