package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/model"
)

// retry job payloads; the queue re-invokes the same write paths the
// live events go through, so a replayed job converges exactly like a
// replayed event

type ownerJob struct {
	Chain     string `json:"chain"`
	Contract  string `json:"contract"`
	TokenId   string `json:"tokenId"`
	Owner     string `json:"owner"`
	Timestamp int64  `json:"timestamp"`
}

type timestampJob struct {
	Chain     string `json:"chain"`
	Contract  string `json:"contract"`
	TokenId   string `json:"tokenId"`
	Timestamp int64  `json:"timestamp"`
}

type orderJob struct {
	Chain     string                `json:"chain"`
	BaseToken string                `json:"baseToken"`
	OrderId   uint64                `json:"orderId"`
	Update    *database.OrderUpdate `json:"update"`
	IncBids   bool                  `json:"incBids"`
}

type collectionJob struct {
	Chain  string                     `json:"chain"`
	Token  string                     `json:"token"`
	Update *database.CollectionUpdate `json:"update"`
}

type channelJob struct {
	Chain    string                  `json:"chain"`
	Contract string                  `json:"contract"`
	Update   *database.ChannelUpdate `json:"update"`
}

type uriJob struct {
	Chain    string `json:"chain"`
	Contract string `json:"contract"`
	TokenId  string `json:"tokenId"`
	Kind     string `json:"kind"`
	Height   uint64 `json:"height"`
}

// Execute runs one parked write. The returned flag reports whether the
// target row existed: false means the awaited event still has not been
// stored and the job should be rescheduled. A malformed payload is an
// error, not a retry candidate.
func (n *Normalizer) Execute(kind, payload string) (bool, error) {
	switch kind {
	case model.JobUpdateTokenOwner:
		var job ownerJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return false, fmt.Errorf("bad payload: %v", err)
		}
		return n.db.UpdateToken(job.Chain, job.Contract, job.TokenId, &database.TokenUpdate{
			TokenOwner: &job.Owner,
			UpdateTime: &job.Timestamp,
		})
	case model.JobUpdateTokenTimestamp:
		var job timestampJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return false, fmt.Errorf("bad payload: %v", err)
		}
		return n.db.UpdateToken(job.Chain, job.Contract, job.TokenId, &database.TokenUpdate{
			UpdateTime: &job.Timestamp,
		})
	case model.JobUpdateOrder:
		var job orderJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return false, fmt.Errorf("bad payload: %v", err)
		}
		baseToken := job.BaseToken
		if baseToken == "" {
			order, err := n.orderByMarket(job.Chain, job.OrderId)
			if err != nil {
				if err == database.ErrRecordNotFound {
					return false, nil
				}
				return false, err
			}
			baseToken = order.BaseToken
		}
		if job.IncBids {
			order, err := n.db.GetOrder(job.Chain, baseToken, job.OrderId)
			if err != nil {
				if err == database.ErrRecordNotFound {
					return false, nil
				}
				return false, err
			}
			bids := order.Bids + 1
			job.Update.Bids = &bids
		}
		return n.db.UpdateOrder(job.Chain, baseToken, job.OrderId, job.Update)
	case model.JobUpdateCollection:
		var job collectionJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return false, fmt.Errorf("bad payload: %v", err)
		}
		return n.db.UpdateCollection(job.Chain, job.Token, job.Update)
	case model.JobUpdateTokenChannel:
		var job channelJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return false, fmt.Errorf("bad payload: %v", err)
		}
		return n.db.UpdateTokenChannel(job.Chain, job.Contract, job.Update)
	case model.JobFetchTokenUri:
		var job uriJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return false, fmt.Errorf("bad payload: %v", err)
		}
		tokenId, ok := new(big.Int).SetString(job.TokenId, 10)
		if !ok {
			return false, fmt.Errorf("bad token id: %v", job.TokenId)
		}
		stream := Stream{Chain: conf.Chain(job.Chain), Contract: job.Contract, Kind: EventKind(job.Kind)}
		uri, err := n.tokenUri(context.Background(), stream, tokenId, job.Height)
		if err != nil {
			return false, err
		}
		if uri == "" {
			// the contract reports no content for this token
			return true, nil
		}
		notGet := true
		return n.db.UpdateToken(job.Chain, job.Contract, job.TokenId, &database.TokenUpdate{
			TokenUri:     &uri,
			NotGetDetail: &notGet,
		})
	}
	return false, fmt.Errorf("unknown job kind: %v", kind)
}
