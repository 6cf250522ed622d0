package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
	"marketsync/metadata"
	"marketsync/model"
	"marketsync/node"
)

// Normalizer turns decoded chain events into durable rows. Every write
// is keyed by natural identity, so replaying an already processed
// block range converges to the same state. When an update targets a
// row that does not exist yet, the write is parked on the retry queue
// instead of being dropped.
type Normalizer struct {
	db       *database.DB
	clients  map[conf.Chain]ChainClient
	resolver *metadata.Resolver
}

func NewNormalizer(db *database.DB, clients map[conf.Chain]ChainClient, resolver *metadata.Resolver) *Normalizer {
	return &Normalizer{db: db, clients: clients, resolver: resolver}
}

// discardError marks an event whose payload cannot be decoded. Such
// events are logged and dropped; every other failure is treated as
// transient and the block range is retried with the cursor unmoved.
type discardError struct{ err error }

func (e discardError) Error() string { return e.err.Error() }

func discard(err error) error { return discardError{err: err} }

func isDiscard(err error) bool {
	_, ok := err.(discardError)
	return ok
}

// Handle stores one raw log according to its stream kind.
func (n *Normalizer) Handle(ctx context.Context, stream Stream, raw *node.Log) error {
	client := n.clients[stream.Chain]
	callCtx, cancel := context.WithTimeout(ctx, conf.CallTimeout)
	defer cancel()
	gasUsed, timestamp, err := client.EventContext(callCtx, raw.TxHash, uint64(raw.BlockNumber))
	if err != nil {
		return fmt.Errorf("event context: %v", err)
	}
	switch {
	case stream.Kind.IsTransfer():
		return n.handleTransfer(ctx, stream, raw, gasUsed, timestamp)
	case stream.Kind.IsOrder():
		return n.handleOrder(stream, raw, gasUsed, timestamp)
	case stream.Kind.IsRegistry():
		return n.handleRegistry(stream, raw, timestamp)
	case stream.Kind.IsChannel():
		return n.handleChannel(stream, raw, timestamp)
	}
	return discard(fmt.Errorf("unknown stream kind: %v", stream.Kind))
}

func (n *Normalizer) handleTransfer(ctx context.Context, stream Stream, raw *node.Log, gasUsed uint64, timestamp int64) error {
	event, err := DecodeTransfer(stream.Kind, raw)
	if err != nil {
		return discard(err)
	}
	contract := strings.ToLower(stream.Contract)
	tokenId := event.TokenId.String()
	err = n.db.InsertTokenEvent(&model.TokenEvent{
		Chain:       string(stream.Chain),
		TxHash:      raw.TxHash,
		LogIndex:    uint(raw.Index),
		Contract:    contract,
		TokenId:     tokenId,
		From:        event.From,
		To:          event.To,
		Operator:    event.Operator,
		Value:       event.Value,
		GasFee:      gasUsed,
		BlockNumber: uint64(raw.BlockNumber),
		Timestamp:   timestamp,
	})
	if err != nil {
		return err
	}

	switch {
	case event.From == conf.BurnAddress:
		return n.mintToken(ctx, stream, event, uint64(raw.BlockNumber), timestamp)
	case event.To == conf.BurnAddress:
		return n.moveToken(stream, contract, tokenId, conf.BurnAddress, timestamp)
	case strings.EqualFold(event.To, stream.Market):
		// escrow transfer into the marketplace, the seller stays the
		// logical owner until the order fills
		return nil
	default:
		return n.moveToken(stream, contract, tokenId, event.To, timestamp)
	}
}

// mintToken records a freshly minted token. The content URI comes from
// a read call against the mint block; metadata resolution itself is
// deferred to the detail filler.
func (n *Normalizer) mintToken(ctx context.Context, stream Stream, event *TransferEvent, height uint64, timestamp int64) error {
	contract := strings.ToLower(stream.Contract)
	uri, uriErr := n.tokenUri(ctx, stream, event.TokenId, height)
	if uriErr != nil {
		log.Warnf("[%v/%v] token %v uri: %v", stream.Chain, contract, event.TokenId, uriErr)
	}
	err := n.db.NewToken(&model.Token{
		Chain:        string(stream.Chain),
		Contract:     contract,
		TokenId:      event.TokenId.String(),
		TokenIdHex:   "0x" + event.TokenId.Text(16),
		UniqueKey:    uniqueKey(string(stream.Chain), contract, event.TokenId.String()),
		TokenSupply:  event.Value,
		TokenOwner:   event.To,
		RoyaltyOwner: event.To,
		TokenUri:     uri,
		Type:         "image",
		NotGetDetail: uri != "",
		BlockNumber:  height,
		CreateTime:   timestamp,
		UpdateTime:   timestamp,
	})
	if err != nil || uriErr == nil {
		return err
	}
	// without a uri the row is invisible to the detail filler, so a
	// parked fetch restores it once the node recovers
	return n.enqueue(model.JobFetchTokenUri, &uriJob{
		Chain:    string(stream.Chain),
		Contract: contract,
		TokenId:  event.TokenId.String(),
		Kind:     string(stream.Kind),
		Height:   height,
	})
}

// moveToken points the token row at its new owner, or parks the write
// when the mint has not landed yet.
func (n *Normalizer) moveToken(stream Stream, contract, tokenId, owner string, timestamp int64) error {
	found, err := n.db.UpdateToken(string(stream.Chain), contract, tokenId, &database.TokenUpdate{
		TokenOwner: &owner,
		UpdateTime: &timestamp,
	})
	if err != nil {
		return err
	}
	if !found {
		return n.enqueue(model.JobUpdateTokenOwner, &ownerJob{
			Chain:     string(stream.Chain),
			Contract:  contract,
			TokenId:   tokenId,
			Owner:     owner,
			Timestamp: timestamp,
		})
	}
	return nil
}

func (n *Normalizer) tokenUri(ctx context.Context, stream Stream, tokenId *big.Int, height uint64) (string, error) {
	method := "tokenURI(uint256)"
	if stream.Kind == KindTransferSingle {
		method = "uri(uint256)"
	}
	client := n.clients[stream.Chain]
	callCtx, cancel := context.WithTimeout(ctx, conf.CallTimeout)
	defer cancel()
	ret, err := client.CallContract(callCtx, stream.Contract, callData(method, tokenId), height)
	if err != nil {
		return "", err
	}
	values, err := stringReturn.Unpack(ret)
	if err != nil {
		return "", err
	}
	return values[0].(string), nil
}

func (n *Normalizer) handleOrder(stream Stream, raw *node.Log, gasUsed uint64, timestamp int64) error {
	event, err := DecodeOrder(stream.Kind, raw)
	if err != nil {
		return discard(err)
	}
	chain := string(stream.Chain)
	orderId := event.OrderId.Uint64()

	record := model.OrderEvent{
		Chain:       chain,
		TxHash:      raw.TxHash,
		LogIndex:    uint(raw.Index),
		Contract:    strings.ToLower(stream.Contract),
		OrderId:     orderId,
		EventType:   orderEventType[stream.Kind],
		GasFee:      gasUsed,
		BlockNumber: uint64(raw.BlockNumber),
		Timestamp:   timestamp,
	}
	if event.BaseToken != "" {
		record.BaseToken = event.BaseToken
		record.TokenId = event.TokenId.String()
	} else if order, err := n.orderByMarket(chain, orderId); err == nil {
		record.BaseToken = order.BaseToken
		record.TokenId = order.TokenId
	}
	if err := n.db.InsertOrderEvent(&record); err != nil {
		return err
	}

	switch stream.Kind {
	case KindOrderForSale, KindOrderForAuction:
		orderType := model.OrderTypeSale
		if stream.Kind == KindOrderForAuction {
			orderType = model.OrderTypeAuction
		}
		return n.db.NewOrder(&model.Order{
			Chain:       chain,
			BaseToken:   event.BaseToken,
			OrderId:     orderId,
			TokenId:     event.TokenId.String(),
			UniqueKey:   uniqueKey(chain, event.BaseToken, event.TokenId.String()),
			OrderType:   orderType,
			OrderState:  model.OrderStateCreated,
			Amount:      event.Amount.Int64(),
			QuoteToken:  event.QuoteToken,
			Price:       event.Price.String(),
			SellerAddr:  event.Seller,
			CreateTime:  timestamp,
			UpdateTime:  timestamp,
			BlockNumber: uint64(raw.BlockNumber),
		})
	case KindOrderBid:
		bid := event.Price.String()
		return n.applyOrderUpdate(chain, record.BaseToken, orderId, &database.OrderUpdate{
			LastBidder: &event.Buyer,
			LastBid:    &bid,
			UpdateTime: &timestamp,
		}, true)
	case KindOrderPriceChanged:
		price := event.NewPrice.String()
		return n.applyOrderUpdate(chain, record.BaseToken, orderId, &database.OrderUpdate{
			Price:      &price,
			UpdateTime: &timestamp,
		}, false)
	case KindOrderFilled:
		state := model.OrderStateFilled
		filled := event.Price.String()
		err := n.applyOrderUpdate(chain, record.BaseToken, orderId, &database.OrderUpdate{
			OrderState: &state,
			Filled:     &filled,
			BuyerAddr:  &event.Buyer,
			UpdateTime: &timestamp,
		}, false)
		if err != nil {
			return err
		}
		return n.touchToken(chain, record.BaseToken, record.TokenId, timestamp)
	case KindOrderCancelled:
		state := model.OrderStateCancelled
		return n.applyOrderUpdate(chain, record.BaseToken, orderId, &database.OrderUpdate{
			OrderState: &state,
			UpdateTime: &timestamp,
		}, false)
	}
	return nil
}

// orderByMarket finds the stored order of a lifecycle event that does
// not carry the base token itself.
func (n *Normalizer) orderByMarket(chain string, orderId uint64) (*model.Order, error) {
	var order model.Order
	err := n.db.Where("chain=? AND order_id=?", chain, orderId).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// applyOrderUpdate writes a lifecycle update, parking it on the retry
// queue when the created order has not been stored yet. incBids bumps
// the stored bid counter on top of the carried fields.
func (n *Normalizer) applyOrderUpdate(chain, baseToken string, orderId uint64, update *database.OrderUpdate, incBids bool) error {
	park := func() error {
		return n.enqueue(model.JobUpdateOrder, &orderJob{
			Chain:     chain,
			BaseToken: baseToken,
			OrderId:   orderId,
			Update:    update,
			IncBids:   incBids,
		})
	}
	if baseToken == "" {
		// creation event not stored yet, the natural key is incomplete
		order, err := n.orderByMarket(chain, orderId)
		if err != nil {
			if err == database.ErrRecordNotFound {
				return park()
			}
			return err
		}
		baseToken = order.BaseToken
	}
	if incBids {
		order, err := n.db.GetOrder(chain, baseToken, orderId)
		if err != nil {
			if err == database.ErrRecordNotFound {
				return park()
			}
			return err
		}
		bids := order.Bids + 1
		update.Bids = &bids
	}
	found, err := n.db.UpdateOrder(chain, baseToken, orderId, update)
	if err != nil {
		return err
	}
	if !found {
		return park()
	}
	return nil
}

// touchToken refreshes the traded token's update time, parking the
// write when the token row is missing.
func (n *Normalizer) touchToken(chain, contract, tokenId string, timestamp int64) error {
	if contract == "" || tokenId == "" {
		return nil
	}
	found, err := n.db.UpdateToken(chain, contract, tokenId, &database.TokenUpdate{UpdateTime: &timestamp})
	if err != nil {
		return err
	}
	if !found {
		return n.enqueue(model.JobUpdateTokenTimestamp, &timestampJob{
			Chain:     chain,
			Contract:  contract,
			TokenId:   tokenId,
			Timestamp: timestamp,
		})
	}
	return nil
}

func (n *Normalizer) handleRegistry(stream Stream, raw *node.Log, timestamp int64) error {
	event, err := DecodeRegistry(stream.Kind, raw)
	if err != nil {
		return discard(err)
	}
	chain := string(stream.Chain)
	switch stream.Kind {
	case KindTokenRegistered:
		collection := model.Collection{
			Chain:       chain,
			Token:       event.Token,
			UniqueKey:   chain + "-" + event.Token,
			Owner:       event.Owner,
			Name:        event.Name,
			Uri:         event.Uri,
			Is721:       event.Is721,
			Register:    !conf.IsBaseCollection(event.Token, stream.Chain),
			BlockNumber: uint64(raw.BlockNumber),
			CreateTime:  timestamp,
			UpdateTime:  timestamp,
		}
		n.fillCollectionInfo(&collection)
		return n.db.NewCollection(&collection)
	case KindTokenRoyaltyChanged:
		owners, _ := json.Marshal(event.RoyaltyOwners)
		fees, _ := json.Marshal(bigStrings(event.RoyaltyFees))
		ownersStr, feesStr := string(owners), string(fees)
		return n.applyCollectionUpdate(chain, event.Token, &database.CollectionUpdate{
			RoyaltyOwners: &ownersStr,
			RoyaltyFees:   &feesStr,
			UpdateTime:    &timestamp,
		})
	case KindTokenInfoUpdated:
		update := database.CollectionUpdate{
			Name:       &event.Name,
			Uri:        &event.Uri,
			UpdateTime: &timestamp,
		}
		if info, err := n.resolver.CollectionInfo(event.Uri); err == nil {
			update.Category = &info.Data.Category
			update.Description = &info.Data.Description
			update.Avatar = &info.Data.Avatar
		}
		return n.applyCollectionUpdate(chain, event.Token, &update)
	}
	return nil
}

// fillCollectionInfo resolves collection metadata best effort; a miss
// leaves the descriptive fields empty until the next registry update.
func (n *Normalizer) fillCollectionInfo(collection *model.Collection) {
	if collection.Uri == "" {
		return
	}
	info, err := n.resolver.CollectionInfo(collection.Uri)
	if err != nil {
		log.Warnf("[%v/%v] collection metadata: %v", collection.Chain, collection.Token, err)
		return
	}
	collection.Category = info.Data.Category
	collection.Description = info.Data.Description
	collection.Avatar = info.Data.Avatar
}

func (n *Normalizer) applyCollectionUpdate(chain, token string, update *database.CollectionUpdate) error {
	found, err := n.db.UpdateCollection(chain, token, update)
	if err != nil {
		return err
	}
	if !found {
		return n.enqueue(model.JobUpdateCollection, &collectionJob{
			Chain:  chain,
			Token:  token,
			Update: update,
		})
	}
	return nil
}

func (n *Normalizer) handleChannel(stream Stream, raw *node.Log, timestamp int64) error {
	event, err := DecodeChannel(stream.Kind, raw)
	if err != nil {
		return discard(err)
	}
	chain := string(stream.Chain)
	contract := strings.ToLower(stream.Contract)
	tokenId := event.TokenId.String()
	err = n.db.InsertChannelEvent(&model.ChannelEvent{
		Chain:        chain,
		TxHash:       raw.TxHash,
		LogIndex:     uint(raw.Index),
		EventType:    string(stream.Kind),
		TokenId:      tokenId,
		TokenUri:     event.TokenUri,
		ChannelEntry: event.ChannelEntry,
		ReceiptAddr:  event.Receipt,
		BlockNumber:  uint64(raw.BlockNumber),
		Timestamp:    timestamp,
	})
	if err != nil {
		return err
	}

	switch stream.Kind {
	case KindChannelRegistered:
		return n.db.NewToken(&model.Token{
			Chain:        chain,
			Contract:     contract,
			TokenId:      tokenId,
			TokenIdHex:   "0x" + event.TokenId.Text(16),
			UniqueKey:    uniqueKey(chain, contract, tokenId),
			TokenSupply:  1,
			TokenOwner:   event.Owner,
			RoyaltyOwner: event.Owner,
			TokenUri:     event.TokenUri,
			Type:         "channel",
			ChannelEntry: event.ChannelEntry,
			ReceiptAddr:  event.Receipt,
			AgentAddr:    event.Agent,
			NotGetDetail: event.TokenUri != "",
			BlockNumber:  uint64(raw.BlockNumber),
			CreateTime:   timestamp,
			UpdateTime:   timestamp,
		})
	case KindChannelUpdated:
		return n.applyChannelUpdate(chain, contract, &database.ChannelUpdate{
			TokenId:      tokenId,
			TokenUri:     event.TokenUri,
			ChannelEntry: event.ChannelEntry,
			ReceiptAddr:  event.Receipt,
		})
	case KindChannelUnregistered:
		return n.moveToken(stream, contract, tokenId, conf.BurnAddress, timestamp)
	}
	return nil
}

func (n *Normalizer) applyChannelUpdate(chain, contract string, update *database.ChannelUpdate) error {
	found, err := n.db.UpdateTokenChannel(chain, contract, update)
	if err != nil {
		return err
	}
	if !found {
		return n.enqueue(model.JobUpdateTokenChannel, &channelJob{
			Chain:    chain,
			Contract: contract,
			Update:   update,
		})
	}
	return nil
}

func (n *Normalizer) enqueue(kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.db.EnqueueJob(kind, string(data), conf.QueueDelay)
}

func uniqueKey(chain, contract, tokenId string) string {
	return chain + "-" + contract + "-" + tokenId
}

func bigStrings(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = value.String()
	}
	return out
}

// callData packs a single uint256 argument read call.
func callData(method string, arg *big.Int) []byte {
	selector := crypto.Keccak256([]byte(method))[:4]
	return append(selector, common.LeftPadBytes(arg.Bytes(), 32)...)
}
