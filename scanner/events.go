package scanner

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"marketsync/model"
	"marketsync/node"
)

// EventKind names one tracked contract event. Every (chain, contract,
// kind) triple gets its own scanner and its own sync cursor.
type EventKind string

const (
	KindTransfer       EventKind = "Transfer"       //ERC721 transfer
	KindTransferSingle EventKind = "TransferSingle" //ERC1155 single transfer

	KindOrderForSale      EventKind = "OrderForSale"
	KindOrderForAuction   EventKind = "OrderForAuction"
	KindOrderBid          EventKind = "OrderBid"
	KindOrderPriceChanged EventKind = "OrderPriceChanged"
	KindOrderFilled       EventKind = "OrderFilled"
	KindOrderCancelled    EventKind = "OrderCancelled"

	KindTokenRegistered     EventKind = "TokenRegistered"
	KindTokenRoyaltyChanged EventKind = "TokenRoyaltyChanged"
	KindTokenInfoUpdated    EventKind = "TokenInfoUpdated"

	KindChannelRegistered   EventKind = "ChannelRegistered"
	KindChannelUpdated      EventKind = "ChannelUpdated"
	KindChannelUnregistered EventKind = "ChannelUnregistered"
)

// OrderKinds lists the marketplace lifecycle streams per chain.
var OrderKinds = []EventKind{
	KindOrderForSale, KindOrderForAuction, KindOrderBid,
	KindOrderPriceChanged, KindOrderFilled, KindOrderCancelled,
}

// RegistryKinds lists the collection registry streams per chain.
var RegistryKinds = []EventKind{
	KindTokenRegistered, KindTokenRoyaltyChanged, KindTokenInfoUpdated,
}

// ChannelKinds lists the feed channel registry streams.
var ChannelKinds = []EventKind{
	KindChannelRegistered, KindChannelUpdated, KindChannelUnregistered,
}

// solidity signatures of the tracked events
var signatures = map[EventKind]string{
	KindTransfer:       "Transfer(address,address,uint256)",
	KindTransferSingle: "TransferSingle(address,address,address,uint256,uint256)",

	KindOrderForSale:      "OrderForSale(address,uint256,address,uint256,uint256,address,uint256)",
	KindOrderForAuction:   "OrderForAuction(address,uint256,address,uint256,uint256,address,uint256)",
	KindOrderBid:          "OrderBid(address,address,uint256,uint256)",
	KindOrderPriceChanged: "OrderPriceChanged(address,uint256,uint256,uint256)",
	KindOrderFilled:       "OrderFilled(address,address,uint256,uint256,uint256,uint256)",
	KindOrderCancelled:    "OrderCancelled(address,uint256)",

	KindTokenRegistered:     "TokenRegistered(address,address,string,string,bool)",
	KindTokenRoyaltyChanged: "TokenRoyaltyChanged(address,address[],uint256[])",
	KindTokenInfoUpdated:    "TokenInfoUpdated(address,string,string)",

	KindChannelRegistered:   "ChannelRegistered(uint256,address,address,string,string,address)",
	KindChannelUpdated:      "ChannelUpdated(uint256,string,string,address)",
	KindChannelUnregistered: "ChannelUnregistered(uint256)",
}

// Topic returns the topic0 hash identifying the event kind.
func (kind EventKind) Topic() string {
	return crypto.Keccak256Hash([]byte(signatures[kind])).Hex()
}

func (kind EventKind) IsTransfer() bool {
	return kind == KindTransfer || kind == KindTransferSingle
}

func (kind EventKind) IsOrder() bool {
	for _, k := range OrderKinds {
		if kind == k {
			return true
		}
	}
	return false
}

func (kind EventKind) IsRegistry() bool {
	for _, k := range RegistryKinds {
		if kind == k {
			return true
		}
	}
	return false
}

func (kind EventKind) IsChannel() bool {
	for _, k := range ChannelKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// orderEventType maps a stream kind to the stored lifecycle type.
var orderEventType = map[EventKind]int{
	KindOrderForAuction:   model.OrderEventForAuction,
	KindOrderBid:          model.OrderEventBid,
	KindOrderForSale:      model.OrderEventForSale,
	KindOrderFilled:       model.OrderEventFilled,
	KindOrderCancelled:    model.OrderEventCancelled,
	KindOrderPriceChanged: model.OrderEventPriceChanged,
}

// abi types used to unpack event data fields
var (
	addressT, _      = abi.NewType("address", "", nil)
	uint256T, _      = abi.NewType("uint256", "", nil)
	stringT, _       = abi.NewType("string", "", nil)
	boolT, _         = abi.NewType("bool", "", nil)
	addressSliceT, _ = abi.NewType("address[]", "", nil)
	uint256SliceT, _ = abi.NewType("uint256[]", "", nil)
)

// stringReturn unpacks read calls returning a single string, such as
// tokenURI and uri.
var stringReturn = abi.Arguments{{Type: stringT}}

// non indexed data layouts per event kind; the first two parameters
// of every tracked event are indexed except where noted below
var dataLayouts = map[EventKind]abi.Arguments{
	KindTransfer:       {}, //all three parameters indexed
	KindTransferSingle: {{Type: uint256T}, {Type: uint256T}},

	KindOrderForSale:      {{Type: addressT}, {Type: uint256T}, {Type: uint256T}, {Type: addressT}, {Type: uint256T}},
	KindOrderForAuction:   {{Type: addressT}, {Type: uint256T}, {Type: uint256T}, {Type: addressT}, {Type: uint256T}},
	KindOrderBid:          {{Type: uint256T}},
	KindOrderPriceChanged: {{Type: uint256T}, {Type: uint256T}},
	KindOrderFilled:       {{Type: uint256T}, {Type: uint256T}, {Type: uint256T}},
	KindOrderCancelled:    {},

	KindTokenRegistered:     {{Type: stringT}, {Type: stringT}, {Type: boolT}},
	KindTokenRoyaltyChanged: {{Type: addressSliceT}, {Type: uint256SliceT}},
	KindTokenInfoUpdated:    {{Type: stringT}, {Type: stringT}},

	KindChannelRegistered:   {{Type: addressT}, {Type: stringT}, {Type: stringT}, {Type: addressT}},
	KindChannelUpdated:      {{Type: stringT}, {Type: stringT}, {Type: addressT}},
	KindChannelUnregistered: {},
}

// TransferEvent is a decoded transfer family log.
type TransferEvent struct {
	From     string
	To       string
	Operator string
	TokenId  *big.Int
	Value    int64
}

// OrderLog is a decoded marketplace lifecycle log.
type OrderLog struct {
	Kind        EventKind
	OrderId     *big.Int
	Seller      string
	Buyer       string
	BaseToken   string
	TokenId     *big.Int
	Amount      *big.Int
	QuoteToken  string
	Price       *big.Int
	OldPrice    *big.Int
	NewPrice    *big.Int
	RoyaltyFee  *big.Int
	PlatformFee *big.Int
}

// RegistryLog is a decoded collection registry log.
type RegistryLog struct {
	Kind          EventKind
	Token         string
	Owner         string
	Name          string
	Uri           string
	Is721         bool
	RoyaltyOwners []string
	RoyaltyFees   []*big.Int
}

// ChannelLog is a decoded feed channel registry log.
type ChannelLog struct {
	Kind         EventKind
	TokenId      *big.Int
	Owner        string
	Agent        string
	Receipt      string
	TokenUri     string
	ChannelEntry string
}

func topicAddress(topic string) string {
	return strings.ToLower("0x" + topic[26:])
}

func topicBig(topic string) *big.Int {
	value, _ := new(big.Int).SetString(topic[2:], 16)
	return value
}

func unpackData(kind EventKind, raw *node.Log) ([]interface{}, error) {
	layout := dataLayouts[kind]
	if len(layout) == 0 {
		return nil, nil
	}
	data, err := hexutil.Decode(raw.Data)
	if err != nil {
		return nil, fmt.Errorf("bad event data: %v", err)
	}
	return layout.Unpack(data)
}

func lower(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// DecodeTransfer parses an ERC721 Transfer or ERC1155 TransferSingle
// log into its transfer fields.
func DecodeTransfer(kind EventKind, raw *node.Log) (*TransferEvent, error) {
	switch kind {
	case KindTransfer:
		if len(raw.Topics) != 4 {
			return nil, fmt.Errorf("transfer log with %v topics", len(raw.Topics))
		}
		return &TransferEvent{
			From:    topicAddress(raw.Topics[1]),
			To:      topicAddress(raw.Topics[2]),
			TokenId: topicBig(raw.Topics[3]),
			Value:   1,
		}, nil
	case KindTransferSingle:
		if len(raw.Topics) != 4 {
			return nil, fmt.Errorf("transfer single log with %v topics", len(raw.Topics))
		}
		values, err := unpackData(kind, raw)
		if err != nil {
			return nil, err
		}
		return &TransferEvent{
			Operator: topicAddress(raw.Topics[1]),
			From:     topicAddress(raw.Topics[2]),
			To:       topicAddress(raw.Topics[3]),
			TokenId:  values[0].(*big.Int),
			Value:    values[1].(*big.Int).Int64(),
		}, nil
	}
	return nil, fmt.Errorf("not a transfer kind: %v", kind)
}

// DecodeOrder parses a marketplace lifecycle log.
func DecodeOrder(kind EventKind, raw *node.Log) (*OrderLog, error) {
	want := 3
	if kind == KindOrderBid || kind == KindOrderFilled {
		want = 4
	}
	if len(raw.Topics) != want {
		return nil, fmt.Errorf("%v log with %v topics", kind, len(raw.Topics))
	}
	values, err := unpackData(kind, raw)
	if err != nil {
		return nil, err
	}
	event := OrderLog{Kind: kind}
	switch kind {
	case KindOrderForSale, KindOrderForAuction:
		event.Seller = topicAddress(raw.Topics[1])
		event.OrderId = topicBig(raw.Topics[2])
		event.BaseToken = lower(values[0].(common.Address))
		event.TokenId = values[1].(*big.Int)
		event.Amount = values[2].(*big.Int)
		event.QuoteToken = lower(values[3].(common.Address))
		event.Price = values[4].(*big.Int)
	case KindOrderBid:
		event.Seller = topicAddress(raw.Topics[1])
		event.Buyer = topicAddress(raw.Topics[2])
		event.OrderId = topicBig(raw.Topics[3])
		event.Price = values[0].(*big.Int)
	case KindOrderPriceChanged:
		event.Seller = topicAddress(raw.Topics[1])
		event.OrderId = topicBig(raw.Topics[2])
		event.OldPrice = values[0].(*big.Int)
		event.NewPrice = values[1].(*big.Int)
	case KindOrderFilled:
		event.Seller = topicAddress(raw.Topics[1])
		event.Buyer = topicAddress(raw.Topics[2])
		event.OrderId = topicBig(raw.Topics[3])
		event.Price = values[0].(*big.Int)
		event.RoyaltyFee = values[1].(*big.Int)
		event.PlatformFee = values[2].(*big.Int)
	case KindOrderCancelled:
		event.Seller = topicAddress(raw.Topics[1])
		event.OrderId = topicBig(raw.Topics[2])
	default:
		return nil, fmt.Errorf("not an order kind: %v", kind)
	}
	return &event, nil
}

// DecodeRegistry parses a collection registry log.
func DecodeRegistry(kind EventKind, raw *node.Log) (*RegistryLog, error) {
	want := 2
	if kind == KindTokenRegistered {
		want = 3
	}
	if len(raw.Topics) != want {
		return nil, fmt.Errorf("%v log with %v topics", kind, len(raw.Topics))
	}
	values, err := unpackData(kind, raw)
	if err != nil {
		return nil, err
	}
	event := RegistryLog{Kind: kind, Token: topicAddress(raw.Topics[1])}
	switch kind {
	case KindTokenRegistered:
		event.Owner = topicAddress(raw.Topics[2])
		event.Name = values[0].(string)
		event.Uri = values[1].(string)
		event.Is721 = values[2].(bool)
	case KindTokenRoyaltyChanged:
		for _, owner := range values[0].([]common.Address) {
			event.RoyaltyOwners = append(event.RoyaltyOwners, lower(owner))
		}
		event.RoyaltyFees = values[1].([]*big.Int)
	case KindTokenInfoUpdated:
		event.Name = values[0].(string)
		event.Uri = values[1].(string)
	default:
		return nil, fmt.Errorf("not a registry kind: %v", kind)
	}
	return &event, nil
}

// DecodeChannel parses a feed channel registry log.
func DecodeChannel(kind EventKind, raw *node.Log) (*ChannelLog, error) {
	want := 2
	if kind == KindChannelRegistered {
		want = 3
	}
	if len(raw.Topics) != want {
		return nil, fmt.Errorf("%v log with %v topics", kind, len(raw.Topics))
	}
	values, err := unpackData(kind, raw)
	if err != nil {
		return nil, err
	}
	event := ChannelLog{Kind: kind, TokenId: topicBig(raw.Topics[1])}
	switch kind {
	case KindChannelRegistered:
		event.Owner = topicAddress(raw.Topics[2])
		event.Agent = lower(values[0].(common.Address))
		event.TokenUri = values[1].(string)
		event.ChannelEntry = values[2].(string)
		event.Receipt = lower(values[3].(common.Address))
	case KindChannelUpdated:
		event.TokenUri = values[0].(string)
		event.ChannelEntry = values[1].(string)
		event.Receipt = lower(values[2].(common.Address))
	case KindChannelUnregistered:
	default:
		return nil, fmt.Errorf("not a channel kind: %v", kind)
	}
	return &event, nil
}
