package model

// order lifecycle event types, matching the marketplace contract
const (
	OrderEventForAuction   = 0
	OrderEventBid          = 1
	OrderEventForSale      = 2
	OrderEventFilled       = 3
	OrderEventCancelled    = 4
	OrderEventPriceChanged = 5
)

// channel registry event types
const (
	ChannelRegistered   = "ChannelRegistered"
	ChannelUpdated      = "ChannelUpdated"
	ChannelUnregistered = "ChannelUnregistered"
)

// collection registry event types
const (
	CollectionRegistered    = 0
	CollectionRoyaltyChange = 1
	CollectionInfoUpdated   = 2
)

// TokenEvent is one transfer family log, append only,
// deduplicated by (chain, txHash, logIndex).
type TokenEvent struct {
	Chain       string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_token_event"`      //chain the event came from
	TxHash      string `json:"transactionHash" gorm:"type:CHAR(66);uniqueIndex:idx_token_event"` //transaction hash
	LogIndex    uint   `json:"logIndex" gorm:"uniqueIndex:idx_token_event"`                //log index inside the transaction
	Contract    string `json:"contract" gorm:"type:CHAR(42);index"`                        //token contract address
	TokenId     string `json:"tokenId" gorm:"type:VARCHAR(80);index"`                      //transferred token id
	From        string `json:"from" gorm:"type:CHAR(42);index"`                            //sender, burn address on mint
	To          string `json:"to" gorm:"type:CHAR(42);index"`                              //recipient, burn address on burn
	Operator    string `json:"operator" gorm:"type:VARCHAR(42)"`                           //ERC1155 operator
	Value       int64  `json:"value"`                                                      //transferred amount, 1 for ERC721
	GasFee      uint64 `json:"gasFee"`                                                     //gas used by the transaction
	BlockNumber uint64 `json:"blockNumber" gorm:"index"`                                   //block height
	Timestamp   int64  `json:"timestamp" gorm:"index"`                                     //block timestamp
}

// OrderEvent is one order lifecycle log, append only,
// deduplicated by (chain, txHash, logIndex).
type OrderEvent struct {
	Chain       string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_order_event"`      //chain the event came from
	TxHash      string `json:"transactionHash" gorm:"type:CHAR(66);uniqueIndex:idx_order_event"` //transaction hash
	LogIndex    uint   `json:"logIndex" gorm:"uniqueIndex:idx_order_event"`                //log index inside the transaction
	Contract    string `json:"contract" gorm:"type:CHAR(42)"`                              //marketplace contract address
	OrderId     uint64 `json:"orderId" gorm:"index"`                                       //marketplace order id
	EventType   int    `json:"eventType" gorm:"index"`                                     //order lifecycle event type
	BaseToken   string `json:"baseToken" gorm:"type:VARCHAR(42)"`                          //token contract the order sells
	TokenId     string `json:"tokenId" gorm:"type:VARCHAR(80)"`                            //sold token id
	GasFee      uint64 `json:"gasFee"`                                                     //gas used by the transaction
	BlockNumber uint64 `json:"blockNumber" gorm:"index"`                                   //block height
	Timestamp   int64  `json:"timestamp" gorm:"index"`                                     //block timestamp
}

// ChannelEvent is one feed channel registry log, append only,
// deduplicated by (chain, txHash, logIndex).
type ChannelEvent struct {
	Chain        string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_channel_event"`   //chain the event came from
	TxHash       string `json:"transactionHash" gorm:"type:CHAR(66);uniqueIndex:idx_channel_event"` //transaction hash
	LogIndex     uint   `json:"logIndex" gorm:"uniqueIndex:idx_channel_event"`             //log index inside the transaction
	EventType    string `json:"eventType" gorm:"type:VARCHAR(24);index"`                   //registry event type
	TokenId      string `json:"tokenId" gorm:"type:VARCHAR(80);index"`                     //channel token id
	TokenUri     string `json:"tokenUri"`                                                  //channel content URI
	ChannelEntry string `json:"channelEntry"`                                              //channel entry
	ReceiptAddr  string `json:"receiptAddr" gorm:"type:VARCHAR(42)"`                       //channel tipping address
	BlockNumber  uint64 `json:"blockNumber" gorm:"index"`                                  //block height
	Timestamp    int64  `json:"timestamp"`                                                 //block timestamp
}
