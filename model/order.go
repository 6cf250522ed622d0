package model

// order types
const (
	OrderTypeSale    = 1
	OrderTypeAuction = 2
)

// order states, transitions are one way: Created to Filled or Cancelled
const (
	OrderStateCreated   = 1
	OrderStateFilled    = 2
	OrderStateCancelled = 3
)

// Order is one marketplace order, one row per (chain, baseToken, orderId).
type Order struct {
	Chain         string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_order_key"`          //chain the order lives on
	BaseToken     string `json:"baseToken" gorm:"type:CHAR(42);uniqueIndex:idx_order_key"`     //token contract the order sells
	OrderId       uint64 `json:"orderId" gorm:"uniqueIndex:idx_order_key"`                     //marketplace order id
	TokenId       string `json:"tokenId" gorm:"type:VARCHAR(80);index"`                        //sold token id
	UniqueKey     string `json:"uniqueKey" gorm:"type:VARCHAR(134);index"`                     //chain-baseToken-tokenId
	OrderType     int    `json:"orderType"`                                                    //1 sale, 2 auction
	OrderState    int    `json:"orderState" gorm:"index"`                                      //1 created, 2 filled, 3 cancelled
	Amount        int64  `json:"amount"`                                                       //token amount on sale
	QuoteToken    string `json:"quoteToken" gorm:"type:CHAR(42)"`                              //payment token, zero address for native coin
	Price         string `json:"price"`                                                        //price in wei
	ReservePrice  string `json:"reservePrice"`                                                 //auction reserve price in wei
	BuyoutPrice   string `json:"buyoutPrice"`                                                  //auction buyout price in wei
	Filled        string `json:"filled"`                                                       //filled value in wei
	SellerAddr    string `json:"sellerAddr" gorm:"type:CHAR(42);index"`                        //seller address
	BuyerAddr     string `json:"buyerAddr" gorm:"type:CHAR(42);index"`                         //buyer address, empty until filled
	Bids          int64  `json:"bids"`                                                         //number of bids
	LastBidder    string `json:"lastBidder" gorm:"type:VARCHAR(42)"`                           //latest bidder address
	LastBid       string `json:"lastBid"`                                                      //latest bid in wei
	RoyaltyOwner  string `json:"royaltyOwner" gorm:"type:VARCHAR(42)"`                         //royalty beneficiary
	RoyaltyFee    string `json:"royaltyFee"`                                                   //royalty amount in wei
	RoyaltyOwners string `json:"royaltyOwners" gorm:"type:TEXT"`                               //split royalty beneficiaries, JSON array
	RoyaltyFees   string `json:"royaltyFees" gorm:"type:TEXT"`                                 //split royalty amounts, JSON array
	PlatformAddr  string `json:"platformAddr" gorm:"type:VARCHAR(42)"`                         //platform fee address
	PlatformFee   string `json:"platformFee"`                                                  //platform fee in wei
	StartTime     int64  `json:"startTime"`                                                    //auction start time
	EndTime       int64  `json:"endTime"`                                                      //auction end time
	CreateTime    int64  `json:"createTime" gorm:"index"`                                      //order creation timestamp
	UpdateTime    int64  `json:"updateTime"`                                                   //last lifecycle event timestamp
	BlockNumber   uint64 `json:"blockNumber"`                                                  //creation block height
}
