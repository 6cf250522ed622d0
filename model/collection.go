package model

// Collection is the aggregated view of one token contract on one chain.
// The statistics fields are recomputed by the periodic statistics job.
type Collection struct {
	Chain         string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_collection_key"`    //chain the collection lives on
	Token         string `json:"token" gorm:"type:CHAR(42);uniqueIndex:idx_collection_key"`   //collection contract address
	UniqueKey     string `json:"uniqueKey" gorm:"type:VARCHAR(52);index"`                     //chain-token
	Owner         string `json:"owner" gorm:"type:VARCHAR(42);index"`                         //collection owner
	Name          string `json:"name"`                                                        //collection name
	Symbol        string `json:"symbol"`                                                      //collection symbol
	Uri           string `json:"uri"`                                                         //collection content URI
	Is721         bool   `json:"is721"`                                                       //ERC721 or ERC1155
	Category      string `json:"category"`                                                    //resolved metadata category
	Description   string `json:"description" gorm:"type:TEXT"`                                //resolved metadata description
	Avatar        string `json:"avatar"`                                                      //resolved metadata avatar link
	RoyaltyOwners string `json:"royaltyOwners" gorm:"type:TEXT"`                              //royalty beneficiaries, JSON array
	RoyaltyFees   string `json:"royaltyFees" gorm:"type:TEXT"`                                //royalty rates, JSON array
	Register      bool   `json:"register"`                                                    //user registered collection, gets its own scanner
	BlockNumber   uint64 `json:"blockNumber"`                                                 //registration block height
	Items         int64  `json:"items"`                                                       //token count, recomputed
	Owners        int64  `json:"owners"`                                                      //distinct owner count, recomputed
	TradeVolume   int64  `json:"tradeVolume"`                                                 //filled order count, recomputed
	FloorPrice    string `json:"floorPrice"`                                                  //lowest open sale price in wei, recomputed
	CreateTime    int64  `json:"createTime"`                                                  //registration timestamp
	UpdateTime    int64  `json:"updateTime"`                                                  //last registry event timestamp
}

// CollectionAttribute is one observed trait value inside a collection.
type CollectionAttribute struct {
	Chain     string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_attribute_key"`       //chain the collection lives on
	Contract  string `json:"contract" gorm:"type:CHAR(42);uniqueIndex:idx_attribute_key"`   //collection contract address
	TraitType string `json:"traitType" gorm:"type:VARCHAR(128);uniqueIndex:idx_attribute_key"` //trait name
	Value     string `json:"value" gorm:"type:VARCHAR(256);uniqueIndex:idx_attribute_key"`  //trait value
}

// TokenRate is one sampled platform token price.
type TokenRate struct {
	Chain     string  `json:"chain" gorm:"type:CHAR(8);index"`    //chain of the priced token
	Token     string  `json:"token" gorm:"type:CHAR(42);index"`   //priced token contract
	Rate      float64 `json:"rate"`                               //rate against the native coin
	Price     float64 `json:"price"`                              //USD price
	Timestamp int64   `json:"timestamp" gorm:"index"`             //sample time
}
