package model

// Token is one NFT mirrored from a chain, one live row per UniqueKey.
// Burned tokens keep their row with the owner set to the burn address.
type Token struct {
	Chain        string `json:"chain" gorm:"type:CHAR(8);uniqueIndex:idx_token_key"`            //chain the token lives on
	Contract     string `json:"contract" gorm:"type:CHAR(42);uniqueIndex:idx_token_key;index"`  //token contract address
	TokenId      string `json:"tokenId" gorm:"type:VARCHAR(80);uniqueIndex:idx_token_key"`      //decimal token id
	TokenIdHex   string `json:"tokenIdHex" gorm:"type:VARCHAR(80)"`                             //hex token id
	UniqueKey    string `json:"uniqueKey" gorm:"type:VARCHAR(134);index"`                       //chain-contract-tokenId
	TokenSupply  int64  `json:"tokenSupply"`                                                    //1 for ERC721
	TokenOwner   string `json:"tokenOwner" gorm:"type:CHAR(42);index"`                          //current owner, burn address if burned
	RoyaltyOwner string `json:"royaltyOwner" gorm:"type:CHAR(42)"`                              //royalty beneficiary, minter for base tokens
	RoyaltyFee   int64  `json:"royaltyFee"`                                                     //royalty fee, basis points
	TokenUri     string `json:"tokenUri"`                                                       //content URI the metadata resolves from
	Name         string `json:"name"`                                                           //resolved metadata name
	Description  string `json:"description" gorm:"type:TEXT"`                                   //resolved metadata description
	Image        string `json:"image"`                                                          //resolved metadata image link
	Type         string `json:"type"`                                                           //resolved content type, image by default
	Properties   string `json:"properties" gorm:"type:TEXT"`                                    //resolved metadata properties, JSON
	ChannelEntry string `json:"channelEntry"`                                                   //feed channel entry, registry tokens only
	ReceiptAddr  string `json:"receiptAddr" gorm:"type:VARCHAR(42)"`                            //feed channel tipping address
	AgentAddr    string `json:"agentAddr" gorm:"type:VARCHAR(42)"`                              //feed channel agent address
	NotGetDetail bool   `json:"notGetDetail" gorm:"index"`                                      //metadata not resolved yet
	RetryTimes   int    `json:"retryTimes"`                                                     //failed metadata fetch count
	BlockNumber  uint64 `json:"blockNumber"`                                                    //mint block height
	CreateTime   int64  `json:"createTime" gorm:"index"`                                        //mint block timestamp
	UpdateTime   int64  `json:"updateTime"`                                                     //last event block timestamp
}

// User caches a DID profile attached to an address.
type User struct {
	Address     string `json:"address" gorm:"type:CHAR(42);primaryKey"` //wallet address
	Did         string `json:"did"`                                     //DID string
	Name        string `json:"name"`                                    //profile name
	Description string `json:"description" gorm:"type:TEXT"`            //profile description
}
