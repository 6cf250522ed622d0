package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketsync/model"
)

// NewToken writes a freshly minted token. A row already stored under
// the same (chain, contract, tokenId) is left untouched: re-scanning a
// mint must not rewind ownership or channel fields written since.
func (db *DB) NewToken(token *model.Token) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain"}, {Name: "contract"}, {Name: "token_id"}},
		DoNothing: true,
	}).Create(token).Error
}

// TokenUpdate carries the token fields a transfer family event or a
// deferred content URI fetch may change. Nil fields are left untouched.
type TokenUpdate struct {
	TokenOwner   *string `json:"tokenOwner,omitempty"`
	TokenUri     *string `json:"tokenUri,omitempty"`
	NotGetDetail *bool   `json:"notGetDetail,omitempty"`
	UpdateTime   *int64  `json:"updateTime,omitempty"`
}

// UpdateToken applies an update to the token row under the natural
// key and reports whether such a row exists. A missing row is not an
// error: the mint event may simply not have been processed yet.
func (db *DB) UpdateToken(chain, contract, tokenId string, update *TokenUpdate) (bool, error) {
	var count int64
	err := db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_id=?", chain, contract, tokenId).
		Count(&count).Error
	if err != nil || count == 0 {
		return false, err
	}
	values := map[string]interface{}{}
	if update.TokenOwner != nil {
		values["token_owner"] = *update.TokenOwner
	}
	if update.TokenUri != nil {
		values["token_uri"] = *update.TokenUri
	}
	if update.NotGetDetail != nil {
		values["not_get_detail"] = *update.NotGetDetail
	}
	if update.UpdateTime != nil {
		values["update_time"] = *update.UpdateTime
	}
	if len(values) == 0 {
		return true, nil
	}
	err = db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_id=?", chain, contract, tokenId).
		Updates(values).Error
	return true, err
}

// ChannelUpdate carries the channel fields of a registry token.
type ChannelUpdate struct {
	TokenId      string `json:"tokenId"`
	TokenUri     string `json:"tokenUri"`
	ChannelEntry string `json:"channelEntry"`
	ReceiptAddr  string `json:"receiptAddr"`
}

// UpdateTokenChannel applies a channel registry update to the channel
// token row and reports whether such a row exists.
func (db *DB) UpdateTokenChannel(chain, contract string, update *ChannelUpdate) (bool, error) {
	var count int64
	err := db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_id=?", chain, contract, update.TokenId).
		Count(&count).Error
	if err != nil || count == 0 {
		return false, err
	}
	err = db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_id=?", chain, contract, update.TokenId).
		Updates(map[string]interface{}{
			"token_uri":     update.TokenUri,
			"channel_entry": update.ChannelEntry,
			"receipt_addr":  update.ReceiptAddr,
			"not_get_detail": true,
		}).Error
	return true, err
}

// TokenDetail carries the resolved metadata of a token.
type TokenDetail struct {
	Name        string
	Description string
	Image       string
	Type        string
	Properties  string
}

// UpdateTokenDetail stores resolved metadata and clears the
// not-get-detail mark.
func (db *DB) UpdateTokenDetail(chain, contract, tokenId string, detail *TokenDetail) error {
	return db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_id=?", chain, contract, tokenId).
		Updates(map[string]interface{}{
			"name":           detail.Name,
			"description":    detail.Description,
			"image":          detail.Image,
			"type":           detail.Type,
			"properties":     detail.Properties,
			"not_get_detail": false,
		}).Error
}

// IncTokenRetryTimes counts one more failed metadata fetch.
func (db *DB) IncTokenRetryTimes(chain, contract, tokenId string) error {
	return db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_id=?", chain, contract, tokenId).
		UpdateColumn("retry_times", gorm.Expr("retry_times + 1")).Error
}

// NoDetailTokens lists tokens still waiting for metadata resolution,
// newest first.
func (db *DB) NoDetailTokens(limit int) (tokens []*model.Token, err error) {
	err = db.Where("not_get_detail=? AND token_uri<>''", true).
		Order("block_number DESC").Limit(limit).Find(&tokens).Error
	return
}

// GetToken fetches one token row by natural key.
func (db *DB) GetToken(chain, contract, tokenId string) (*model.Token, error) {
	var token model.Token
	err := db.Where("chain=? AND contract=? AND token_id=?", chain, contract, tokenId).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// UpdateUser caches a DID profile for an address.
func (db *DB) UpdateUser(user *model.User) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		UpdateAll: true,
	}).Create(user).Error
}
