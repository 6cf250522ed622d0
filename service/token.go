package service

import (
	"marketsync/model"
)

// TokensRes token paging return parameters
type TokensRes struct {
	Total  int64          `json:"total"`  //total number of tokens under the filter
	Tokens []*model.Token `json:"tokens"` //token list
}

func FetchTokens(chain, contract, owner string, page, size int) (res TokensRes, err error) {
	db := DB.Model(&model.Token{})
	if chain != "" {
		db = db.Where("chain=?", chain)
	}
	if contract != "" {
		db = db.Where("contract=?", contract)
	}
	if owner != "" {
		db = db.Where("token_owner=?", owner)
	}
	if err = db.Count(&res.Total).Error; err != nil {
		return
	}
	err = db.Order("create_time DESC").Offset((page - 1) * size).Limit(size).Find(&res.Tokens).Error
	return
}

func GetToken(chain, contract, tokenId string) (*model.Token, error) {
	return DB.GetToken(chain, contract, tokenId)
}

// TokenEventsRes token event paging return parameters
type TokenEventsRes struct {
	Total  int64               `json:"total"`  //total number of events under the filter
	Events []*model.TokenEvent `json:"events"` //event list, newest first
}

func FetchTokenEvents(chain, contract, tokenId string, page, size int) (res TokenEventsRes, err error) {
	db := DB.Model(&model.TokenEvent{})
	if chain != "" {
		db = db.Where("chain=?", chain)
	}
	if contract != "" {
		db = db.Where("contract=?", contract)
	}
	if tokenId != "" {
		db = db.Where("token_id=?", tokenId)
	}
	if err = db.Count(&res.Total).Error; err != nil {
		return
	}
	err = db.Order("block_number DESC, log_index DESC").Offset((page - 1) * size).Limit(size).Find(&res.Events).Error
	return
}
