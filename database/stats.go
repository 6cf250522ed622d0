package database

import (
	"marketsync/model"
)

// ComputeCollectionStats derives the aggregate figures of one
// collection from the token and order tables. Burned tokens, held by
// the burn address, are excluded from the counts.
func (db *DB) ComputeCollectionStats(chain, token, burnAddress string) (*CollectionStats, error) {
	stats := CollectionStats{}
	err := db.Model(&model.Token{}).
		Where("chain=? AND contract=? AND token_owner<>?", chain, token, burnAddress).
		Count(&stats.Items).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&model.Token{}).Distinct("token_owner").
		Where("chain=? AND contract=? AND token_owner<>?", chain, token, burnAddress).
		Count(&stats.Owners).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&model.Order{}).
		Where("chain=? AND base_token=? AND order_state=?", chain, token, model.OrderStateFilled).
		Count(&stats.TradeVolume).Error
	if err != nil {
		return nil, err
	}
	var open model.Order
	err = db.Where("chain=? AND base_token=? AND order_state=?", chain, token, model.OrderStateCreated).
		Order("CAST(price AS DECIMAL(65,0))").First(&open).Error
	if err != nil && err != ErrRecordNotFound {
		return nil, err
	}
	stats.FloorPrice = open.Price
	return &stats, nil
}
