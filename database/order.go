package database

import (
	"gorm.io/gorm/clause"

	"marketsync/model"
)

// NewOrder writes a created order. A row already stored under the same
// (chain, baseToken, orderId) is left untouched: the creation and the
// lifecycle events arrive on separate streams with separate cursors, so
// a replayed creation may trail a fill and must not rewind it.
func (db *DB) NewOrder(order *model.Order) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain"}, {Name: "base_token"}, {Name: "order_id"}},
		DoNothing: true,
	}).Create(order).Error
}

// OrderUpdate carries the order fields a lifecycle event may change.
// Nil fields are left untouched.
type OrderUpdate struct {
	OrderState *int    `json:"orderState,omitempty"`
	Price      *string `json:"price,omitempty"`
	Filled     *string `json:"filled,omitempty"`
	BuyerAddr  *string `json:"buyerAddr,omitempty"`
	Bids       *int64  `json:"bids,omitempty"`
	LastBidder *string `json:"lastBidder,omitempty"`
	LastBid    *string `json:"lastBid,omitempty"`
	UpdateTime *int64  `json:"updateTime,omitempty"`
}

// UpdateOrder applies a lifecycle update to the order row under the
// natural key and reports whether such a row exists. State changes are
// one way: a Filled or Cancelled order never goes back to Created, and
// a terminal state is never overwritten by another terminal state.
func (db *DB) UpdateOrder(chain, baseToken string, orderId uint64, update *OrderUpdate) (bool, error) {
	var order model.Order
	err := db.Where("chain=? AND base_token=? AND order_id=?", chain, baseToken, orderId).
		First(&order).Error
	if err != nil {
		if err == ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	values := map[string]interface{}{}
	if update.OrderState != nil && order.OrderState == model.OrderStateCreated {
		values["order_state"] = *update.OrderState
	}
	if update.Price != nil {
		values["price"] = *update.Price
	}
	if update.Filled != nil {
		values["filled"] = *update.Filled
	}
	if update.BuyerAddr != nil {
		values["buyer_addr"] = *update.BuyerAddr
	}
	if update.Bids != nil {
		values["bids"] = *update.Bids
	}
	if update.LastBidder != nil {
		values["last_bidder"] = *update.LastBidder
	}
	if update.LastBid != nil {
		values["last_bid"] = *update.LastBid
	}
	if update.UpdateTime != nil {
		values["update_time"] = *update.UpdateTime
	}
	if len(values) == 0 {
		return true, nil
	}
	err = db.Model(&model.Order{}).
		Where("chain=? AND base_token=? AND order_id=?", chain, baseToken, orderId).
		Updates(values).Error
	return true, err
}

// GetOrder fetches one order row by natural key.
func (db *DB) GetOrder(chain, baseToken string, orderId uint64) (*model.Order, error) {
	var order model.Order
	err := db.Where("chain=? AND base_token=? AND order_id=?", chain, baseToken, orderId).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
