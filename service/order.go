package service

import (
	"marketsync/model"
)

// OrdersRes order paging return parameters
type OrdersRes struct {
	Total  int64          `json:"total"`  //total number of orders under the filter
	Orders []*model.Order `json:"orders"` //order list, newest first
}

func FetchOrders(chain, baseToken, seller string, state int, page, size int) (res OrdersRes, err error) {
	db := DB.Model(&model.Order{})
	if chain != "" {
		db = db.Where("chain=?", chain)
	}
	if baseToken != "" {
		db = db.Where("base_token=?", baseToken)
	}
	if seller != "" {
		db = db.Where("seller_addr=?", seller)
	}
	if state != 0 {
		db = db.Where("order_state=?", state)
	}
	if err = db.Count(&res.Total).Error; err != nil {
		return
	}
	err = db.Order("create_time DESC").Offset((page - 1) * size).Limit(size).Find(&res.Orders).Error
	return
}

func GetOrder(chain, baseToken string, orderId uint64) (*model.Order, error) {
	return DB.GetOrder(chain, baseToken, orderId)
}

// OrderEventsRes order event paging return parameters
type OrderEventsRes struct {
	Total  int64               `json:"total"`  //total number of events under the filter
	Events []*model.OrderEvent `json:"events"` //event list, newest first
}

func FetchOrderEvents(chain string, orderId uint64, page, size int) (res OrderEventsRes, err error) {
	db := DB.Model(&model.OrderEvent{})
	if chain != "" {
		db = db.Where("chain=?", chain)
	}
	if orderId != 0 {
		db = db.Where("order_id=?", orderId)
	}
	if err = db.Count(&res.Total).Error; err != nil {
		return
	}
	err = db.Order("block_number DESC, log_index DESC").Offset((page - 1) * size).Limit(size).Find(&res.Events).Error
	return
}
