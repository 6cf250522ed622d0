package database

import (
	"gorm.io/gorm/clause"

	"marketsync/model"
)

// CollectionUpdate carries the collection fields a registry event may
// change. Nil fields are left untouched.
type CollectionUpdate struct {
	Owner         *string `json:"owner,omitempty"`
	Name          *string `json:"name,omitempty"`
	Symbol        *string `json:"symbol,omitempty"`
	Uri           *string `json:"uri,omitempty"`
	Is721         *bool   `json:"is721,omitempty"`
	Category      *string `json:"category,omitempty"`
	Description   *string `json:"description,omitempty"`
	Avatar        *string `json:"avatar,omitempty"`
	RoyaltyOwners *string `json:"royaltyOwners,omitempty"`
	RoyaltyFees   *string `json:"royaltyFees,omitempty"`
	Register      *bool   `json:"register,omitempty"`
	BlockNumber   *uint64 `json:"blockNumber,omitempty"`
	UpdateTime    *int64  `json:"updateTime,omitempty"`
}

// NewCollection writes a registered collection. A row already stored
// under the same (chain, token) is left untouched so a replayed
// registration cannot roll back a later info or royalty update.
func (db *DB) NewCollection(collection *model.Collection) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain"}, {Name: "token"}},
		DoNothing: true,
	}).Create(collection).Error
}

// UpdateCollection applies a registry update to the collection row
// under the natural key and reports whether such a row exists.
func (db *DB) UpdateCollection(chain, token string, update *CollectionUpdate) (bool, error) {
	var count int64
	err := db.Model(&model.Collection{}).
		Where("chain=? AND token=?", chain, token).Count(&count).Error
	if err != nil || count == 0 {
		return false, err
	}
	values := map[string]interface{}{}
	if update.Owner != nil {
		values["owner"] = *update.Owner
	}
	if update.Name != nil {
		values["name"] = *update.Name
	}
	if update.Symbol != nil {
		values["symbol"] = *update.Symbol
	}
	if update.Uri != nil {
		values["uri"] = *update.Uri
	}
	if update.Is721 != nil {
		values["is721"] = *update.Is721
	}
	if update.Category != nil {
		values["category"] = *update.Category
	}
	if update.Description != nil {
		values["description"] = *update.Description
	}
	if update.Avatar != nil {
		values["avatar"] = *update.Avatar
	}
	if update.RoyaltyOwners != nil {
		values["royalty_owners"] = *update.RoyaltyOwners
	}
	if update.RoyaltyFees != nil {
		values["royalty_fees"] = *update.RoyaltyFees
	}
	if update.Register != nil {
		values["register"] = *update.Register
	}
	if update.BlockNumber != nil {
		values["block_number"] = *update.BlockNumber
	}
	if update.UpdateTime != nil {
		values["update_time"] = *update.UpdateTime
	}
	if len(values) == 0 {
		return true, nil
	}
	err = db.Model(&model.Collection{}).
		Where("chain=? AND token=?", chain, token).Updates(values).Error
	return true, err
}

// CollectionStats carries the derived figures the statistics job
// recomputes.
type CollectionStats struct {
	Items       int64
	Owners      int64
	TradeVolume int64
	FloorPrice  string
}

func (db *DB) UpdateCollectionStats(chain, token string, stats *CollectionStats) error {
	return db.Model(&model.Collection{}).
		Where("chain=? AND token=?", chain, token).
		Updates(map[string]interface{}{
			"items":        stats.Items,
			"owners":       stats.Owners,
			"trade_volume": stats.TradeVolume,
			"floor_price":  stats.FloorPrice,
		}).Error
}

// InsertCollectionAttribute records one observed trait value, once.
func (db *DB) InsertCollectionAttribute(attribute *model.CollectionAttribute) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(attribute).Error
}

// RegisteredCollections lists the user registered collections that
// need their own scanner.
func (db *DB) RegisteredCollections() (collections []*model.Collection, err error) {
	err = db.Where("register=?", true).Find(&collections).Error
	return
}

// AllCollections lists every tracked collection.
func (db *DB) AllCollections() (collections []*model.Collection, err error) {
	err = db.Find(&collections).Error
	return
}

// GetCollection fetches one collection row by natural key.
func (db *DB) GetCollection(chain, token string) (*model.Collection, error) {
	var collection model.Collection
	err := db.Where("chain=? AND token=?", chain, token).First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// InsertTokenRates stores one batch of sampled platform token prices.
func (db *DB) InsertTokenRates(rates []*model.TokenRate) error {
	if len(rates) == 0 {
		return nil
	}
	return db.Create(rates).Error
}
