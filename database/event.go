package database

import (
	"gorm.io/gorm/clause"

	"marketsync/model"
)

// The event logs are append only. Re-scanning an already stored block
// range must not duplicate rows, so every insert ignores conflicts on
// the (chain, txHash, logIndex) key.

func (db *DB) InsertTokenEvent(event *model.TokenEvent) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(event).Error
}

func (db *DB) InsertOrderEvent(event *model.OrderEvent) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(event).Error
}

func (db *DB) InsertChannelEvent(event *model.ChannelEvent) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(event).Error
}
