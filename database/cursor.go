package database

import (
	"gorm.io/gorm/clause"

	"marketsync/model"
)

// CursorHeight reads the last processed height of a stream, or the
// given default when the stream has never been scanned.
func (db *DB) CursorHeight(chain, contract, eventKind string, def uint64) (uint64, error) {
	var cursor model.SyncCursor
	err := db.Where("chain=? AND contract=? AND event_kind=?", chain, contract, eventKind).
		First(&cursor).Error
	if err != nil {
		if err == ErrRecordNotFound {
			return def, nil
		}
		return 0, err
	}
	return cursor.LastHeight, nil
}

// AdvanceCursor persists a new last processed height. The cursor only
// moves forward: a smaller height than the stored one is ignored, so
// replays after a crash can never rewind a stream.
func (db *DB) AdvanceCursor(chain, contract, eventKind string, height uint64) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain"}, {Name: "contract"}, {Name: "event_kind"}},
		DoNothing: true,
	}).Create(&model.SyncCursor{
		Chain:      chain,
		Contract:   contract,
		EventKind:  eventKind,
		LastHeight: height,
	}).Error
	if err != nil {
		return err
	}
	return db.Model(&model.SyncCursor{}).
		Where("chain=? AND contract=? AND event_kind=? AND last_height<?", chain, contract, eventKind, height).
		Update("last_height", height).Error
}

// Cursors lists every tracked stream cursor.
func (db *DB) Cursors() (cursors []*model.SyncCursor, err error) {
	err = db.Find(&cursors).Error
	return
}
