package model

import "gorm.io/gorm"

var Tables = []interface{}{
	&Token{},
	&User{},
	&Order{},
	&TokenEvent{},
	&OrderEvent{},
	&ChannelEvent{},
	&Collection{},
	&CollectionAttribute{},
	&TokenRate{},
	&SyncCursor{},
	&RetryJob{},
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Tables...)
}

func DropTable(db *gorm.DB) error {
	return db.Migrator().DropTable(Tables...)
}
