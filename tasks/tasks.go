package tasks

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
	"marketsync/metadata"
	"marketsync/scanner"
)

// Start schedules the periodic jobs: metadata detail filling,
// collection statistics, platform token price sampling and the pickup
// of freshly registered collections. The returned scheduler is already
// running.
func Start(ctx context.Context, db *database.DB, resolver *metadata.Resolver, manager *scanner.Manager) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.Every(1).Minute().Do(func() {
		fillTokenDetails(db, resolver)
	})
	s.Every(10).Minutes().Do(func() {
		updateCollectionStats(db)
	})
	s.Every(10).Minutes().Do(func() {
		sampleTokenRates(db)
	})
	s.Every(5).Minutes().Do(func() {
		manager.Refresh(ctx)
	})
	s.StartAsync()
	return s
}

func updateCollectionStats(db *database.DB) {
	collections, err := db.AllCollections()
	if err != nil {
		log.Errorf("list collections: %v", err)
		return
	}
	for _, collection := range collections {
		stats, err := db.ComputeCollectionStats(collection.Chain, collection.Token, conf.BurnAddress)
		if err != nil {
			log.Warnf("[%v/%v] compute stats: %v", collection.Chain, collection.Token, err)
			continue
		}
		if err := db.UpdateCollectionStats(collection.Chain, collection.Token, stats); err != nil {
			log.Warnf("[%v/%v] store stats: %v", collection.Chain, collection.Token, err)
		}
	}
}
