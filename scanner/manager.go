package scanner

import (
	"context"
	"strings"
	"sync"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
)

// Manager owns one scanner goroutine per tracked event stream. The
// platform contract streams are fixed by the deployment table; user
// registered collections get transfer streams of their own, picked up
// at startup and again whenever Refresh runs.
type Manager struct {
	db      *database.DB
	clients map[conf.Chain]ChainClient
	norm    *Normalizer

	mutex   sync.Mutex
	running map[string]bool
	wg      sync.WaitGroup
}

func NewManager(db *database.DB, clients map[conf.Chain]ChainClient, norm *Normalizer) *Manager {
	return &Manager{
		db:      db,
		clients: clients,
		norm:    norm,
		running: map[string]bool{},
	}
}

// Start spawns the platform contract streams and the streams of the
// collections already registered.
func (m *Manager) Start(ctx context.Context) {
	for chain, deploy := range conf.Deployments() {
		if _, ok := m.clients[chain]; !ok {
			continue
		}
		for _, stream := range deploymentStreams(chain, deploy) {
			m.spawn(ctx, stream)
		}
	}
	m.Refresh(ctx)
}

// Refresh spawns streams for registered collections that appeared
// since the last pass. Already running streams are left alone.
func (m *Manager) Refresh(ctx context.Context) {
	collections, err := m.db.RegisteredCollections()
	if err != nil {
		log.Errorf("list registered collections: %v", err)
		return
	}
	for _, collection := range collections {
		chain := conf.Chain(collection.Chain)
		deploy := conf.Deployments()[chain]
		if deploy == nil {
			continue
		}
		if _, ok := m.clients[chain]; !ok {
			continue
		}
		if conf.IsBaseCollection(collection.Token, chain) {
			continue
		}
		kind := KindTransferSingle
		if collection.Is721 {
			kind = KindTransfer
		}
		m.spawn(ctx, Stream{
			Chain:        chain,
			Contract:     collection.Token,
			Kind:         kind,
			Market:       deploy.MarketContract,
			DeployHeight: collection.BlockNumber,
			Step:         conf.TokenStep,
			StepInterval: conf.TokenStepInterval,
		})
	}
}

// Wait blocks until every scanner goroutine has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) spawn(ctx context.Context, stream Stream) {
	key := string(stream.Chain) + "/" + strings.ToLower(stream.Contract) + "/" + string(stream.Kind)
	m.mutex.Lock()
	if m.running[key] {
		m.mutex.Unlock()
		return
	}
	m.running[key] = true
	m.mutex.Unlock()

	scanner := NewScanner(m.clients[stream.Chain], m.db, m.norm, stream)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		scanner.Run(ctx)
		m.mutex.Lock()
		delete(m.running, key)
		m.mutex.Unlock()
	}()
}

// deploymentStreams lists the fixed streams of one chain deployment.
func deploymentStreams(chain conf.Chain, deploy *conf.Deployment) []Stream {
	var streams []Stream
	if deploy.StickerContract != "" {
		streams = append(streams, Stream{
			Chain:        chain,
			Contract:     deploy.StickerContract,
			Kind:         KindTransferSingle,
			Market:       deploy.MarketContract,
			DeployHeight: deploy.StickerDeploy,
			Step:         conf.TokenStep,
			StepInterval: conf.TokenStepInterval,
		})
	}
	for _, kind := range OrderKinds {
		streams = append(streams, Stream{
			Chain:        chain,
			Contract:     deploy.MarketContract,
			Kind:         kind,
			Market:       deploy.MarketContract,
			DeployHeight: deploy.MarketDeploy,
			Step:         conf.TokenStep,
			StepInterval: conf.TokenStepInterval,
		})
	}
	for _, kind := range RegistryKinds {
		streams = append(streams, Stream{
			Chain:        chain,
			Contract:     deploy.RegisterContract,
			Kind:         kind,
			Market:       deploy.MarketContract,
			DeployHeight: deploy.RegisterDeploy,
			Step:         conf.RegistryStep,
			StepInterval: conf.RegistryInterval,
		})
	}
	if deploy.ChannelContract != "" {
		for _, kind := range ChannelKinds {
			streams = append(streams, Stream{
				Chain:        chain,
				Contract:     deploy.ChannelContract,
				Kind:         kind,
				Market:       deploy.MarketContract,
				DeployHeight: deploy.ChannelDeploy,
				Step:         conf.RegistryStep,
				StepInterval: conf.RegistryInterval,
			})
		}
	}
	return streams
}
