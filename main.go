package main

import (
	"context"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
	"marketsync/metadata"
	"marketsync/node"
	"marketsync/queue"
	"marketsync/router"
	"marketsync/scanner"
	"marketsync/service"
	"marketsync/tasks"
)

func main() {
	db, err := database.Open(conf.MysqlDsn, conf.ResetDB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	service.Init(db)

	clients := map[conf.Chain]scanner.ChainClient{}
	for chain, deploy := range conf.Deployments() {
		client, err := node.Dial(deploy.RpcUrl, deploy.WsUrl)
		if err != nil {
			log.Errorf("[%v] dial %v: %v", chain, deploy.RpcUrl, err)
			continue
		}
		clients[chain] = client
	}
	if len(clients) == 0 {
		log.Fatalf("no chain is reachable")
	}

	ctx := context.Background()
	resolver := metadata.NewResolver(conf.IpfsGateway, conf.MetadataUA, conf.MetadataMaxTry, nil)
	norm := scanner.NewNormalizer(db, clients, resolver)

	manager := scanner.NewManager(db, clients, norm)
	manager.Start(ctx)

	worker, err := queue.NewWorker(db, norm)
	if err != nil {
		log.Fatalf("start retry queue: %v", err)
	}
	go worker.Run(ctx)

	tasks.Start(ctx, db, resolver, manager)

	if err := router.Run(conf.ServerAddr); err != nil {
		log.Fatalf("server failed to run: %v", err)
	}
}
