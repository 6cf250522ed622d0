package tasks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
	"marketsync/model"
)

// native coin ids on the price API, per chain
var coinIds = map[conf.Chain]string{
	conf.ChainELA: "elastos",
	conf.ChainETH: "ethereum",
	conf.ChainFSN: "fsn",
}

var rateClient = &http.Client{Timeout: 30 * time.Second}

// sampleTokenRates records one USD price point per tracked native
// coin. The native coin is stored under the burn address, the same
// sentinel the orders use for native coin quotes.
func sampleTokenRates(db *database.DB) {
	prices, err := fetchPrices()
	if err != nil {
		log.Warnf("fetch coin prices: %v", err)
		return
	}
	now := time.Now().Unix()
	var rates []*model.TokenRate
	for chain := range conf.Deployments() {
		price, ok := prices[coinIds[chain]]
		if !ok {
			continue
		}
		rates = append(rates, &model.TokenRate{
			Chain:     string(chain),
			Token:     conf.BurnAddress,
			Rate:      1,
			Price:     price["usd"],
			Timestamp: now,
		})
	}
	if err := db.InsertTokenRates(rates); err != nil {
		log.Errorf("store coin prices: %v", err)
	}
}

func fetchPrices() (map[string]map[string]float64, error) {
	url := conf.PriceApi + "?ids=elastos,ethereum,fsn&vs_currencies=usd"
	resp, err := rateClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price api status %v", resp.StatusCode)
	}
	prices := map[string]map[string]float64{}
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, err
	}
	return prices, nil
}
