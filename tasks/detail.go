package tasks

import (
	"encoding/json"
	"fmt"

	"marketsync/database"
	"marketsync/log"
	"marketsync/metadata"
	"marketsync/model"
)

// one filler pass resolves at most this many tokens
const detailBatch = 100

// fillTokenDetails resolves the metadata of tokens still carrying the
// not-get-detail mark, newest mints first. A failed fetch bumps the
// token's retry counter, which also unlocks the gateway fallback route
// inside the resolver.
func fillTokenDetails(db *database.DB, resolver *metadata.Resolver) {
	tokens, err := db.NoDetailTokens(detailBatch)
	if err != nil {
		log.Errorf("list undetailed tokens: %v", err)
		return
	}
	for _, token := range tokens {
		if err := fillOne(db, resolver, token); err != nil {
			log.Debugf("[%v/%v] token %v detail: %v", token.Chain, token.Contract, token.TokenId, err)
			if err := db.IncTokenRetryTimes(token.Chain, token.Contract, token.TokenId); err != nil {
				log.Errorf("[%v/%v] token %v retry count: %v", token.Chain, token.Contract, token.TokenId, err)
			}
		}
	}
}

func fillOne(db *database.DB, resolver *metadata.Resolver, token *model.Token) error {
	info, err := resolver.TokenInfo(token.TokenUri, token.RetryTimes)
	if err != nil {
		return err
	}
	properties := ""
	if len(info.Properties) > 0 {
		raw, err := json.Marshal(info.Properties)
		if err != nil {
			return fmt.Errorf("bad properties: %v", err)
		}
		properties = string(raw)
	}
	detail := database.TokenDetail{
		Name:        info.Name,
		Description: info.Description,
		Image:       info.Image,
		Type:        info.Type,
		Properties:  properties,
	}
	if detail.Type == "" {
		detail.Type = "image"
	}
	if err := db.UpdateTokenDetail(token.Chain, token.Contract, token.TokenId, &detail); err != nil {
		return err
	}
	for _, attribute := range info.Attributes {
		err := db.InsertCollectionAttribute(&model.CollectionAttribute{
			Chain:     token.Chain,
			Contract:  token.Contract,
			TraitType: attribute.TraitType,
			Value:     attribute.Value,
		})
		if err != nil {
			log.Warnf("[%v/%v] attribute %v: %v", token.Chain, token.Contract, attribute.TraitType, err)
		}
	}
	if info.Creator != nil && info.Creator.Did != "" {
		err := db.UpdateUser(&model.User{
			Address:     token.RoyaltyOwner,
			Did:         info.Creator.Did,
			Name:        info.Creator.Name,
			Description: info.Creator.Description,
		})
		if err != nil {
			log.Warnf("[%v/%v] creator profile: %v", token.Chain, token.Contract, err)
		}
	}
	return nil
}
