package service

import (
	"marketsync/model"
)

// CollectionsRes collection paging return parameters
type CollectionsRes struct {
	Total       int64               `json:"total"`       //total number of collections under the filter
	Collections []*model.Collection `json:"collections"` //collection list, newest first
}

func FetchCollections(chain, owner string, page, size int) (res CollectionsRes, err error) {
	db := DB.Model(&model.Collection{})
	if chain != "" {
		db = db.Where("chain=?", chain)
	}
	if owner != "" {
		db = db.Where("owner=?", owner)
	}
	if err = db.Count(&res.Total).Error; err != nil {
		return
	}
	err = db.Order("block_number DESC").Offset((page - 1) * size).Limit(size).Find(&res.Collections).Error
	return
}

func GetCollection(chain, token string) (*model.Collection, error) {
	return DB.GetCollection(chain, token)
}

// CollectionAttributesRes lists the observed trait values of one
// collection.
type CollectionAttributesRes struct {
	Attributes []*model.CollectionAttribute `json:"attributes"`
}

func FetchCollectionAttributes(chain, contract string) (res CollectionAttributesRes, err error) {
	err = DB.Where("chain=? AND contract=?", chain, contract).
		Order("trait_type, value").Find(&res.Attributes).Error
	return
}
