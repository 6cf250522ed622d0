package service

import (
	"fmt"

	"marketsync/database"
)

// DB is the shared read handle of the query layer, set once at startup.
var DB *database.DB

func Init(db *database.DB) {
	DB = db
}

// ErrRes interface error message returned
type ErrRes struct {
	ErrStr string `json:"err_str"` //Error message
}

// ParsePage checks paging parameters, defaulting to the first page of
// ten entries.
func ParsePage(page, size *int) (int, int, error) {
	p, s := 1, 10
	if page != nil {
		if *page <= 0 {
			return 0, 0, fmt.Errorf("page must be greater than 0")
		}
		p = *page
	}
	if size != nil {
		if *size <= 0 || *size > 100 {
			return 0, 0, fmt.Errorf("page_size must be between 1 and 100")
		}
		s = *size
	}
	return p, s, nil
}
