package ledger

import (
	"math/big"

	"github.com/fractionxyz/goapi/domain"
)

// Sale is one settled trade of an item's units. Sales are append-only.
type Sale struct {
	Seller domain.Address `json:"seller" bson:"seller"`
	Buyer  domain.Address `json:"buyer" bson:"buyer"`
	Amount int64          `json:"amount" bson:"amount"`
	Price  *big.Int       `json:"price" bson:"-"`
}

// Item is the marketplace's record of one minted asset line and its
// aggregate sale history.
type Item struct {
	ItemId        domain.ItemId  `json:"itemId"`
	AssetContract domain.Address `json:"assetContract"`
	TokenId       domain.TokenId `json:"tokenId"`
	Creator       domain.Address `json:"creator"`
	PositionCount int64          `json:"positionCount"`
	Sales         []Sale         `json:"sales"`
}

func (it *Item) Copy() *Item {
	cp := *it
	cp.Sales = make([]Sale, len(it.Sales))
	copy(cp.Sales, it.Sales)
	return &cp
}
