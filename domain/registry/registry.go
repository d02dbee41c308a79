// Package registry declares the capability interface of the external asset
// registry. The marketplace only ever consumes it: balance queries, unit
// transfers, royalty lookups and supply queries. Minting is included because
// the composite mint-and-list entry points delegate token creation to it.
package registry

import (
	"math/big"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
)

// RoyaltyInfo is the receiver and amount owed for a sale of the given total.
type RoyaltyInfo struct {
	Receiver domain.Address
	Amount   *big.Int
}

type Registry interface {
	// Address is the registry's own contract address, recorded on items.
	Address(c ctx.Ctx) domain.Address

	Mint(c ctx.Ctx, to domain.Address, amount int64, royaltyReceiver domain.Address, royaltyBps int64) (domain.TokenId, error)
	BalanceOf(c ctx.Ctx, owner domain.Address, tokenId domain.TokenId) (int64, error)
	Transfer(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, amount int64) error
	RoyaltyOf(c ctx.Ctx, tokenId domain.TokenId, saleAmount *big.Int) (*RoyaltyInfo, error)
	SupplyOf(c ctx.Ctx, tokenId domain.TokenId) (int64, error)
}
