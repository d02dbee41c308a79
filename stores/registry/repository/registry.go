package repository

import (
	"math/big"
	"sync"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/registry"
)

type royalty struct {
	receiver domain.Address
	bps      int64
}

// impl is the reference in-process asset registry. Token ids are monotonic,
// balances are tracked per (token, holder) pair and royalties are a fixed
// rate set at mint time.
type impl struct {
	sync.Mutex
	address     domain.Address
	nextTokenId domain.TokenId
	supplies    map[domain.TokenId]int64
	balances    map[domain.TokenId]map[domain.Address]int64
	royalties   map[domain.TokenId]royalty
}

func New(address domain.Address) registry.Registry {
	return &impl{
		address:   address.ToLower(),
		supplies:  map[domain.TokenId]int64{},
		balances:  map[domain.TokenId]map[domain.Address]int64{},
		royalties: map[domain.TokenId]royalty{},
	}
}

func (im *impl) Address(c ctx.Ctx) domain.Address {
	return im.address
}

func (im *impl) Mint(c ctx.Ctx, to domain.Address, amount int64, royaltyReceiver domain.Address, royaltyBps int64) (domain.TokenId, error) {
	if amount <= 0 || royaltyBps < 0 || royaltyBps > domain.BasisPointsDenom {
		return 0, domain.ErrBadParamInput
	}

	im.Lock()
	defer im.Unlock()

	im.nextTokenId++
	id := im.nextTokenId
	im.supplies[id] = amount
	im.balances[id] = map[domain.Address]int64{to.ToLower(): amount}
	if !royaltyReceiver.IsEmpty() && royaltyBps > 0 {
		im.royalties[id] = royalty{receiver: royaltyReceiver.ToLower(), bps: royaltyBps}
	}
	return id, nil
}

func (im *impl) BalanceOf(c ctx.Ctx, owner domain.Address, tokenId domain.TokenId) (int64, error) {
	im.Lock()
	defer im.Unlock()

	holders, ok := im.balances[tokenId]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return holders[owner.ToLower()], nil
}

func (im *impl) Transfer(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, amount int64) error {
	if amount <= 0 {
		return domain.ErrBadParamInput
	}

	im.Lock()
	defer im.Unlock()

	holders, ok := im.balances[tokenId]
	if !ok {
		return domain.ErrNotFound
	}
	if holders[from.ToLower()] < amount {
		c.WithFields(log.Fields{
			"tokenId": tokenId,
			"from":    from,
			"amount":  amount,
		}).Warn("transfer exceeds balance")
		return domain.ErrInsufficientAvailableUnits
	}

	holders[from.ToLower()] -= amount
	if holders[from.ToLower()] == 0 {
		delete(holders, from.ToLower())
	}
	holders[to.ToLower()] += amount
	return nil
}

func (im *impl) RoyaltyOf(c ctx.Ctx, tokenId domain.TokenId, saleAmount *big.Int) (*registry.RoyaltyInfo, error) {
	im.Lock()
	defer im.Unlock()

	if _, ok := im.supplies[tokenId]; !ok {
		return nil, domain.ErrNotFound
	}

	info := &registry.RoyaltyInfo{Receiver: domain.EmptyAddress, Amount: new(big.Int)}
	if r, ok := im.royalties[tokenId]; ok {
		info.Receiver = r.receiver
		info.Amount = new(big.Int).Div(
			new(big.Int).Mul(saleAmount, big.NewInt(r.bps)),
			big.NewInt(domain.BasisPointsDenom),
		)
	}
	return info, nil
}

func (im *impl) SupplyOf(c ctx.Ctx, tokenId domain.TokenId) (int64, error) {
	im.Lock()
	defer im.Unlock()

	supply, ok := im.supplies[tokenId]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return supply, nil
}
