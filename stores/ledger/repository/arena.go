package repository

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

// ArenaCfg seeds the arena's admin state.
type ArenaCfg struct {
	PlatformOwner domain.Address
	// Fees is the initial market fee table in basis points, keyed by listing
	// state. Missing states default to zero.
	Fees map[ledger.PositionState]int64
}

// arena is the in-memory ledger store. Items and positions live in maps
// keyed by monotonic integer ids; by-item, by-owner and by-state secondary
// indices are updated inside every mutation, never recomputed per query.
// The arena is not safe for concurrent use on its own.
type arena struct {
	nextItemId     domain.ItemId
	nextPositionId domain.PositionId

	items       map[domain.ItemId]*ledger.Item
	itemByToken map[string]domain.ItemId

	positions map[domain.PositionId]*ledger.Position
	byItem    map[domain.ItemId]map[domain.PositionId]struct{}
	byOwner   map[domain.Address]map[domain.PositionId]struct{}
	byState   map[ledger.PositionState]map[domain.PositionId]struct{}
	available map[string]domain.PositionId

	balances map[domain.Address]*big.Int

	platformOwner domain.Address
	fees          map[ledger.PositionState]int64
	retired       bool
}

func NewArena(cfg *ArenaCfg) ledger.Repo {
	fees := map[ledger.PositionState]int64{}
	for _, state := range ledger.ListingStates {
		fees[state] = cfg.Fees[state]
	}
	return &arena{
		items:         map[domain.ItemId]*ledger.Item{},
		itemByToken:   map[string]domain.ItemId{},
		positions:     map[domain.PositionId]*ledger.Position{},
		byItem:        map[domain.ItemId]map[domain.PositionId]struct{}{},
		byOwner:       map[domain.Address]map[domain.PositionId]struct{}{},
		byState:       map[ledger.PositionState]map[domain.PositionId]struct{}{},
		available:     map[string]domain.PositionId{},
		balances:      map[domain.Address]*big.Int{},
		platformOwner: cfg.PlatformOwner.ToLower(),
		fees:          fees,
	}
}

func tokenKey(assetContract domain.Address, tokenId domain.TokenId) string {
	return fmt.Sprintf("%s:%d", assetContract.ToLowerStr(), tokenId)
}

func availableKey(itemId domain.ItemId, owner domain.Address) string {
	return fmt.Sprintf("%d:%s", itemId, owner.ToLowerStr())
}

func (a *arena) CreateItem(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId, creator domain.Address) (*ledger.Item, error) {
	key := tokenKey(assetContract, tokenId)
	if _, ok := a.itemByToken[key]; ok {
		return nil, domain.ErrDuplicateItem
	}

	a.nextItemId++
	item := &ledger.Item{
		ItemId:        a.nextItemId,
		AssetContract: assetContract.ToLower(),
		TokenId:       tokenId,
		Creator:       creator.ToLower(),
	}
	a.items[item.ItemId] = item
	a.itemByToken[key] = item.ItemId
	a.byItem[item.ItemId] = map[domain.PositionId]struct{}{}
	return item.Copy(), nil
}

func (a *arena) GetItem(c ctx.Ctx, id domain.ItemId) (*ledger.Item, error) {
	item, ok := a.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Copy(), nil
}

func (a *arena) GetItemByToken(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId) (*ledger.Item, error) {
	id, ok := a.itemByToken[tokenKey(assetContract, tokenId)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.items[id].Copy(), nil
}

func (a *arena) AppendSale(c ctx.Ctx, id domain.ItemId, sale ledger.Sale) error {
	item, ok := a.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	sale.Seller = sale.Seller.ToLower()
	sale.Buyer = sale.Buyer.ToLower()
	item.Sales = append(item.Sales, sale)
	return nil
}

func (a *arena) matchItemIds(opts ledger.FindItemsOptions) []domain.ItemId {
	ids := make([]domain.ItemId, 0, len(a.items))
	for id, item := range a.items {
		if opts.Creator != nil && !item.Creator.Equals(*opts.Creator) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if opts.SortDir != nil && *opts.SortDir == domain.SortDirDesc {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	return ids
}

func (a *arena) FindItems(c ctx.Ctx, opts ...ledger.FindItemsOptionsFunc) ([]*ledger.Item, error) {
	o, err := ledger.GetFindItemsOptions(opts...)
	if err != nil {
		return nil, err
	}

	ids := a.matchItemIds(o)
	ids = paginateItemIds(ids, o.Offset, o.Limit)

	res := make([]*ledger.Item, 0, len(ids))
	for _, id := range ids {
		res = append(res, a.items[id].Copy())
	}
	return res, nil
}

func (a *arena) CountItems(c ctx.Ctx, opts ...ledger.FindItemsOptionsFunc) (int, error) {
	o, err := ledger.GetFindItemsOptions(opts...)
	if err != nil {
		return 0, err
	}
	return len(a.matchItemIds(o)), nil
}

func (a *arena) CurrentItemId(c ctx.Ctx) (domain.ItemId, error) {
	return a.nextItemId, nil
}

func (a *arena) CreatePosition(c ctx.Ctx, p *ledger.Position) (*ledger.Position, error) {
	if _, ok := a.items[p.ItemId]; !ok {
		return nil, domain.ErrNotFound
	}

	a.nextPositionId++
	cp := p.Copy()
	cp.PositionId = a.nextPositionId
	cp.Owner = p.Owner.ToLower()
	a.positions[cp.PositionId] = cp
	a.index(cp)
	a.items[cp.ItemId].PositionCount++

	return cp.Copy(), nil
}

func (a *arena) GetPosition(c ctx.Ctx, id domain.PositionId) (*ledger.Position, error) {
	p, ok := a.positions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Copy(), nil
}

func (a *arena) SavePosition(c ctx.Ctx, p *ledger.Position) error {
	prev, ok := a.positions[p.PositionId]
	if !ok {
		return domain.ErrNotFound
	}
	a.unindex(prev)
	cp := p.Copy()
	cp.Owner = p.Owner.ToLower()
	a.positions[cp.PositionId] = cp
	a.index(cp)
	return nil
}

func (a *arena) RemovePosition(c ctx.Ctx, id domain.PositionId) error {
	p, ok := a.positions[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.unindex(p)
	delete(a.positions, id)
	return nil
}

func (a *arena) AvailablePosition(c ctx.Ctx, itemId domain.ItemId, owner domain.Address) (*ledger.Position, error) {
	id, ok := a.available[availableKey(itemId, owner)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.positions[id].Copy(), nil
}

func (a *arena) index(p *ledger.Position) {
	if a.byItem[p.ItemId] == nil {
		a.byItem[p.ItemId] = map[domain.PositionId]struct{}{}
	}
	a.byItem[p.ItemId][p.PositionId] = struct{}{}

	if a.byOwner[p.Owner] == nil {
		a.byOwner[p.Owner] = map[domain.PositionId]struct{}{}
	}
	a.byOwner[p.Owner][p.PositionId] = struct{}{}

	if a.byState[p.State] == nil {
		a.byState[p.State] = map[domain.PositionId]struct{}{}
	}
	a.byState[p.State][p.PositionId] = struct{}{}

	if p.State == ledger.StateAvailable {
		a.available[availableKey(p.ItemId, p.Owner)] = p.PositionId
	}
}

func (a *arena) unindex(p *ledger.Position) {
	delete(a.byItem[p.ItemId], p.PositionId)
	delete(a.byOwner[p.Owner], p.PositionId)
	delete(a.byState[p.State], p.PositionId)
	if p.State == ledger.StateAvailable {
		delete(a.available, availableKey(p.ItemId, p.Owner))
	}
}

// matchPositionIds intersects the query against the narrowest index first.
func (a *arena) matchPositionIds(opts ledger.FindPositionsOptions) []domain.PositionId {
	var candidates map[domain.PositionId]struct{}
	switch {
	case opts.ItemId != nil:
		candidates = a.byItem[*opts.ItemId]
	case opts.Owner != nil:
		candidates = a.byOwner[*opts.Owner]
	case opts.State != nil:
		candidates = a.byState[*opts.State]
	}

	ids := make([]domain.PositionId, 0, len(a.positions))
	if candidates != nil {
		for id := range candidates {
			if a.positionMatches(a.positions[id], opts) {
				ids = append(ids, id)
			}
		}
	} else {
		for id, p := range a.positions {
			if a.positionMatches(p, opts) {
				ids = append(ids, id)
			}
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if opts.SortDir != nil && *opts.SortDir == domain.SortDirDesc {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	return ids
}

func (a *arena) positionMatches(p *ledger.Position, opts ledger.FindPositionsOptions) bool {
	if opts.ItemId != nil && p.ItemId != *opts.ItemId {
		return false
	}
	if opts.Owner != nil && !p.Owner.Equals(*opts.Owner) {
		return false
	}
	if opts.State != nil && p.State != *opts.State {
		return false
	}
	return true
}

func (a *arena) FindPositions(c ctx.Ctx, opts ...ledger.FindPositionsOptionsFunc) ([]*ledger.Position, error) {
	o, err := ledger.GetFindPositionsOptions(opts...)
	if err != nil {
		return nil, err
	}

	ids := a.matchPositionIds(o)
	ids = paginatePositionIds(ids, o.Offset, o.Limit)

	res := make([]*ledger.Position, 0, len(ids))
	for _, id := range ids {
		res = append(res, a.positions[id].Copy())
	}
	return res, nil
}

func (a *arena) CountPositions(c ctx.Ctx, opts ...ledger.FindPositionsOptionsFunc) (int, error) {
	o, err := ledger.GetFindPositionsOptions(opts...)
	if err != nil {
		return 0, err
	}
	return len(a.matchPositionIds(o)), nil
}

func (a *arena) CurrentPositionId(c ctx.Ctx) (domain.PositionId, error) {
	return a.nextPositionId, nil
}

func (a *arena) Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	if b, ok := a.balances[addr.ToLower()]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (a *arena) AddBalance(c ctx.Ctx, addr domain.Address, delta *big.Int) error {
	if delta.Sign() == 0 {
		return nil
	}
	key := addr.ToLower()
	if _, ok := a.balances[key]; !ok {
		a.balances[key] = new(big.Int)
	}
	a.balances[key].Add(a.balances[key], delta)
	return nil
}

func (a *arena) TakeBalance(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	key := addr.ToLower()
	b, ok := a.balances[key]
	if !ok {
		return new(big.Int), nil
	}
	delete(a.balances, key)
	return b, nil
}

func (a *arena) Balances(c ctx.Ctx) (map[domain.Address]*big.Int, error) {
	res := make(map[domain.Address]*big.Int, len(a.balances))
	for addr, b := range a.balances {
		res[addr] = new(big.Int).Set(b)
	}
	return res, nil
}

func (a *arena) PlatformOwner(c ctx.Ctx) (domain.Address, error) {
	return a.platformOwner, nil
}

func (a *arena) SetPlatformOwner(c ctx.Ctx, addr domain.Address) error {
	a.platformOwner = addr.ToLower()
	return nil
}

func (a *arena) MarketFee(c ctx.Ctx, state ledger.PositionState) (int64, error) {
	bps, ok := a.fees[state]
	if !ok {
		return 0, domain.ErrBadParamInput
	}
	return bps, nil
}

func (a *arena) SetMarketFee(c ctx.Ctx, state ledger.PositionState, bps int64) error {
	if _, ok := a.fees[state]; !ok {
		return domain.ErrBadParamInput
	}
	a.fees[state] = bps
	return nil
}

func (a *arena) Retired(c ctx.Ctx) (bool, error) {
	return a.retired, nil
}

func (a *arena) SetRetired(c ctx.Ctx) error {
	a.retired = true
	return nil
}

func paginateItemIds(ids []domain.ItemId, offset, limit *int) []domain.ItemId {
	if offset == nil || limit == nil {
		return ids
	}
	if *offset >= len(ids) {
		return nil
	}
	end := *offset + *limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[*offset:end]
}

func paginatePositionIds(ids []domain.PositionId, offset, limit *int) []domain.PositionId {
	if offset == nil || limit == nil {
		return ids
	}
	if *offset >= len(ids) {
		return nil
	}
	end := *offset + *limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[*offset:end]
}
