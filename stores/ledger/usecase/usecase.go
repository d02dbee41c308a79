package usecase

import (
	"math/big"
	"sync"
	"time"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/base/metrics"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
	"github.com/fractionxyz/goapi/domain/registry"
)

type LedgerUseCaseCfg struct {
	Repo     ledger.Repo
	Events   ledger.EventRepo
	Registry registry.Registry

	// MarketAddress is the custody address units are escrowed to while a
	// position is listed.
	MarketAddress domain.Address

	// Clock and Winner default to the system clock and the keccak mixer.
	Clock  ledger.Clock
	Winner ledger.WinnerSource
}

// impl serializes every entry point behind one mutex: transactions may be
// submitted concurrently but execute strictly one at a time, so each method
// is atomic with respect to all others. Guards run before any mutation.
type impl struct {
	mu sync.Mutex

	repo     ledger.Repo
	events   ledger.EventRepo
	registry registry.Registry
	custody  domain.Address
	clock    ledger.Clock
	winner   ledger.WinnerSource
	met      metrics.Service
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func New(cfg *LedgerUseCaseCfg) ledger.UseCase {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	winner := cfg.Winner
	if winner == nil {
		winner = NewKeccakWinnerSource()
	}
	return &impl{
		repo:     cfg.Repo,
		events:   cfg.Events,
		registry: cfg.Registry,
		custody:  cfg.MarketAddress.ToLower(),
		clock:    clock,
		winner:   winner,
		met:      metrics.New("ledger"),
	}
}

// appendEvent journals one record; journal failures are logged but never
// abort the settled call.
func (im *impl) appendEvent(c ctx.Ctx, ev *ledger.Event) {
	ev.CreatedAt = im.clock.Now()
	if err := im.events.Append(c, ev); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"type": ev.Type,
		}).Error("failed to events.Append")
	}
}

func (im *impl) guardNotRetired(c ctx.Ctx) error {
	retired, err := im.repo.Retired(c)
	if err != nil {
		return err
	}
	if retired {
		return domain.ErrAlreadyRetired
	}
	return nil
}

// creditUnits moves units out of custody into the recipient's wallet and
// folds them into the recipient's Available position.
func (im *impl) creditUnits(c ctx.Ctx, item *ledger.Item, to domain.Address, units int64) error {
	if err := im.registry.Transfer(c, im.custody, to, item.TokenId, units); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"tokenId": item.TokenId,
			"to":      to,
		}).Error("failed to registry.Transfer")
		return err
	}

	avail, err := im.repo.AvailablePosition(c, item.ItemId, to)
	if err == domain.ErrNotFound {
		_, err := im.repo.CreatePosition(c, &ledger.Position{
			ItemId: item.ItemId,
			Owner:  to,
			Amount: units,
			State:  ledger.StateAvailable,
		})
		return err
	} else if err != nil {
		return err
	}

	avail.Amount += units
	return im.repo.SavePosition(c, avail)
}

// escrowUnits reconciles the caller's wallet into their Available position,
// then moves units from it into market custody. Fails with
// ErrInsufficientAvailableUnits before any mutation if the caller's
// available quantity is too small.
func (im *impl) escrowUnits(c ctx.Ctx, caller domain.Address, item *ledger.Item, units int64) error {
	avail, _, err := im.reconcile(c, caller, item)
	if err != nil && err != domain.ErrNotFound {
		return err
	}
	if avail == nil || avail.Amount < units {
		return domain.ErrInsufficientAvailableUnits
	}

	if err := im.registry.Transfer(c, caller, im.custody, item.TokenId, units); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"tokenId": item.TokenId,
			"caller":  caller,
		}).Error("failed to registry.Transfer")
		return err
	}

	avail.Amount -= units
	if avail.Amount == 0 {
		return im.repo.RemovePosition(c, avail.PositionId)
	}
	return im.repo.SavePosition(c, avail)
}

// settle performs the royalty/fee/seller split on total and hands the sold
// units over to the buyer. royalty + fee + sellerProceeds == total exactly.
func (im *impl) settle(c ctx.Ctx, item *ledger.Item, seller, buyer domain.Address, units int64, total *big.Int, feeBps int64, state ledger.PositionState) error {
	info, err := im.registry.RoyaltyOf(c, item.TokenId, total)
	if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"tokenId": item.TokenId,
		}).Error("failed to registry.RoyaltyOf")
		return err
	}

	royalty := info.Amount
	if royalty == nil {
		royalty = new(big.Int)
	}
	fee := feeCut(new(big.Int).Sub(total, royalty), feeBps)
	proceeds := new(big.Int).Sub(total, royalty)
	proceeds.Sub(proceeds, fee)

	platformOwner, err := im.repo.PlatformOwner(c)
	if err != nil {
		return err
	}

	if royalty.Sign() > 0 && !info.Receiver.IsEmpty() {
		if err := im.repo.AddBalance(c, info.Receiver, royalty); err != nil {
			return err
		}
	}
	if err := im.repo.AddBalance(c, platformOwner, fee); err != nil {
		return err
	}
	if err := im.repo.AddBalance(c, seller, proceeds); err != nil {
		return err
	}

	if err := im.creditUnits(c, item, buyer, units); err != nil {
		return err
	}
	if err := im.repo.AppendSale(c, item.ItemId, ledger.Sale{
		Seller: seller,
		Buyer:  buyer,
		Amount: units,
		Price:  new(big.Int).Set(total),
	}); err != nil {
		return err
	}

	im.met.BumpSum("settlement.count", 1, "type", state.String())
	im.appendEvent(c, &ledger.Event{
		Type:         ledger.EventSale,
		ItemId:       item.ItemId,
		Actor:        buyer.ToLower(),
		Counterparty: seller.ToLower(),
		Amount:       units,
		Value:        total.String(),
	})
	return nil
}

// feeCut is base*bps/10000, rounded down.
func feeCut(base *big.Int, bps int64) *big.Int {
	cut := new(big.Int).Mul(base, big.NewInt(bps))
	return cut.Div(cut, big.NewInt(domain.BasisPointsDenom))
}

func (im *impl) Withdraw(c ctx.Ctx, caller domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	amount, err := im.repo.TakeBalance(c, caller)
	if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"caller": caller,
		}).Error("failed to repo.TakeBalance")
		return nil, err
	}
	if amount.Sign() > 0 {
		im.appendEvent(c, &ledger.Event{
			Type:  ledger.EventWithdrawal,
			Actor: caller.ToLower(),
			Value: amount.String(),
		})
	}
	return amount, nil
}

func (im *impl) Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.Balance(c, addr)
}

func (im *impl) GetItem(c ctx.Ctx, id domain.ItemId) (*ledger.Item, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.GetItem(c, id)
}

func (im *impl) GetPosition(c ctx.Ctx, id domain.PositionId) (*ledger.Position, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.GetPosition(c, id)
}

func (im *impl) FindItems(c ctx.Ctx, opts ...ledger.FindItemsOptionsFunc) ([]*ledger.Item, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.FindItems(c, opts...)
}

func (im *impl) CountItems(c ctx.Ctx, opts ...ledger.FindItemsOptionsFunc) (int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.CountItems(c, opts...)
}

func (im *impl) FindPositions(c ctx.Ctx, opts ...ledger.FindPositionsOptionsFunc) ([]*ledger.Position, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.FindPositions(c, opts...)
}

func (im *impl) CountPositions(c ctx.Ctx, opts ...ledger.FindPositionsOptionsFunc) (int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.CountPositions(c, opts...)
}

func (im *impl) SetMarketFee(c ctx.Ctx, caller domain.Address, state ledger.PositionState, bps int64) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardPlatformOwner(c, caller); err != nil {
		return err
	}
	if bps < 0 || bps > domain.BasisPointsDenom {
		return domain.ErrBadParamInput
	}
	return im.repo.SetMarketFee(c, state, bps)
}

func (im *impl) TransferOwnership(c ctx.Ctx, caller, newOwner domain.Address) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardPlatformOwner(c, caller); err != nil {
		return err
	}
	if newOwner.IsEmpty() {
		return domain.ErrInvalidAddress
	}
	return im.repo.SetPlatformOwner(c, newOwner)
}

func (im *impl) Retire(c ctx.Ctx, caller domain.Address) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardPlatformOwner(c, caller); err != nil {
		return err
	}
	if err := im.guardNotRetired(c); err != nil {
		return err
	}
	if err := im.repo.SetRetired(c); err != nil {
		return err
	}
	im.appendEvent(c, &ledger.Event{
		Type:  ledger.EventRetired,
		Actor: caller.ToLower(),
	})
	return nil
}

func (im *impl) PlatformOwner(c ctx.Ctx) (domain.Address, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.PlatformOwner(c)
}

func (im *impl) MarketFee(c ctx.Ctx, state ledger.PositionState) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.MarketFee(c, state)
}

func (im *impl) guardPlatformOwner(c ctx.Ctx, caller domain.Address) error {
	owner, err := im.repo.PlatformOwner(c)
	if err != nil {
		return err
	}
	if !owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	return nil
}

// Snapshot enumerates the whole arena for a migration port. Only available
// once the retired latch is set, so the snapshot cannot race new listings.
func (im *impl) Snapshot(c ctx.Ctx) (*ledger.Snapshot, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	retired, err := im.repo.Retired(c)
	if err != nil {
		return nil, err
	}
	if !retired {
		return nil, domain.ErrNotRetired
	}

	items, err := im.repo.FindItems(c)
	if err != nil {
		return nil, err
	}
	positions, err := im.repo.FindPositions(c)
	if err != nil {
		return nil, err
	}
	balances, err := im.repo.Balances(c)
	if err != nil {
		return nil, err
	}
	currentItemId, err := im.repo.CurrentItemId(c)
	if err != nil {
		return nil, err
	}
	currentPositionId, err := im.repo.CurrentPositionId(c)
	if err != nil {
		return nil, err
	}

	counts := map[ledger.PositionState]int{}
	for _, p := range positions {
		counts[p.State]++
	}

	return &ledger.Snapshot{
		CurrentItemId:     currentItemId,
		CurrentPositionId: currentPositionId,
		StateCounts:       counts,
		Items:             items,
		Positions:         positions,
		Balances:          balances,
	}, nil
}
