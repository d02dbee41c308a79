package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
	"github.com/fractionxyz/goapi/domain/registry"
	ledgerRepo "github.com/fractionxyz/goapi/stores/ledger/repository"
	registryRepo "github.com/fractionxyz/goapi/stores/registry/repository"
)

const (
	platformOwner = domain.Address("0xp1a7f0rm")
	marketAddress = domain.Address("0xmarke7")
	alice         = domain.Address("0xa11ce")
	bob           = domain.Address("0xb0b")
	carol         = domain.Address("0xcaro1")
	royaltyAddr   = domain.Address("0xr0ya17y")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// fakeClock is advanced manually; deadlines are lazy guards so nothing
// observes time between calls.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// seqWinner returns preloaded points in order, falling back to zero.
type seqWinner struct {
	points []*big.Int
	idx    int
}

func (s *seqWinner) Pick(c ctx.Ctx, total *big.Int, seed []byte) *big.Int {
	if s.idx >= len(s.points) {
		return new(big.Int)
	}
	p := s.points[s.idx]
	s.idx++
	return new(big.Int).Mod(p, total)
}

type ledgerSuite struct {
	suite.Suite

	c        ctx.Ctx
	clock    *fakeClock
	winner   *seqWinner
	repo     ledger.Repo
	events   ledger.EventRepo
	registry registry.Registry
	im       ledger.UseCase
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(ledgerSuite))
}

func (s *ledgerSuite) SetupTest() {
	s.c = ctx.Background()
	s.clock = &fakeClock{now: time.Unix(1700000000, 0)}
	s.winner = &seqWinner{}
	s.repo = ledgerRepo.NewArena(&ledgerRepo.ArenaCfg{
		PlatformOwner: platformOwner,
		Fees: map[ledger.PositionState]int64{
			ledger.StateRegularSale: 250,
			ledger.StateAuction:     250,
			ledger.StateRaffle:      250,
			ledger.StateLoan:        250,
		},
	})
	s.events = ledgerRepo.NewInmemEventRepo()
	s.registry = registryRepo.New("0xreg1s7ry")
	s.im = New(&LedgerUseCaseCfg{
		Repo:          s.repo,
		Events:        s.events,
		Registry:      s.registry,
		MarketAddress: marketAddress,
		Clock:         s.clock,
		Winner:        s.winner,
	})
}

// mint mints amount units to owner with a 10% royalty to royaltyAddr and
// returns the item id.
func (s *ledgerSuite) mint(owner domain.Address, amount int64) domain.ItemId {
	res, err := s.im.MintAndList(s.c, owner, ledger.MintAndListPayload{
		Amount:          amount,
		RoyaltyReceiver: royaltyAddr,
		RoyaltyBps:      1000,
		Kind:            ledger.ListNone,
	})
	s.Require().NoError(err)
	return res.ItemId
}

func (s *ledgerSuite) balance(addr domain.Address) *big.Int {
	b, err := s.im.Balance(s.c, addr)
	s.Require().NoError(err)
	return b
}

func (s *ledgerSuite) TestMintAndListEmitsItemThenPosition() {
	res, err := s.im.MintAndList(s.c, alice, ledger.MintAndListPayload{
		Amount:          10,
		RoyaltyReceiver: royaltyAddr,
		RoyaltyBps:      1000,
		Kind:            ledger.ListRegularSale,
		UnitPrice:       e18(1),
	})
	s.Require().NoError(err)
	s.Equal(domain.ItemId(1), res.ItemId)
	s.NotZero(res.PositionId)

	evs, err := s.events.FindAll(s.c, ledger.EventWithItemId(res.ItemId))
	s.Require().NoError(err)
	s.Require().Len(evs, 2)
	s.Equal(ledger.EventItemRegistered, evs[0].Type)
	s.Equal(ledger.EventListed, evs[1].Type)
	s.Equal(res.PositionId, evs[1].PositionId)

	p, err := s.im.GetPosition(s.c, res.PositionId)
	s.Require().NoError(err)
	s.Equal(ledger.StateRegularSale, p.State)
	s.Equal(int64(10), p.Amount)
	s.Equal(int64(250), p.MarketFeeBps)
}

func (s *ledgerSuite) TestEndToEndSaleSplit() {
	itemId := s.mint(alice, 1)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 1, e18(50))
	s.Require().NoError(err)

	s.Require().NoError(s.im.Buy(s.c, bob, posId, 1, e18(50)))

	royalty := e18(5)
	fee := new(big.Int).Quo(new(big.Int).Mul(e18(45), big.NewInt(250)), big.NewInt(10000))
	proceeds := new(big.Int).Sub(e18(50), royalty)
	proceeds.Sub(proceeds, fee)

	s.Equal(royalty, s.balance(royaltyAddr))
	s.Equal(fee, s.balance(platformOwner))
	s.Equal(proceeds, s.balance(alice))

	// conservation
	total := new(big.Int).Add(royalty, fee)
	total.Add(total, proceeds)
	s.Equal(e18(50), total)

	// the batch now sits in bob's available position
	p, err := s.repo.AvailablePosition(s.c, itemId, bob)
	s.Require().NoError(err)
	s.Equal(int64(1), p.Amount)

	item, err := s.im.GetItem(s.c, itemId)
	s.Require().NoError(err)
	s.Require().Len(item.Sales, 1)
	s.Equal(alice, item.Sales[0].Seller)
	s.Equal(bob, item.Sales[0].Buyer)
}

func (s *ledgerSuite) TestBuyPartial() {
	itemId := s.mint(alice, 10)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 10, e18(1))
	s.Require().NoError(err)

	s.Require().NoError(s.im.Buy(s.c, bob, posId, 4, e18(4)))

	p, err := s.im.GetPosition(s.c, posId)
	s.Require().NoError(err)
	s.Equal(int64(6), p.Amount)
	s.Equal(ledger.StateRegularSale, p.State)

	bobAvail, err := s.repo.AvailablePosition(s.c, itemId, bob)
	s.Require().NoError(err)
	s.Equal(int64(4), bobAvail.Amount)
}

func (s *ledgerSuite) TestBuyGuards() {
	itemId := s.mint(alice, 5)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 5, e18(1))
	s.Require().NoError(err)

	s.ErrorIs(s.im.Buy(s.c, bob, posId, 5, e18(4)), domain.ErrIncorrectPayment)
	s.ErrorIs(s.im.Buy(s.c, bob, posId, 6, e18(6)), domain.ErrInsufficientAvailableUnits)
	s.ErrorIs(s.im.Buy(s.c, bob, 99, 1, e18(1)), domain.ErrNotFound)

	// nothing moved
	s.Equal(0, s.balance(alice).Sign())
}

func (s *ledgerSuite) TestListInsufficientUnits() {
	itemId := s.mint(alice, 5)
	_, err := s.im.ListForSale(s.c, alice, itemId, 6, e18(1))
	s.ErrorIs(err, domain.ErrInsufficientAvailableUnits)

	_, err = s.im.ListForSale(s.c, bob, itemId, 1, e18(1))
	s.ErrorIs(err, domain.ErrInsufficientAvailableUnits)
}

func (s *ledgerSuite) TestUnlistRestrictions() {
	itemId := s.mint(alice, 5)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 5, e18(1))
	s.Require().NoError(err)

	s.ErrorIs(s.im.Unlist(s.c, bob, posId), domain.ErrNotOwner)
	s.Require().NoError(s.im.Unlist(s.c, alice, posId))

	avail, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(5), avail.Amount)

	// a funded loan cannot be unlisted
	loanId, err := s.im.ProposeLoan(s.c, alice, itemId, 5, e18(10), e18(1), 60)
	s.Require().NoError(err)
	s.Require().NoError(s.im.FundLoan(s.c, bob, loanId, e18(10)))
	s.ErrorIs(s.im.Unlist(s.c, alice, loanId), domain.ErrInvalidStateForOperation)
}

func (s *ledgerSuite) TestRegisterItemAndSync() {
	itemId := s.mint(alice, 10)

	item, err := s.im.GetItem(s.c, itemId)
	s.Require().NoError(err)

	// same token again without new units
	_, err = s.im.RegisterItem(s.c, alice, item.AssetContract, item.TokenId)
	s.ErrorIs(err, domain.ErrDuplicateItem)

	// list then unlist keeps the tracked amount aligned with the wallet
	posId, err := s.im.ListForSale(s.c, alice, itemId, 4, e18(1))
	s.Require().NoError(err)
	avail, err := s.im.SyncHeldUnits(s.c, alice, itemId)
	s.Require().NoError(err)
	s.Equal(int64(6), avail.Amount)

	s.Require().NoError(s.im.Unlist(s.c, alice, posId))
	avail, err = s.im.SyncHeldUnits(s.c, alice, itemId)
	s.Require().NoError(err)
	s.Equal(int64(10), avail.Amount)
}

func (s *ledgerSuite) TestWithdraw() {
	itemId := s.mint(alice, 1)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 1, e18(50))
	s.Require().NoError(err)
	s.Require().NoError(s.im.Buy(s.c, bob, posId, 1, e18(50)))

	before := s.balance(alice)
	s.Require().True(before.Sign() > 0)

	got, err := s.im.Withdraw(s.c, alice)
	s.Require().NoError(err)
	s.Equal(before, got)
	s.Equal(0, s.balance(alice).Sign())

	// second withdraw drains nothing
	got, err = s.im.Withdraw(s.c, alice)
	s.Require().NoError(err)
	s.Equal(0, got.Sign())
}

func (s *ledgerSuite) TestAdminGuards() {
	s.ErrorIs(s.im.SetMarketFee(s.c, alice, ledger.StateRegularSale, 100), domain.ErrNotOwner)
	s.Require().NoError(s.im.SetMarketFee(s.c, platformOwner, ledger.StateRegularSale, 100))

	bps, err := s.im.MarketFee(s.c, ledger.StateRegularSale)
	s.Require().NoError(err)
	s.Equal(int64(100), bps)

	s.ErrorIs(s.im.TransferOwnership(s.c, alice, bob), domain.ErrNotOwner)
	s.Require().NoError(s.im.TransferOwnership(s.c, platformOwner, bob))
	owner, err := s.im.PlatformOwner(s.c)
	s.Require().NoError(err)
	s.Equal(bob, owner)
}

func (s *ledgerSuite) TestFeeSnapshotIsolation() {
	itemId := s.mint(alice, 2)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 2, e18(10))
	s.Require().NoError(err)

	// a later fee change never touches the open position
	s.Require().NoError(s.im.SetMarketFee(s.c, platformOwner, ledger.StateRegularSale, 5000))
	p, err := s.im.GetPosition(s.c, posId)
	s.Require().NoError(err)
	s.Equal(int64(250), p.MarketFeeBps)
}

func (s *ledgerSuite) TestRetireAndSnapshot() {
	itemId := s.mint(alice, 10)
	posId, err := s.im.ListForSale(s.c, alice, itemId, 4, e18(1))
	s.Require().NoError(err)

	_, err = s.im.Snapshot(s.c)
	s.ErrorIs(err, domain.ErrNotRetired)

	s.ErrorIs(s.im.Retire(s.c, alice), domain.ErrNotOwner)
	s.Require().NoError(s.im.Retire(s.c, platformOwner))
	s.ErrorIs(s.im.Retire(s.c, platformOwner), domain.ErrAlreadyRetired)

	// listing-creating entry points reject, settlement stays open
	_, err = s.im.ListForSale(s.c, alice, itemId, 1, e18(1))
	s.ErrorIs(err, domain.ErrAlreadyRetired)
	_, err = s.im.MintAndList(s.c, alice, ledger.MintAndListPayload{Amount: 1})
	s.ErrorIs(err, domain.ErrAlreadyRetired)
	s.NoError(s.im.Buy(s.c, bob, posId, 4, e18(4)))

	snap, err := s.im.Snapshot(s.c)
	s.Require().NoError(err)
	s.Equal(domain.ItemId(1), snap.CurrentItemId)
	s.Len(snap.Items, 1)
	s.Equal(2, snap.StateCounts[ledger.StateAvailable])
	s.Equal(0, snap.StateCounts[ledger.StateRegularSale])
	s.True(len(snap.Balances) > 0)
}

// flakyRegistry wraps the reference registry and can be told to fail royalty
// lookups.
type flakyRegistry struct {
	registry.Registry
	failRoyalty bool
}

func (f *flakyRegistry) RoyaltyOf(c ctx.Ctx, tokenId domain.TokenId, saleAmount *big.Int) (*registry.RoyaltyInfo, error) {
	if f.failRoyalty {
		return nil, domain.ErrNotFound
	}
	return f.Registry.RoyaltyOf(c, tokenId, saleAmount)
}

func (s *ledgerSuite) TestFailedSettlementLeavesListingIntact() {
	fr := &flakyRegistry{Registry: s.registry}
	im := New(&LedgerUseCaseCfg{
		Repo:          s.repo,
		Events:        s.events,
		Registry:      fr,
		MarketAddress: marketAddress,
		Clock:         s.clock,
		Winner:        s.winner,
	})

	res, err := im.MintAndList(s.c, alice, ledger.MintAndListPayload{
		Amount:          4,
		RoyaltyReceiver: royaltyAddr,
		RoyaltyBps:      1000,
		Kind:            ledger.ListRegularSale,
		UnitPrice:       e18(1),
	})
	s.Require().NoError(err)

	fr.failRoyalty = true
	s.Error(im.Buy(s.c, bob, res.PositionId, 4, e18(4)))

	// listing unchanged, no partial credit anywhere
	p, err := im.GetPosition(s.c, res.PositionId)
	s.Require().NoError(err)
	s.Equal(int64(4), p.Amount)
	s.Equal(ledger.StateRegularSale, p.State)
	s.Equal(0, s.balance(alice).Sign())
	s.Equal(0, s.balance(royaltyAddr).Sign())
	s.Equal(0, s.balance(platformOwner).Sign())

	// recovers once the registry does
	fr.failRoyalty = false
	s.Require().NoError(im.Buy(s.c, bob, res.PositionId, 4, e18(4)))
	_, err = im.GetPosition(s.c, res.PositionId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ledgerSuite) TestUnitConservationAgainstRegistry() {
	itemId := s.mint(alice, 100)

	posId, err := s.im.ListForSale(s.c, alice, itemId, 40, e18(1))
	s.Require().NoError(err)
	s.Require().NoError(s.im.Buy(s.c, bob, posId, 15, e18(15)))
	_, err = s.im.CreateAuction(s.c, alice, itemId, 20, 60, e18(1))
	s.Require().NoError(err)

	// bob moves units around the marketplace, carol syncs hers in
	item, err := s.im.GetItem(s.c, itemId)
	s.Require().NoError(err)
	s.Require().NoError(s.registry.Transfer(s.c, bob, carol, item.TokenId, 5))
	_, err = s.im.SyncHeldUnits(s.c, carol, itemId)
	s.Require().NoError(err)

	positions, err := s.im.FindPositions(s.c, ledger.WithItemId(itemId))
	s.Require().NoError(err)
	var tracked, listed int64
	for _, p := range positions {
		tracked += p.Amount
		if p.State != ledger.StateAvailable {
			listed += p.Amount
		}
	}

	// wallet units not yet reflected in an Available position; negative for
	// holders whose wallet shrank out-of-band
	var unsynced int64
	for _, addr := range []domain.Address{alice, bob, carol} {
		bal, err := s.registry.BalanceOf(s.c, addr, item.TokenId)
		s.Require().NoError(err)
		var avail int64
		if p, err := s.repo.AvailablePosition(s.c, itemId, addr); err == nil {
			avail = p.Amount
		}
		unsynced += bal - avail
	}

	supply, err := s.registry.SupplyOf(s.c, item.TokenId)
	s.Require().NoError(err)
	s.Equal(supply, tracked+unsynced)

	// custody holds exactly the listed units
	custody, err := s.registry.BalanceOf(s.c, marketAddress, item.TokenId)
	s.Require().NoError(err)
	s.Equal(listed, custody)
}
