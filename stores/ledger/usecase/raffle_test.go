package usecase

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/domain"
)

func (s *ledgerSuite) createRaffleFixture(owner domain.Address, amount, durationMinutes int64) (domain.ItemId, domain.PositionId) {
	itemId := s.mint(owner, amount)
	posId, err := s.im.CreateRaffle(s.c, owner, itemId, amount, durationMinutes)
	s.Require().NoError(err)
	return itemId, posId
}

func (s *ledgerSuite) TestEnterRaffleMergesEntries() {
	_, posId := s.createRaffleFixture(alice, 1, 60)

	s.Require().NoError(s.im.EnterRaffle(s.c, bob, posId, big.NewInt(100)))
	s.Require().NoError(s.im.EnterRaffle(s.c, carol, posId, big.NewInt(50)))
	s.Require().NoError(s.im.EnterRaffle(s.c, bob, posId, big.NewInt(25)))

	p, err := s.im.GetPosition(s.c, posId)
	s.Require().NoError(err)
	s.Require().Len(p.Raffle.Entries, 2)
	s.Equal(bob, p.Raffle.Entries[0].Address)
	s.Equal(big.NewInt(125), p.Raffle.Entries[0].Amount)
	s.Equal(carol, p.Raffle.Entries[1].Address)
	s.Equal(big.NewInt(175), p.Raffle.TotalValue)
	s.Equal(2, p.Raffle.TotalAddresses)
}

func (s *ledgerSuite) TestEnterRaffleGuards() {
	_, posId := s.createRaffleFixture(alice, 1, 60)

	s.ErrorIs(s.im.EnterRaffle(s.c, bob, posId, big.NewInt(0)), domain.ErrZeroPayment)

	s.clock.Advance(60 * time.Minute)
	s.ErrorIs(s.im.EnterRaffle(s.c, bob, posId, big.NewInt(10)), domain.ErrDeadlinePassed)
	s.NoError(s.im.EndRaffle(s.c, bob, posId))
}

func (s *ledgerSuite) TestEndRaffleSettles() {
	itemId, posId := s.createRaffleFixture(alice, 3, 60)

	s.Require().NoError(s.im.EnterRaffle(s.c, bob, posId, e18(30)))
	s.Require().NoError(s.im.EnterRaffle(s.c, carol, posId, e18(20)))

	s.ErrorIs(s.im.EndRaffle(s.c, bob, posId), domain.ErrDeadlineNotReached)

	// point 40e18 lands in carol's [30e18, 50e18) band
	s.winner.points = []*big.Int{e18(40)}
	s.clock.Advance(60 * time.Minute)
	s.Require().NoError(s.im.EndRaffle(s.c, bob, posId))

	won, err := s.repo.AvailablePosition(s.c, itemId, carol)
	s.Require().NoError(err)
	s.Equal(int64(3), won.Amount)

	royalty := e18(5)
	fee := new(big.Int).Quo(new(big.Int).Mul(e18(45), big.NewInt(250)), big.NewInt(10000))
	proceeds := new(big.Int).Sub(e18(50), royalty)
	proceeds.Sub(proceeds, fee)

	s.Equal(royalty, s.balance(royaltyAddr))
	s.Equal(fee, s.balance(platformOwner))
	s.Equal(proceeds, s.balance(alice))

	item, err := s.im.GetItem(s.c, itemId)
	s.Require().NoError(err)
	s.Require().Len(item.Sales, 1)
	s.Equal(carol, item.Sales[0].Buyer)
	s.Equal(e18(50), item.Sales[0].Price)
}

func (s *ledgerSuite) TestEndRaffleNoEntries() {
	itemId, posId := s.createRaffleFixture(alice, 2, 60)

	s.clock.Advance(61 * time.Minute)
	s.Require().NoError(s.im.EndRaffle(s.c, bob, posId))

	avail, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(2), avail.Amount)
	s.Equal(0, s.balance(alice).Sign())
}

// TestRaffleWeighting sweeps the whole outcome space: with entries
// [(A,100),(B,50)] and points 0..149, A must win exactly twice as often.
func (s *ledgerSuite) TestRaffleWeighting() {
	wins := map[domain.Address]int{}

	for point := int64(0); point < 150; point++ {
		s.SetupTest()

		itemId, posId := s.createRaffleFixture(alice, 1, 1)
		s.Require().NoError(s.im.EnterRaffle(s.c, bob, posId, big.NewInt(100)))
		s.Require().NoError(s.im.EnterRaffle(s.c, carol, posId, big.NewInt(50)))

		s.winner.points = []*big.Int{big.NewInt(point)}
		s.clock.Advance(2 * time.Minute)
		s.Require().NoError(s.im.EndRaffle(s.c, alice, posId))

		item, err := s.im.GetItem(s.c, itemId)
		s.Require().NoError(err)
		wins[item.Sales[0].Buyer]++
	}

	s.Equal(100, wins[bob])
	s.Equal(50, wins[carol])
}

func (s *ledgerSuite) TestUnlistRaffle() {
	itemId, posId := s.createRaffleFixture(alice, 2, 60)

	// entryless raffle before the deadline can be unlisted
	s.Require().NoError(s.im.Unlist(s.c, alice, posId))
	avail, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(2), avail.Amount)

	// with an entry it cannot
	_, posId = s.createRaffleFixture(alice, 1, 60)
	s.Require().NoError(s.im.EnterRaffle(s.c, bob, posId, big.NewInt(10)))
	s.ErrorIs(s.im.Unlist(s.c, alice, posId), domain.ErrInvalidStateForOperation)
}
