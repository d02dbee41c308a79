package usecase

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/domain"
)

func (s *ledgerSuite) createAuctionFixture(amount, durationMinutes int64, minBid *big.Int) (domain.ItemId, domain.PositionId) {
	itemId := s.mint(alice, amount)
	posId, err := s.im.CreateAuction(s.c, alice, itemId, amount, durationMinutes, minBid)
	s.Require().NoError(err)
	return itemId, posId
}

func (s *ledgerSuite) TestAuctionBidMonotonicityAndRefund() {
	_, posId := s.createAuctionFixture(3, 60, e18(1))

	s.ErrorIs(s.im.Bid(s.c, bob, posId, big.NewInt(1)), domain.ErrBidTooLow)

	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(1)))
	p, _ := s.im.GetPosition(s.c, posId)
	s.Equal(bob, p.Auction.HighestBidder)
	s.Equal(e18(1), p.Auction.HighestBid)

	// equal total is not enough
	s.ErrorIs(s.im.Bid(s.c, carol, posId, e18(1)), domain.ErrBidTooLow)

	// carol outbids, bob gets his full contribution back
	s.Require().NoError(s.im.Bid(s.c, carol, posId, e18(2)))
	s.Equal(e18(1), s.balance(bob))

	p, _ = s.im.GetPosition(s.c, posId)
	s.Equal(carol, p.Auction.HighestBidder)
	s.Equal(e18(2), p.Auction.HighestBid)

	// bob tops up: prior contribution was refunded, so this is a fresh bid
	// that must beat carol's total on its own merits
	s.ErrorIs(s.im.Bid(s.c, bob, posId, e18(2)), domain.ErrBidTooLow)
	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(3)))
	p, _ = s.im.GetPosition(s.c, posId)
	s.Equal(e18(3), p.Auction.HighestBid)
}

func (s *ledgerSuite) TestAuctionTopUpAccumulates() {
	_, posId := s.createAuctionFixture(1, 60, e18(1))

	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(1)))
	s.Require().NoError(s.im.Bid(s.c, carol, posId, e18(2)))

	// bob was refunded; carol leads with 2. carol tops her own bid up.
	s.Require().NoError(s.im.Bid(s.c, carol, posId, e18(1)))
	p, _ := s.im.GetPosition(s.c, posId)
	s.Equal(carol, p.Auction.HighestBidder)
	s.Equal(e18(3), p.Auction.HighestBid)

	// no refund was produced by topping up her own lead
	s.Equal(0, s.balance(carol).Sign())
}

func (s *ledgerSuite) TestAuctionDeadlineExtension() {
	_, posId := s.createAuctionFixture(1, 60, e18(1))

	base, _ := s.im.GetPosition(s.c, posId)
	deadline := base.Auction.Deadline

	// bid with exactly 600s remaining leaves the deadline alone
	s.clock.now = deadline.Add(-600 * time.Second)
	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(1)))
	p, _ := s.im.GetPosition(s.c, posId)
	s.Equal(deadline, p.Auction.Deadline)

	// one second later the window is short and the deadline moves out
	s.clock.Advance(time.Second)
	s.Require().NoError(s.im.Bid(s.c, carol, posId, e18(2)))
	p, _ = s.im.GetPosition(s.c, posId)
	s.Equal(s.clock.now.Add(600*time.Second), p.Auction.Deadline)
	s.True(p.Auction.Deadline.After(deadline))
}

func (s *ledgerSuite) TestEndAuctionSettles() {
	itemId, posId := s.createAuctionFixture(2, 60, e18(1))

	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(50)))

	s.ErrorIs(s.im.EndAuction(s.c, carol, posId), domain.ErrDeadlineNotReached)

	s.clock.Advance(61 * time.Minute)
	// anyone may trigger settlement
	s.Require().NoError(s.im.EndAuction(s.c, carol, posId))

	royalty := e18(5)
	fee := new(big.Int).Quo(new(big.Int).Mul(e18(45), big.NewInt(250)), big.NewInt(10000))
	proceeds := new(big.Int).Sub(e18(50), royalty)
	proceeds.Sub(proceeds, fee)

	s.Equal(royalty, s.balance(royaltyAddr))
	s.Equal(fee, s.balance(platformOwner))
	s.Equal(proceeds, s.balance(alice))

	won, err := s.repo.AvailablePosition(s.c, itemId, bob)
	s.Require().NoError(err)
	s.Equal(int64(2), won.Amount)

	_, err = s.im.GetPosition(s.c, posId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ledgerSuite) TestEndAuctionNoBids() {
	itemId, posId := s.createAuctionFixture(2, 60, e18(1))

	s.clock.Advance(61 * time.Minute)
	s.Require().NoError(s.im.EndAuction(s.c, bob, posId))

	avail, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(2), avail.Amount)

	// no funds moved anywhere
	s.Equal(0, s.balance(alice).Sign())
	s.Equal(0, s.balance(platformOwner).Sign())
}

func (s *ledgerSuite) TestBidAfterDeadline() {
	_, posId := s.createAuctionFixture(1, 60, e18(1))
	s.clock.Advance(60 * time.Minute)
	s.ErrorIs(s.im.Bid(s.c, bob, posId, e18(1)), domain.ErrDeadlinePassed)
}

func (s *ledgerSuite) TestUnlistBidlessAuction() {
	itemId, posId := s.createAuctionFixture(2, 60, e18(1))

	s.Require().NoError(s.im.Unlist(s.c, alice, posId))
	avail, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(2), avail.Amount)

	// once a bid exists unlisting is off the table
	_, posId = s.createAuctionFixture(1, 60, e18(1))
	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(1)))
	s.ErrorIs(s.im.Unlist(s.c, alice, posId), domain.ErrInvalidStateForOperation)
}

func (s *ledgerSuite) TestGetPositionDetachedFromLaterBids() {
	_, posId := s.createAuctionFixture(1, 60, e18(1))

	before, err := s.im.GetPosition(s.c, posId)
	s.Require().NoError(err)
	s.True(before.Auction.HighestBidder.IsEmpty())
	s.Equal(0, before.Auction.HighestBid.Sign())

	s.Require().NoError(s.im.Bid(s.c, bob, posId, e18(2)))

	// the earlier read must not observe the bid
	s.True(before.Auction.HighestBidder.IsEmpty())
	s.Equal(0, before.Auction.HighestBid.Sign())
	s.Empty(before.Auction.Contributions)

	after, err := s.im.GetPosition(s.c, posId)
	s.Require().NoError(err)
	s.Equal(bob, after.Auction.HighestBidder)
	s.Equal(e18(2), after.Auction.HighestBid)
}
