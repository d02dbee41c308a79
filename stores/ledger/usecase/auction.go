package usecase

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

// snipeWindow is the minimum reaction time guaranteed after any accepted
// bid: a qualifying bid landing closer than this to the deadline pushes the
// deadline out to now+snipeWindow.
const snipeWindow = 600 * time.Second

func (im *impl) CreateAuction(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount, durationMinutes int64, minBid *big.Int) (domain.PositionId, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardNotRetired(c); err != nil {
		return 0, err
	}
	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return 0, err
	}
	return im.createAuction(c, caller, item, amount, durationMinutes, minBid)
}

func (im *impl) createAuction(c ctx.Ctx, caller domain.Address, item *ledger.Item, amount, durationMinutes int64, minBid *big.Int) (domain.PositionId, error) {
	if amount <= 0 || durationMinutes <= 0 || minBid == nil || minBid.Sign() <= 0 {
		return 0, domain.ErrBadParamInput
	}

	feeBps, err := im.repo.MarketFee(c, ledger.StateAuction)
	if err != nil {
		return 0, err
	}
	if err := im.escrowUnits(c, caller, item, amount); err != nil {
		return 0, err
	}

	p, err := im.repo.CreatePosition(c, &ledger.Position{
		ItemId:       item.ItemId,
		Owner:        caller,
		Amount:       amount,
		MarketFeeBps: feeBps,
		State:        ledger.StateAuction,
		Auction: &ledger.AuctionData{
			Deadline:      im.clock.Now().Add(time.Duration(durationMinutes) * time.Minute),
			MinBid:        new(big.Int).Set(minBid),
			HighestBid:    new(big.Int),
			Contributions: map[domain.Address]*big.Int{},
		},
	})
	if err != nil {
		return 0, err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventAuctionCreated,
		ItemId:     item.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     amount,
		Value:      minBid.String(),
	})
	return p.PositionId, nil
}

// Bid escrows payment on an active auction. Bids accumulate per bidder: the
// accepted total is the bidder's prior contribution plus payment, and it
// must beat the current highest total (or reach minBid for the first bid).
// The outbid bidder's full contribution is refunded to their balance.
func (im *impl) Bid(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateAuction {
		return domain.ErrInvalidStateForOperation
	}
	if payment == nil || payment.Sign() <= 0 {
		return domain.ErrZeroPayment
	}

	now := im.clock.Now()
	auction := p.Auction
	if !now.Before(auction.Deadline) {
		return domain.ErrDeadlinePassed
	}

	bidder := caller.ToLower()
	newTotal := new(big.Int).Set(payment)
	if prior, ok := auction.Contributions[bidder]; ok {
		newTotal.Add(newTotal, prior)
	}

	if auction.HighestBidder.IsEmpty() {
		if newTotal.Cmp(auction.MinBid) < 0 {
			return domain.ErrBidTooLow
		}
	} else if newTotal.Cmp(auction.HighestBid) <= 0 {
		return domain.ErrBidTooLow
	}

	// refund the displaced leader in full
	if !auction.HighestBidder.IsEmpty() && !auction.HighestBidder.Equals(bidder) {
		refund := auction.Contributions[auction.HighestBidder]
		if err := im.repo.AddBalance(c, auction.HighestBidder, refund); err != nil {
			return err
		}
		delete(auction.Contributions, auction.HighestBidder)
	}

	auction.Contributions[bidder] = newTotal
	auction.HighestBidder = bidder
	auction.HighestBid = newTotal

	if auction.Deadline.Sub(now) < snipeWindow {
		auction.Deadline = now.Add(snipeWindow)
		c.WithFields(log.Fields{
			"positionId": positionId,
			"deadline":   auction.Deadline,
		}).Info("auction deadline extended")
	}

	if err := im.repo.SavePosition(c, p); err != nil {
		return err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventBid,
		ItemId:     p.ItemId,
		PositionId: p.PositionId,
		Actor:      bidder,
		Value:      newTotal.String(),
	})
	return nil
}

// EndAuction resolves an auction past its deadline. Callable by anyone;
// settlement is mechanical once the deadline has elapsed. With no bids the
// escrowed units return to the owner and no funds move.
func (im *impl) EndAuction(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateAuction {
		return domain.ErrInvalidStateForOperation
	}
	if im.clock.Now().Before(p.Auction.Deadline) {
		return domain.ErrDeadlineNotReached
	}

	item, err := im.repo.GetItem(c, p.ItemId)
	if err != nil {
		return err
	}

	if p.Auction.HighestBidder.IsEmpty() {
		if err := im.creditUnits(c, item, p.Owner, p.Amount); err != nil {
			return err
		}
	} else {
		if err := im.settle(c, item, p.Owner, p.Auction.HighestBidder, p.Amount, p.Auction.HighestBid, p.MarketFeeBps, ledger.StateAuction); err != nil {
			return err
		}
	}
	if err := im.repo.RemovePosition(c, p.PositionId); err != nil {
		return err
	}

	im.appendEvent(c, &ledger.Event{
		Type:         ledger.EventAuctionEnded,
		ItemId:       p.ItemId,
		PositionId:   p.PositionId,
		Actor:        caller.ToLower(),
		Counterparty: p.Auction.HighestBidder,
		Amount:       p.Amount,
		Value:        p.Auction.HighestBid.String(),
	})
	return nil
}
