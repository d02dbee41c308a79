package usecase

import (
	"math/big"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

func (im *impl) ListForSale(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount int64, unitPrice *big.Int) (domain.PositionId, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardNotRetired(c); err != nil {
		return 0, err
	}
	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return 0, err
	}
	return im.listForSale(c, caller, item, amount, unitPrice)
}

func (im *impl) listForSale(c ctx.Ctx, caller domain.Address, item *ledger.Item, amount int64, unitPrice *big.Int) (domain.PositionId, error) {
	if amount <= 0 || unitPrice == nil || unitPrice.Sign() <= 0 {
		return 0, domain.ErrBadParamInput
	}

	feeBps, err := im.repo.MarketFee(c, ledger.StateRegularSale)
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
		Price:        new(big.Int).Set(unitPrice),
		MarketFeeBps: feeBps,
		State:        ledger.StateRegularSale,
	})
	if err != nil {
		return 0, err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventListed,
		ItemId:     item.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     amount,
		Value:      unitPrice.String(),
	})
	return p.PositionId, nil
}

// Unlist returns a listed position's escrowed units to its owner. Only
// positions nothing has committed funds to yet can be unlisted: a regular
// sale, a bidless auction, an entryless raffle before its deadline, or an
// unfunded loan proposal.
func (im *impl) Unlist(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if !p.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}

	switch p.State {
	case ledger.StateRegularSale:
	case ledger.StateAuction:
		if !p.Auction.HighestBidder.IsEmpty() {
			return domain.ErrInvalidStateForOperation
		}
	case ledger.StateRaffle:
		if len(p.Raffle.Entries) > 0 || !im.clock.Now().Before(p.Raffle.Deadline) {
			return domain.ErrInvalidStateForOperation
		}
	case ledger.StateLoan:
		if p.Loan.Funded() {
			return domain.ErrInvalidStateForOperation
		}
	default:
		return domain.ErrInvalidStateForOperation
	}

	item, err := im.repo.GetItem(c, p.ItemId)
	if err != nil {
		return err
	}
	if err := im.creditUnits(c, item, p.Owner, p.Amount); err != nil {
		return err
	}
	if err := im.repo.RemovePosition(c, p.PositionId); err != nil {
		return err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventUnlisted,
		ItemId:     p.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     p.Amount,
	})
	return nil
}

// Buy settles amount units of a RegularSale position. payment must equal
// amount*unitPrice exactly; a partial buy shrinks the source position and
// the remainder stays listed.
func (im *impl) Buy(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, amount int64, payment *big.Int) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateRegularSale {
		return domain.ErrInvalidStateForOperation
	}
	if amount <= 0 || payment == nil {
		return domain.ErrBadParamInput
	}
	if amount > p.Amount {
		return domain.ErrInsufficientAvailableUnits
	}

	expected := new(big.Int).Mul(p.Price, big.NewInt(amount))
	if payment.Cmp(expected) != 0 {
		c.WithFields(log.Fields{
			"positionId": positionId,
			"expected":   expected.String(),
			"payment":    payment.String(),
		}).Warn("payment mismatch")
		return domain.ErrIncorrectPayment
	}

	item, err := im.repo.GetItem(c, p.ItemId)
	if err != nil {
		return err
	}

	// settle before touching the listing so a failed settlement leaves the
	// position exactly as it was
	if err := im.settle(c, item, p.Owner, caller, amount, payment, p.MarketFeeBps, ledger.StateRegularSale); err != nil {
		return err
	}

	if amount == p.Amount {
		return im.repo.RemovePosition(c, p.PositionId)
	}
	p.Amount -= amount
	return im.repo.SavePosition(c, p)
}
