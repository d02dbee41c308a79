package usecase

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

func (im *impl) CreateRaffle(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount, durationMinutes int64) (domain.PositionId, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardNotRetired(c); err != nil {
		return 0, err
	}
	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return 0, err
	}
	return im.createRaffle(c, caller, item, amount, durationMinutes)
}

func (im *impl) createRaffle(c ctx.Ctx, caller domain.Address, item *ledger.Item, amount, durationMinutes int64) (domain.PositionId, error) {
	if amount <= 0 || durationMinutes <= 0 {
		return 0, domain.ErrBadParamInput
	}

	feeBps, err := im.repo.MarketFee(c, ledger.StateRaffle)
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
		State:        ledger.StateRaffle,
		Raffle: &ledger.RaffleData{
			Deadline:   im.clock.Now().Add(time.Duration(durationMinutes) * time.Minute),
			TotalValue: new(big.Int),
		},
	})
	if err != nil {
		return 0, err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventRaffleCreated,
		ItemId:     item.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     amount,
	})
	return p.PositionId, nil
}

// EnterRaffle escrows payment as raffle entries. Repeat entries from the
// same address merge into one, keeping the order of first entry, so winner
// weighting always works on each address's total contribution.
func (im *impl) EnterRaffle(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateRaffle {
		return domain.ErrInvalidStateForOperation
	}
	if payment == nil || payment.Sign() == 0 {
		return domain.ErrZeroPayment
	}
	if payment.Sign() < 0 {
		return domain.ErrBadParamInput
	}

	raffle := p.Raffle
	if !im.clock.Now().Before(raffle.Deadline) {
		return domain.ErrDeadlinePassed
	}

	entrant := caller.ToLower()
	merged := false
	for i := range raffle.Entries {
		if raffle.Entries[i].Address.Equals(entrant) {
			raffle.Entries[i].Amount = new(big.Int).Add(raffle.Entries[i].Amount, payment)
			merged = true
			break
		}
	}
	if !merged {
		raffle.Entries = append(raffle.Entries, ledger.RaffleEntry{
			Address: entrant,
			Amount:  new(big.Int).Set(payment),
		})
	}
	raffle.TotalValue = new(big.Int).Add(raffle.TotalValue, payment)
	raffle.TotalAddresses = len(raffle.Entries)

	if err := im.repo.SavePosition(c, p); err != nil {
		return err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventRaffleEntered,
		ItemId:     p.ItemId,
		PositionId: p.PositionId,
		Actor:      entrant,
		Value:      payment.String(),
	})
	return nil
}

// EndRaffle resolves a raffle past its deadline: a winner is drawn weighted
// by contribution and the pot settles like a sale of the whole batch. With
// no entries the units return to the owner.
func (im *impl) EndRaffle(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateRaffle {
		return domain.ErrInvalidStateForOperation
	}
	if im.clock.Now().Before(p.Raffle.Deadline) {
		return domain.ErrDeadlineNotReached
	}

	item, err := im.repo.GetItem(c, p.ItemId)
	if err != nil {
		return err
	}

	winner := domain.EmptyAddress
	if len(p.Raffle.Entries) == 0 {
		if err := im.creditUnits(c, item, p.Owner, p.Amount); err != nil {
			return err
		}
	} else {
		winner = im.drawWinner(c, p)
		if err := im.settle(c, item, p.Owner, winner, p.Amount, p.Raffle.TotalValue, p.MarketFeeBps, ledger.StateRaffle); err != nil {
			return err
		}
	}
	if err := im.repo.RemovePosition(c, p.PositionId); err != nil {
		return err
	}

	im.appendEvent(c, &ledger.Event{
		Type:         ledger.EventRaffleEnded,
		ItemId:       p.ItemId,
		PositionId:   p.PositionId,
		Actor:        caller.ToLower(),
		Counterparty: winner,
		Amount:       p.Amount,
		Value:        p.Raffle.TotalValue.String(),
	})
	return nil
}

// drawWinner reduces the entropy source's point in [0, totalValue) to an
// entry by walking cumulative contributions in entry order.
func (im *impl) drawWinner(c ctx.Ctx, p *ledger.Position) domain.Address {
	point := im.winner.Pick(c, p.Raffle.TotalValue, raffleSeed(im.clock.Now(), p))

	acc := new(big.Int)
	for _, entry := range p.Raffle.Entries {
		acc.Add(acc, entry.Amount)
		if point.Cmp(acc) < 0 {
			return entry.Address
		}
	}
	// unreachable while point < totalValue; the last entry absorbs rounding
	return p.Raffle.Entries[len(p.Raffle.Entries)-1].Address
}
