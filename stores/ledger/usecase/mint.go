package usecase

import (
	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

// MintAndList mints Amount units to the caller, registers the item and,
// depending on Kind, lists the whole batch in one atomic call. The item
// record is journaled before the position record; indexers read the second
// id of the pair.
func (im *impl) MintAndList(c ctx.Ctx, caller domain.Address, payload ledger.MintAndListPayload) (*ledger.MintResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardNotRetired(c); err != nil {
		return nil, err
	}
	if payload.Amount <= 0 {
		return nil, domain.ErrBadParamInput
	}

	tokenId, err := im.registry.Mint(c, caller, payload.Amount, payload.RoyaltyReceiver, payload.RoyaltyBps)
	if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"caller": caller,
		}).Error("failed to registry.Mint")
		return nil, err
	}

	item, err := im.repo.CreateItem(c, im.registry.Address(c), tokenId, caller)
	if err != nil {
		return nil, err
	}
	im.appendEvent(c, &ledger.Event{
		Type:   ledger.EventItemRegistered,
		ItemId: item.ItemId,
		Actor:  caller.ToLower(),
		Amount: payload.Amount,
	})

	var positionId domain.PositionId
	switch payload.Kind {
	case ledger.ListNone, "":
		positionId, err = im.importAvailable(c, caller, item, payload.Amount)
	case ledger.ListRegularSale:
		positionId, err = im.listForSale(c, caller, item, payload.Amount, payload.UnitPrice)
	case ledger.ListAuction:
		positionId, err = im.createAuction(c, caller, item, payload.Amount, payload.DurationMinutes, payload.MinBid)
	case ledger.ListRaffle:
		positionId, err = im.createRaffle(c, caller, item, payload.Amount, payload.DurationMinutes)
	case ledger.ListLoan:
		positionId, err = im.proposeLoan(c, caller, item, payload.Amount, payload.LoanAmount, payload.FeeAmount, payload.DurationMinutes)
	default:
		return nil, domain.ErrBadParamInput
	}
	if err != nil {
		return nil, err
	}

	return &ledger.MintResult{
		ItemId:     item.ItemId,
		TokenId:    tokenId,
		PositionId: positionId,
	}, nil
}

// RegisterItem registers an existing registry token with the marketplace.
// If the item already exists the call only succeeds when the caller holds
// unsynced units that can be reconciled into an Available position.
func (im *impl) RegisterItem(c ctx.Ctx, caller, assetContract domain.Address, tokenId domain.TokenId) (domain.ItemId, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	item, err := im.repo.GetItemByToken(c, assetContract, tokenId)
	if err == domain.ErrNotFound {
		item, err = im.repo.CreateItem(c, assetContract, tokenId, caller)
		if err != nil {
			return 0, err
		}
		im.appendEvent(c, &ledger.Event{
			Type:   ledger.EventItemRegistered,
			ItemId: item.ItemId,
			Actor:  caller.ToLower(),
		})
		if _, err := im.syncHeldUnits(c, caller, item); err != nil && err != domain.ErrNotFound {
			return 0, err
		}
		return item.ItemId, nil
	} else if err != nil {
		return 0, err
	}

	// existing item: only importable held units justify the call
	delta, err := im.unsyncedDelta(c, caller, item)
	if err != nil {
		return 0, err
	}
	if delta <= 0 {
		return 0, domain.ErrDuplicateItem
	}
	if _, err := im.syncHeldUnits(c, caller, item); err != nil && err != domain.ErrNotFound {
		return 0, err
	}
	return item.ItemId, nil
}

// unsyncedDelta is the signed difference between the caller's wallet
// balance and their tracked Available amount, computed without mutating.
func (im *impl) unsyncedDelta(c ctx.Ctx, caller domain.Address, item *ledger.Item) (int64, error) {
	wallet, err := im.registry.BalanceOf(c, caller, item.TokenId)
	if err != nil {
		return 0, err
	}
	tracked := int64(0)
	if avail, err := im.repo.AvailablePosition(c, item.ItemId, caller); err == nil {
		tracked = avail.Amount
	} else if err != domain.ErrNotFound {
		return 0, err
	}
	return wallet - tracked, nil
}

// SyncHeldUnits reconciles the caller's registry wallet balance with their
// Available position, importing units transferred in out-of-band and
// dropping units transferred away.
func (im *impl) SyncHeldUnits(c ctx.Ctx, caller domain.Address, itemId domain.ItemId) (*ledger.Position, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return nil, err
	}
	return im.syncHeldUnits(c, caller, item)
}

func (im *impl) syncHeldUnits(c ctx.Ctx, caller domain.Address, item *ledger.Item) (*ledger.Position, error) {
	avail, delta, err := im.reconcile(c, caller, item)
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		ev := &ledger.Event{
			Type:   ledger.EventUnitsSynced,
			ItemId: item.ItemId,
			Actor:  caller.ToLower(),
			Amount: delta,
		}
		if avail != nil {
			ev.PositionId = avail.PositionId
		}
		im.appendEvent(c, ev)
	}
	if avail == nil {
		return nil, domain.ErrNotFound
	}
	return avail, nil
}

// reconcile aligns the caller's tracked Available amount with their registry
// wallet balance and returns the resulting position (nil when the caller
// holds nothing) along with the applied signed delta. It journals nothing;
// callers that surface the sync append the record themselves.
func (im *impl) reconcile(c ctx.Ctx, caller domain.Address, item *ledger.Item) (*ledger.Position, int64, error) {
	wallet, err := im.registry.BalanceOf(c, caller, item.TokenId)
	if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"tokenId": item.TokenId,
		}).Error("failed to registry.BalanceOf")
		return nil, 0, err
	}

	avail, err := im.repo.AvailablePosition(c, item.ItemId, caller)
	if err != nil && err != domain.ErrNotFound {
		return nil, 0, err
	}

	tracked := int64(0)
	if avail != nil {
		tracked = avail.Amount
	}
	delta := wallet - tracked
	if delta == 0 {
		return avail, 0, nil
	}

	if avail == nil {
		avail, err = im.repo.CreatePosition(c, &ledger.Position{
			ItemId: item.ItemId,
			Owner:  caller,
			Amount: delta,
			State:  ledger.StateAvailable,
		})
		if err != nil {
			return nil, 0, err
		}
		return avail, delta, nil
	}

	avail.Amount = wallet
	if avail.Amount == 0 {
		if err := im.repo.RemovePosition(c, avail.PositionId); err != nil {
			return nil, 0, err
		}
		return nil, delta, nil
	}
	if err := im.repo.SavePosition(c, avail); err != nil {
		return nil, 0, err
	}
	return avail, delta, nil
}

// importAvailable tracks freshly minted wallet units as an Available
// position without escrowing them.
func (im *impl) importAvailable(c ctx.Ctx, caller domain.Address, item *ledger.Item, amount int64) (domain.PositionId, error) {
	p, err := im.repo.CreatePosition(c, &ledger.Position{
		ItemId: item.ItemId,
		Owner:  caller,
		Amount: amount,
		State:  ledger.StateAvailable,
	})
	if err != nil {
		return 0, err
	}
	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventUnitsSynced,
		ItemId:     item.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     amount,
	})
	return p.PositionId, nil
}
