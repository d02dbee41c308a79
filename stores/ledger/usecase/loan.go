package usecase

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

func (im *impl) ProposeLoan(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount int64, loanAmount, feeAmount *big.Int, durationMinutes int64) (domain.PositionId, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardNotRetired(c); err != nil {
		return 0, err
	}
	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return 0, err
	}
	return im.proposeLoan(c, caller, item, amount, loanAmount, feeAmount, durationMinutes)
}

func (im *impl) proposeLoan(c ctx.Ctx, caller domain.Address, item *ledger.Item, amount int64, loanAmount, feeAmount *big.Int, durationMinutes int64) (domain.PositionId, error) {
	if amount <= 0 || durationMinutes <= 0 ||
		loanAmount == nil || loanAmount.Sign() <= 0 ||
		feeAmount == nil || feeAmount.Sign() < 0 {
		return 0, domain.ErrBadParamInput
	}

	feeBps, err := im.repo.MarketFee(c, ledger.StateLoan)
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
		State:        ledger.StateLoan,
		Loan: &ledger.LoanData{
			LoanAmount:      new(big.Int).Set(loanAmount),
			FeeAmount:       new(big.Int).Set(feeAmount),
			DurationMinutes: durationMinutes,
		},
	})
	if err != nil {
		return 0, err
	}

	im.appendEvent(c, &ledger.Event{
		Type:       ledger.EventLoanProposed,
		ItemId:     item.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     amount,
		Value:      loanAmount.String(),
	})
	return p.PositionId, nil
}

func (im *impl) CancelLoanProposal(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateLoan {
		return domain.ErrInvalidStateForOperation
	}
	if !p.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	if p.Loan.Funded() {
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
		Type:       ledger.EventLoanCancelled,
		ItemId:     p.ItemId,
		PositionId: p.PositionId,
		Actor:      caller.ToLower(),
		Amount:     p.Amount,
	})
	return nil
}

// FundLoan locks the lender in and starts the clock. The borrower is
// credited loanAmount minus the platform fee, which is computed on
// loanAmount at the position's snapshotted rate.
func (im *impl) FundLoan(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateLoan || p.Loan.Funded() {
		return domain.ErrInvalidStateForOperation
	}
	if payment == nil || payment.Cmp(p.Loan.LoanAmount) != 0 {
		return domain.ErrIncorrectPayment
	}

	platformOwner, err := im.repo.PlatformOwner(c)
	if err != nil {
		return err
	}

	fee := feeCut(p.Loan.LoanAmount, p.MarketFeeBps)
	proceeds := new(big.Int).Sub(p.Loan.LoanAmount, fee)

	p.Loan.Lender = caller.ToLower()
	p.Loan.Deadline = im.clock.Now().Add(time.Duration(p.Loan.DurationMinutes) * time.Minute)
	if err := im.repo.SavePosition(c, p); err != nil {
		return err
	}

	if err := im.repo.AddBalance(c, platformOwner, fee); err != nil {
		return err
	}
	if err := im.repo.AddBalance(c, p.Owner, proceeds); err != nil {
		return err
	}

	im.met.BumpSum("loan.funded", 1)
	im.appendEvent(c, &ledger.Event{
		Type:         ledger.EventLoanFunded,
		ItemId:       p.ItemId,
		PositionId:   p.PositionId,
		Actor:        caller.ToLower(),
		Counterparty: p.Owner,
		Value:        p.Loan.LoanAmount.String(),
	})
	return nil
}

// RepayLoan settles the debt. Borrower-only; payment must equal
// loanAmount+feeAmount exactly, the full repayment is credited to the
// lender and the collateral returns to the borrower.
func (im *impl) RepayLoan(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateLoan || !p.Loan.Funded() {
		return domain.ErrInvalidStateForOperation
	}
	if !p.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}

	owed := new(big.Int).Add(p.Loan.LoanAmount, p.Loan.FeeAmount)
	if payment == nil || payment.Cmp(owed) != 0 {
		c.WithFields(log.Fields{
			"positionId": positionId,
			"owed":       owed.String(),
		}).Warn("repayment mismatch")
		return domain.ErrIncorrectPayment
	}

	item, err := im.repo.GetItem(c, p.ItemId)
	if err != nil {
		return err
	}
	if err := im.repo.AddBalance(c, p.Loan.Lender, payment); err != nil {
		return err
	}
	if err := im.creditUnits(c, item, p.Owner, p.Amount); err != nil {
		return err
	}
	if err := im.repo.RemovePosition(c, p.PositionId); err != nil {
		return err
	}

	im.met.BumpSum("loan.repaid", 1)
	im.appendEvent(c, &ledger.Event{
		Type:         ledger.EventLoanRepaid,
		ItemId:       p.ItemId,
		PositionId:   p.PositionId,
		Actor:        caller.ToLower(),
		Counterparty: p.Loan.Lender,
		Amount:       p.Amount,
		Value:        payment.String(),
	})
	return nil
}

// LiquidateLoan lets the lender keep the collateral after the deadline. No
// funds move.
func (im *impl) LiquidateLoan(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	p, err := im.repo.GetPosition(c, positionId)
	if err != nil {
		return err
	}
	if p.State != ledger.StateLoan || !p.Loan.Funded() {
		return domain.ErrInvalidStateForOperation
	}
	if !p.Loan.Lender.Equals(caller) {
		return domain.ErrNotOwner
	}
	if im.clock.Now().Before(p.Loan.Deadline) {
		return domain.ErrDeadlineNotReached
	}

	item, err := im.repo.GetItem(c, p.ItemId)
	if err != nil {
		return err
	}
	if err := im.creditUnits(c, item, p.Loan.Lender, p.Amount); err != nil {
		return err
	}
	if err := im.repo.RemovePosition(c, p.PositionId); err != nil {
		return err
	}

	im.met.BumpSum("loan.liquidated", 1)
	im.appendEvent(c, &ledger.Event{
		Type:         ledger.EventLoanLiquidated,
		ItemId:       p.ItemId,
		PositionId:   p.PositionId,
		Actor:        caller.ToLower(),
		Counterparty: p.Owner,
		Amount:       p.Amount,
	})
	return nil
}
