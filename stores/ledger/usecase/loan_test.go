package usecase

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

func (s *ledgerSuite) proposeLoanFixture(units int64, loanAmount, feeAmount *big.Int, durationMinutes int64) (domain.ItemId, domain.PositionId) {
	itemId := s.mint(alice, units)
	posId, err := s.im.ProposeLoan(s.c, alice, itemId, units, loanAmount, feeAmount, durationMinutes)
	s.Require().NoError(err)
	return itemId, posId
}

func (s *ledgerSuite) TestLoanEndToEnd() {
	itemId, posId := s.proposeLoanFixture(1000, e18(200), e18(20), 1)

	// wrong amount cannot fund
	s.ErrorIs(s.im.FundLoan(s.c, bob, posId, e18(199)), domain.ErrIncorrectPayment)

	s.Require().NoError(s.im.FundLoan(s.c, bob, posId, e18(200)))

	// borrower is credited loanAmount minus the platform cut on loanAmount
	fee := new(big.Int).Quo(new(big.Int).Mul(e18(200), big.NewInt(250)), big.NewInt(10000))
	expected := new(big.Int).Sub(e18(200), fee)
	s.Equal(expected, s.balance(alice))
	s.Equal(fee, s.balance(platformOwner))

	p, err := s.im.GetPosition(s.c, posId)
	s.Require().NoError(err)
	s.Equal(bob, p.Loan.Lender)
	s.True(p.Loan.Funded())

	// double funding is rejected
	s.ErrorIs(s.im.FundLoan(s.c, carol, posId, e18(200)), domain.ErrInvalidStateForOperation)

	// liquidation must wait for the deadline
	s.ErrorIs(s.im.LiquidateLoan(s.c, bob, posId), domain.ErrDeadlineNotReached)

	s.clock.Advance(2 * time.Minute)
	// only the lender may liquidate
	s.ErrorIs(s.im.LiquidateLoan(s.c, carol, posId), domain.ErrNotOwner)
	s.Require().NoError(s.im.LiquidateLoan(s.c, bob, posId))

	// the lender keeps the collateral, no funds moved on liquidation
	collateral, err := s.repo.AvailablePosition(s.c, itemId, bob)
	s.Require().NoError(err)
	s.Equal(int64(1000), collateral.Amount)
	s.Equal(expected, s.balance(alice))
}

func (s *ledgerSuite) TestRepayLoan() {
	itemId, posId := s.proposeLoanFixture(10, e18(200), e18(20), 60)
	s.Require().NoError(s.im.FundLoan(s.c, bob, posId, e18(200)))

	// only the borrower repays, and only the exact debt
	s.ErrorIs(s.im.RepayLoan(s.c, carol, posId, e18(220)), domain.ErrNotOwner)
	s.ErrorIs(s.im.RepayLoan(s.c, alice, posId, e18(200)), domain.ErrIncorrectPayment)

	s.Require().NoError(s.im.RepayLoan(s.c, alice, posId, e18(220)))
	s.Equal(e18(220), s.balance(bob))

	collateral, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(10), collateral.Amount)

	_, err = s.im.GetPosition(s.c, posId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ledgerSuite) TestCancelLoanProposal() {
	itemId, posId := s.proposeLoanFixture(10, e18(200), e18(20), 60)

	s.ErrorIs(s.im.CancelLoanProposal(s.c, bob, posId), domain.ErrNotOwner)
	s.Require().NoError(s.im.CancelLoanProposal(s.c, alice, posId))

	avail, err := s.repo.AvailablePosition(s.c, itemId, alice)
	s.Require().NoError(err)
	s.Equal(int64(10), avail.Amount)

	// a funded loan cannot be cancelled
	_, posId = s.proposeLoanFixture(5, e18(10), e18(1), 60)
	s.Require().NoError(s.im.FundLoan(s.c, bob, posId, e18(10)))
	s.ErrorIs(s.im.CancelLoanProposal(s.c, alice, posId), domain.ErrInvalidStateForOperation)
}

func (s *ledgerSuite) TestRepayUnfundedLoan() {
	_, posId := s.proposeLoanFixture(10, e18(200), e18(20), 60)
	s.ErrorIs(s.im.RepayLoan(s.c, alice, posId, e18(220)), domain.ErrInvalidStateForOperation)
	s.ErrorIs(s.im.LiquidateLoan(s.c, bob, posId), domain.ErrInvalidStateForOperation)
}

func (s *ledgerSuite) TestLoanJournal() {
	_, posId := s.proposeLoanFixture(10, e18(200), e18(20), 60)
	s.Require().NoError(s.im.FundLoan(s.c, bob, posId, e18(200)))
	s.Require().NoError(s.im.RepayLoan(s.c, alice, posId, e18(220)))

	evs, err := s.events.FindAll(s.c, ledger.EventWithPositionId(posId))
	s.Require().NoError(err)
	s.Require().Len(evs, 3)
	s.Equal(ledger.EventLoanProposed, evs[0].Type)
	s.Equal(ledger.EventLoanFunded, evs[1].Type)
	s.Equal(ledger.EventLoanRepaid, evs[2].Type)
}
