package usecase

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/governance"
	"github.com/fractionxyz/goapi/domain/ledger"
	governanceRepo "github.com/fractionxyz/goapi/stores/governance/repository"
	ledgerRepo "github.com/fractionxyz/goapi/stores/ledger/repository"
	ledgerUsecase "github.com/fractionxyz/goapi/stores/ledger/usecase"
	registryRepo "github.com/fractionxyz/goapi/stores/registry/repository"
)

const marketAddress = domain.Address("0xmarke7")

// dispatcherSuite wires governance as the marketplace's platform owner and
// drives ledger admin operations through executed proposals.
type dispatcherSuite struct {
	suite.Suite

	ctx    ctx.Ctx
	ledger ledger.UseCase
	im     governance.UseCase
}

func (s *dispatcherSuite) SetupTest() {
	s.ctx = ctx.Background()

	arena := ledgerRepo.NewArena(&ledgerRepo.ArenaCfg{
		PlatformOwner: govAddress,
		Fees: map[ledger.PositionState]int64{
			ledger.StateRegularSale: 250,
			ledger.StateAuction:     250,
			ledger.StateRaffle:      250,
			ledger.StateLoan:        250,
		},
	})
	s.ledger = ledgerUsecase.New(&ledgerUsecase.LedgerUseCaseCfg{
		Repo:          arena,
		Events:        ledgerRepo.NewInmemEventRepo(),
		Registry:      registryRepo.New("0xreg1s7ry"),
		MarketAddress: marketAddress,
	})

	repo := governanceRepo.NewMultisig(&governanceRepo.MultisigCfg{
		Owners: []domain.Address{alice, bob, carol},
		Quorum: 2,
	})
	s.im = New(&MultisigUseCaseCfg{
		Repo:       repo,
		Address:    govAddress,
		Ledger:     s.ledger,
		Dispatcher: NewLedgerDispatcher(s.ledger, govAddress),
	})
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(dispatcherSuite))
}

func (s *dispatcherSuite) executeOp(proposer, approver domain.Address, op adminOp) error {
	data, err := json.Marshal(op)
	s.Require().NoError(err)
	id, err := s.im.ProposeTransaction(s.ctx, proposer, govAddress, nil, data)
	s.Require().NoError(err)
	s.Require().NoError(s.im.Approve(s.ctx, approver, id))
	return s.im.Execute(s.ctx, proposer, id)
}

func (s *dispatcherSuite) TestSetMarketFeeThroughProposal() {
	s.NoError(s.executeOp(alice, bob, adminOp{
		Op:    opSetMarketFee,
		State: int(ledger.StateAuction),
		Bps:   500,
	}))

	bps, err := s.ledger.MarketFee(s.ctx, ledger.StateAuction)
	s.NoError(err)
	s.Equal(int64(500), bps)

	// other states untouched
	bps, err = s.ledger.MarketFee(s.ctx, ledger.StateRegularSale)
	s.NoError(err)
	s.Equal(int64(250), bps)
}

func (s *dispatcherSuite) TestRetireThroughProposal() {
	s.NoError(s.executeOp(alice, bob, adminOp{Op: opRetire}))

	_, err := s.ledger.MintAndList(s.ctx, alice, ledger.MintAndListPayload{
		Amount: 10,
		Kind:   ledger.ListNone,
	})
	s.ErrorIs(err, domain.ErrAlreadyRetired)
}

func (s *dispatcherSuite) TestTransferOwnershipThroughProposal() {
	s.NoError(s.executeOp(alice, bob, adminOp{
		Op:       opTransferOwnership,
		NewOwner: dave,
	}))

	owner, err := s.ledger.PlatformOwner(s.ctx)
	s.NoError(err)
	s.Equal(dave, owner)

	// governance lost its admin rights; the next proposal fails at dispatch
	// and stays executable.
	err = s.executeOp(carol, bob, adminOp{Op: opRetire})
	s.ErrorIs(err, domain.ErrNotOwner)
}

func (s *dispatcherSuite) TestMalformedOpRejected() {
	id, err := s.im.ProposeTransaction(s.ctx, alice, govAddress, nil, []byte("not-json"))
	s.NoError(err)
	s.NoError(s.im.Approve(s.ctx, bob, id))
	s.ErrorIs(s.im.Execute(s.ctx, alice, id), domain.ErrBadParamInput)

	p, err := s.im.GetProposal(s.ctx, id)
	s.NoError(err)
	s.False(p.Executed)
}

func (s *dispatcherSuite) TestGovernanceCollectsFees() {
	// mint and sell so the platform fee accrues to the governance address
	res, err := s.ledger.MintAndList(s.ctx, bob, ledger.MintAndListPayload{
		Amount: 100,
		Kind:   ledger.ListNone,
	})
	s.Require().NoError(err)

	positionId, err := s.ledger.ListForSale(s.ctx, bob, res.ItemId, 100, big.NewInt(1000))
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Buy(s.ctx, carol, positionId, 100, big.NewInt(100000)))

	// fee is 2.5% of the sale
	pulled, err := s.im.PullFromLedger(s.ctx, alice)
	s.NoError(err)
	s.Equal(big.NewInt(2500), pulled)

	// 2500 / 3 owners = 833 each, 1 retained
	bal, err := s.im.Balance(s.ctx, alice)
	s.NoError(err)
	s.Equal(big.NewInt(833), bal)
}
