package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/governance"
)

type multisigRepoSuite struct {
	suite.Suite

	ctx ctx.Ctx
	im  governance.Repo
}

func (s *multisigRepoSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.im = NewMultisig(&MultisigCfg{
		Owners: []domain.Address{"0xA11CE", "0xb0b", "0xa11ce"},
		Quorum: 2,
	})
}

func TestMultisigRepoSuite(t *testing.T) {
	suite.Run(t, new(multisigRepoSuite))
}

func (s *multisigRepoSuite) TestOwnerSetLoweredAndDeduped() {
	owners, err := s.im.Owners(s.ctx)
	s.NoError(err)
	s.Equal([]domain.Address{"0xa11ce", "0xb0b"}, owners)

	isOwner, err := s.im.IsOwner(s.ctx, "0xA11CE")
	s.NoError(err)
	s.True(isOwner)
}

func (s *multisigRepoSuite) TestOwnerMutation() {
	s.NoError(s.im.AddOwner(s.ctx, "0xCARO1"))
	s.ErrorIs(s.im.AddOwner(s.ctx, "0xcaro1"), domain.ErrBadParamInput)

	owners, err := s.im.Owners(s.ctx)
	s.NoError(err)
	s.Equal([]domain.Address{"0xa11ce", "0xb0b", "0xcaro1"}, owners)

	s.NoError(s.im.RemoveOwner(s.ctx, "0xb0b"))
	s.ErrorIs(s.im.RemoveOwner(s.ctx, "0xb0b"), domain.ErrNotFound)

	owners, err = s.im.Owners(s.ctx)
	s.NoError(err)
	s.Equal([]domain.Address{"0xa11ce", "0xcaro1"}, owners)
}

func (s *multisigRepoSuite) TestProposalLifecycle() {
	created, err := s.im.CreateProposal(s.ctx, &governance.Proposal{
		Kind:      governance.KindTransaction,
		Proposer:  "0xA11CE",
		Approvals: map[domain.Address]bool{"0xa11ce": true},
		Tx:        &governance.Transaction{Target: "0x7ar9e7", Value: big.NewInt(1)},
	})
	s.NoError(err)
	s.Equal(int64(1), created.Id)
	s.Equal(domain.Address("0xa11ce"), created.Proposer)

	// returned copies are detached from the store
	created.Approvals["0xb0b"] = true
	stored, err := s.im.GetProposal(s.ctx, created.Id)
	s.NoError(err)
	s.Equal(1, stored.ApprovalCount())

	stored.Approvals["0xb0b"] = true
	s.NoError(s.im.SaveProposal(s.ctx, stored))
	again, err := s.im.GetProposal(s.ctx, created.Id)
	s.NoError(err)
	s.Equal(2, again.ApprovalCount())

	_, err = s.im.GetProposal(s.ctx, 99)
	s.ErrorIs(err, domain.ErrUnknownProposal)
	s.ErrorIs(s.im.SaveProposal(s.ctx, &governance.Proposal{Id: 99}), domain.ErrUnknownProposal)
}

func (s *multisigRepoSuite) TestFindProposalsFilters() {
	mk := func(proposer domain.Address, kind governance.ProposalKind, executed bool) {
		p, err := s.im.CreateProposal(s.ctx, &governance.Proposal{
			Kind:      kind,
			Proposer:  proposer,
			Approvals: map[domain.Address]bool{proposer: true},
		})
		s.Require().NoError(err)
		if executed {
			p.Executed = true
			s.Require().NoError(s.im.SaveProposal(s.ctx, p))
		}
	}
	mk("0xa11ce", governance.KindTransaction, false)
	mk("0xa11ce", governance.KindQuorumChange, true)
	mk("0xb0b", governance.KindTransaction, false)

	all, err := s.im.FindProposals(s.ctx)
	s.NoError(err)
	s.Len(all, 3)
	s.Equal(int64(1), all[0].Id)
	s.Equal(int64(3), all[2].Id)

	pending, err := s.im.FindProposals(s.ctx, governance.WithExecuted(false))
	s.NoError(err)
	s.Len(pending, 2)

	byAlice, err := s.im.FindProposals(s.ctx,
		governance.WithProposer("0xA11CE"), governance.WithKind(governance.KindTransaction))
	s.NoError(err)
	s.Len(byAlice, 1)
	s.Equal(int64(1), byAlice[0].Id)

	count, err := s.im.ActiveProposalCount(s.ctx, "0xa11ce")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *multisigRepoSuite) TestBalancesAndResidual() {
	s.NoError(s.im.AddBalance(s.ctx, "0xA11CE", big.NewInt(10)))
	s.NoError(s.im.AddBalance(s.ctx, "0xa11ce", big.NewInt(5)))

	bal, err := s.im.Balance(s.ctx, "0xa11ce")
	s.NoError(err)
	s.Equal(big.NewInt(15), bal)

	taken, err := s.im.TakeBalance(s.ctx, "0xa11ce")
	s.NoError(err)
	s.Equal(big.NewInt(15), taken)

	taken, err = s.im.TakeBalance(s.ctx, "0xa11ce")
	s.NoError(err)
	s.Zero(taken.Sign())

	res, err := s.im.Residual(s.ctx)
	s.NoError(err)
	s.Zero(res.Sign())

	s.NoError(s.im.SetResidual(s.ctx, big.NewInt(2)))
	res, err = s.im.Residual(s.ctx)
	s.NoError(err)
	s.Equal(big.NewInt(2), res)
}
