package usecase

import (
	"math/big"
	"sync"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/governance"
)

const defaultMaxActiveProposals = 1

type MultisigUseCaseCfg struct {
	Repo governance.Repo

	// Address is the governance module's own address: the platform-owner
	// identity it holds fee balances under in the marketplace ledger.
	Address domain.Address

	// Ledger is the port PullFromLedger drains.
	Ledger governance.LedgerFunds

	// Dispatcher performs executed transaction proposals. Optional; with no
	// dispatcher every transaction proposal fails at execution.
	Dispatcher governance.Dispatcher

	// MaxActiveProposals caps active proposals per owner. Defaults to 1.
	MaxActiveProposals int
}

// impl serializes the whole protocol behind one mutex, mirroring the
// ledger's execution model.
type impl struct {
	mu sync.Mutex

	repo       governance.Repo
	address    domain.Address
	ledger     governance.LedgerFunds
	dispatcher governance.Dispatcher
	maxActive  int
}

func New(cfg *MultisigUseCaseCfg) governance.UseCase {
	maxActive := cfg.MaxActiveProposals
	if maxActive <= 0 {
		maxActive = defaultMaxActiveProposals
	}
	return &impl{
		repo:       cfg.Repo,
		address:    cfg.Address.ToLower(),
		ledger:     cfg.Ledger,
		dispatcher: cfg.Dispatcher,
		maxActive:  maxActive,
	}
}

func (im *impl) Owners(c ctx.Ctx) ([]domain.Address, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.Owners(c)
}

func (im *impl) Quorum(c ctx.Ctx) (int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.Quorum(c)
}

func (im *impl) ProposeTransaction(c ctx.Ctx, caller, target domain.Address, value *big.Int, data []byte) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if value == nil {
		value = new(big.Int)
	}
	return im.propose(c, caller, &governance.Proposal{
		Kind: governance.KindTransaction,
		Tx: &governance.Transaction{
			Target: target.ToLower(),
			Value:  new(big.Int).Set(value),
			Data:   data,
		},
	})
}

func (im *impl) ProposeOwnerChange(c ctx.Ctx, caller, addr domain.Address, add bool) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if addr.IsEmpty() {
		return 0, domain.ErrInvalidAddress
	}
	return im.propose(c, caller, &governance.Proposal{
		Kind: governance.KindOwnerChange,
		OwnerChange: &governance.OwnerChange{
			Address: addr.ToLower(),
			Add:     add,
		},
	})
}

func (im *impl) ProposeQuorumChange(c ctx.Ctx, caller domain.Address, newQuorum int) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if newQuorum < 1 {
		return 0, domain.ErrInvalidQuorum
	}
	return im.propose(c, caller, &governance.Proposal{
		Kind:         governance.KindQuorumChange,
		QuorumChange: &governance.QuorumChange{NewQuorum: newQuorum},
	})
}

// propose records the proposal with the proposer's implicit self-approval.
func (im *impl) propose(c ctx.Ctx, caller domain.Address, p *governance.Proposal) (int64, error) {
	if err := im.guardOwner(c, caller); err != nil {
		return 0, err
	}

	active, err := im.repo.ActiveProposalCount(c, caller)
	if err != nil {
		return 0, err
	}
	if active >= im.maxActive {
		return 0, domain.ErrTooManyActiveProposals
	}

	p.Proposer = caller.ToLower()
	p.Approvals = map[domain.Address]bool{caller.ToLower(): true}

	created, err := im.repo.CreateProposal(c, p)
	if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"kind": p.Kind,
		}).Error("failed to repo.CreateProposal")
		return 0, err
	}
	return created.Id, nil
}

func (im *impl) Approve(c ctx.Ctx, caller domain.Address, proposalId int64) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardOwner(c, caller); err != nil {
		return err
	}

	p, err := im.repo.GetProposal(c, proposalId)
	if err != nil {
		return err
	}
	if p.Executed {
		return domain.ErrAlreadyExecuted
	}
	if p.Approvals[caller.ToLower()] {
		return domain.ErrAlreadyApproved
	}

	p.Approvals[caller.ToLower()] = true
	return im.repo.SaveProposal(c, p)
}

// Execute dispatches a proposal once quorum is reached. The owner-set and
// quorum invariants are enforced here, at execution time, so a proposal
// that was valid when filed can still be rejected against current state.
func (im *impl) Execute(c ctx.Ctx, caller domain.Address, proposalId int64) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardOwner(c, caller); err != nil {
		return err
	}

	p, err := im.repo.GetProposal(c, proposalId)
	if err != nil {
		return err
	}
	if p.Executed {
		return domain.ErrAlreadyExecuted
	}

	quorum, err := im.repo.Quorum(c)
	if err != nil {
		return err
	}
	if p.ApprovalCount() < quorum {
		return domain.ErrQuorumNotMet
	}

	if err := im.dispatch(c, p); err != nil {
		return err
	}

	p.Executed = true
	return im.repo.SaveProposal(c, p)
}

func (im *impl) dispatch(c ctx.Ctx, p *governance.Proposal) error {
	switch p.Kind {
	case governance.KindTransaction:
		if im.dispatcher == nil {
			return domain.ErrBadParamInput
		}
		if err := im.dispatcher.Dispatch(c, p.Tx.Target, p.Tx.Value, p.Tx.Data); err != nil {
			c.WithFields(log.Fields{
				"err":        err,
				"proposalId": p.Id,
				"target":     p.Tx.Target,
			}).Error("failed to dispatcher.Dispatch")
			return err
		}
		return nil

	case governance.KindOwnerChange:
		if p.OwnerChange.Add {
			return im.repo.AddOwner(c, p.OwnerChange.Address)
		}
		owners, err := im.repo.Owners(c)
		if err != nil {
			return err
		}
		quorum, err := im.repo.Quorum(c)
		if err != nil {
			return err
		}
		if quorum > len(owners)-1 {
			return domain.ErrInvalidQuorum
		}
		return im.repo.RemoveOwner(c, p.OwnerChange.Address)

	case governance.KindQuorumChange:
		owners, err := im.repo.Owners(c)
		if err != nil {
			return err
		}
		if p.QuorumChange.NewQuorum < 1 || p.QuorumChange.NewQuorum > len(owners) {
			return domain.ErrInvalidQuorum
		}
		return im.repo.SetQuorum(c, p.QuorumChange.NewQuorum)
	}
	return domain.ErrBadParamInput
}

func (im *impl) GetProposal(c ctx.Ctx, proposalId int64) (*governance.Proposal, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.GetProposal(c, proposalId)
}

func (im *impl) FindProposals(c ctx.Ctx, opts ...governance.FindProposalsOptionsFunc) ([]*governance.Proposal, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.FindProposals(c, opts...)
}

// PullFromLedger drains the governance address's marketplace balance and
// splits it evenly across current owners. The non-divisible remainder stays
// in governance custody. Single-owner operational action; quorum does not
// apply.
func (im *impl) PullFromLedger(c ctx.Ctx, caller domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.guardOwner(c, caller); err != nil {
		return nil, err
	}

	amount, err := im.ledger.Withdraw(c, im.address)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to ledger.Withdraw")
		return nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil
	}

	owners, err := im.repo.Owners(c)
	if err != nil {
		return nil, err
	}

	share := new(big.Int).Quo(amount, big.NewInt(int64(len(owners))))
	for _, owner := range owners {
		if err := im.repo.AddBalance(c, owner, share); err != nil {
			return nil, err
		}
	}

	distributed := new(big.Int).Mul(share, big.NewInt(int64(len(owners))))
	remainder := new(big.Int).Sub(amount, distributed)
	if remainder.Sign() > 0 {
		residual, err := im.repo.Residual(c)
		if err != nil {
			return nil, err
		}
		if err := im.repo.SetResidual(c, residual.Add(residual, remainder)); err != nil {
			return nil, err
		}
	}
	return amount, nil
}

func (im *impl) Withdraw(c ctx.Ctx, caller domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.TakeBalance(c, caller)
}

func (im *impl) Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.Balance(c, addr)
}

func (im *impl) guardOwner(c ctx.Ctx, caller domain.Address) error {
	isOwner, err := im.repo.IsOwner(c, caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return domain.ErrNotOwner
	}
	return nil
}
