// Package governance declares the multi-signature protocol that gates every
// privileged marketplace configuration change behind an owner-quorum
// approval flow.
package governance

import (
	"math/big"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
)

type ProposalKind string

const (
	KindTransaction  ProposalKind = "transaction"
	KindOwnerChange  ProposalKind = "ownerChange"
	KindQuorumChange ProposalKind = "quorumChange"
)

// Transaction is an arbitrary privileged call dispatched on execution.
type Transaction struct {
	Target domain.Address `json:"target"`
	Value  *big.Int       `json:"value"`
	Data   []byte         `json:"data"`
}

type OwnerChange struct {
	Address domain.Address `json:"address"`
	Add     bool           `json:"add"`
}

type QuorumChange struct {
	NewQuorum int `json:"newQuorum"`
}

// Proposal is one pending or executed governance action. The three kinds
// share the approval and execution lifecycle; exactly one payload is set.
type Proposal struct {
	Id        int64                   `json:"id"`
	Kind      ProposalKind            `json:"kind"`
	Proposer  domain.Address          `json:"proposer"`
	Approvals map[domain.Address]bool `json:"approvals"`
	Executed  bool                    `json:"executed"`

	Tx           *Transaction  `json:"tx,omitempty"`
	OwnerChange  *OwnerChange  `json:"ownerChange,omitempty"`
	QuorumChange *QuorumChange `json:"quorumChange,omitempty"`
}

func (p *Proposal) ApprovalCount() int {
	return len(p.Approvals)
}

// Dispatcher performs an executed transaction proposal's call. The wiring
// decides how Data is decoded into a marketplace admin operation.
type Dispatcher interface {
	Dispatch(c ctx.Ctx, target domain.Address, value *big.Int, data []byte) error
}

// LedgerFunds is the narrow port through which governance pulls its
// accumulated marketplace balance.
type LedgerFunds interface {
	Withdraw(c ctx.Ctx, caller domain.Address) (*big.Int, error)
}

// Repo holds the multisig state: owner set, quorum, proposals, per-owner
// internal balances and the undistributed residual. Not safe for concurrent
// use; the usecase serializes access.
type Repo interface {
	Owners(c ctx.Ctx) ([]domain.Address, error)
	IsOwner(c ctx.Ctx, addr domain.Address) (bool, error)
	AddOwner(c ctx.Ctx, addr domain.Address) error
	RemoveOwner(c ctx.Ctx, addr domain.Address) error
	Quorum(c ctx.Ctx) (int, error)
	SetQuorum(c ctx.Ctx, quorum int) error

	CreateProposal(c ctx.Ctx, p *Proposal) (*Proposal, error)
	GetProposal(c ctx.Ctx, id int64) (*Proposal, error)
	SaveProposal(c ctx.Ctx, p *Proposal) error
	FindProposals(c ctx.Ctx, opts ...FindProposalsOptionsFunc) ([]*Proposal, error)
	ActiveProposalCount(c ctx.Ctx, proposer domain.Address) (int, error)

	Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error)
	AddBalance(c ctx.Ctx, addr domain.Address, delta *big.Int) error
	TakeBalance(c ctx.Ctx, addr domain.Address) (*big.Int, error)
	Residual(c ctx.Ctx) (*big.Int, error)
	SetResidual(c ctx.Ctx, v *big.Int) error
}

type FindProposalsOptions struct {
	Proposer *domain.Address
	Executed *bool
	Kind     *ProposalKind
}

type FindProposalsOptionsFunc func(*FindProposalsOptions) error

func GetFindProposalsOptions(opts ...FindProposalsOptionsFunc) (FindProposalsOptions, error) {
	res := FindProposalsOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithProposer(addr domain.Address) FindProposalsOptionsFunc {
	return func(o *FindProposalsOptions) error {
		lowered := addr.ToLower()
		o.Proposer = &lowered
		return nil
	}
}

func WithExecuted(executed bool) FindProposalsOptionsFunc {
	return func(o *FindProposalsOptions) error {
		o.Executed = &executed
		return nil
	}
}

func WithKind(kind ProposalKind) FindProposalsOptionsFunc {
	return func(o *FindProposalsOptions) error {
		o.Kind = &kind
		return nil
	}
}

// UseCase is the governance protocol. All mutating methods are owner-only.
type UseCase interface {
	Owners(c ctx.Ctx) ([]domain.Address, error)
	Quorum(c ctx.Ctx) (int, error)

	ProposeTransaction(c ctx.Ctx, caller, target domain.Address, value *big.Int, data []byte) (int64, error)
	ProposeOwnerChange(c ctx.Ctx, caller, addr domain.Address, add bool) (int64, error)
	ProposeQuorumChange(c ctx.Ctx, caller domain.Address, newQuorum int) (int64, error)
	Approve(c ctx.Ctx, caller domain.Address, proposalId int64) error
	Execute(c ctx.Ctx, caller domain.Address, proposalId int64) error
	GetProposal(c ctx.Ctx, proposalId int64) (*Proposal, error)
	FindProposals(c ctx.Ctx, opts ...FindProposalsOptionsFunc) ([]*Proposal, error)

	// fee withdrawal flow; PullFromLedger is a single-owner operational
	// action, quorum is not required.
	PullFromLedger(c ctx.Ctx, caller domain.Address) (*big.Int, error)
	Withdraw(c ctx.Ctx, caller domain.Address) (*big.Int, error)
	Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error)
}
