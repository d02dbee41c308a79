package repository

import (
	"math/big"
	"sort"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/governance"
)

// MultisigCfg seeds the owner set and quorum.
type MultisigCfg struct {
	Owners []domain.Address
	Quorum int
}

// multisig is the in-memory governance store. Proposals are kept in a map
// keyed by monotonic id; owner order is insertion order.
type multisig struct {
	owners   []domain.Address
	ownerSet map[domain.Address]struct{}
	quorum   int

	nextProposalId int64
	proposals      map[int64]*governance.Proposal

	balances map[domain.Address]*big.Int
	residual *big.Int
}

func NewMultisig(cfg *MultisigCfg) governance.Repo {
	im := &multisig{
		ownerSet:  map[domain.Address]struct{}{},
		quorum:    cfg.Quorum,
		proposals: map[int64]*governance.Proposal{},
		balances:  map[domain.Address]*big.Int{},
		residual:  new(big.Int),
	}
	for _, owner := range cfg.Owners {
		lowered := owner.ToLower()
		if _, ok := im.ownerSet[lowered]; ok {
			continue
		}
		im.owners = append(im.owners, lowered)
		im.ownerSet[lowered] = struct{}{}
	}
	return im
}

func (im *multisig) Owners(c ctx.Ctx) ([]domain.Address, error) {
	out := make([]domain.Address, len(im.owners))
	copy(out, im.owners)
	return out, nil
}

func (im *multisig) IsOwner(c ctx.Ctx, addr domain.Address) (bool, error) {
	_, ok := im.ownerSet[addr.ToLower()]
	return ok, nil
}

func (im *multisig) AddOwner(c ctx.Ctx, addr domain.Address) error {
	lowered := addr.ToLower()
	if _, ok := im.ownerSet[lowered]; ok {
		return domain.ErrBadParamInput
	}
	im.owners = append(im.owners, lowered)
	im.ownerSet[lowered] = struct{}{}
	return nil
}

func (im *multisig) RemoveOwner(c ctx.Ctx, addr domain.Address) error {
	lowered := addr.ToLower()
	if _, ok := im.ownerSet[lowered]; !ok {
		return domain.ErrNotFound
	}
	delete(im.ownerSet, lowered)
	for i, owner := range im.owners {
		if owner == lowered {
			im.owners = append(im.owners[:i], im.owners[i+1:]...)
			break
		}
	}
	return nil
}

func (im *multisig) Quorum(c ctx.Ctx) (int, error) {
	return im.quorum, nil
}

func (im *multisig) SetQuorum(c ctx.Ctx, quorum int) error {
	im.quorum = quorum
	return nil
}

func (im *multisig) CreateProposal(c ctx.Ctx, p *governance.Proposal) (*governance.Proposal, error) {
	im.nextProposalId++
	cp := copyProposal(p)
	cp.Id = im.nextProposalId
	cp.Proposer = p.Proposer.ToLower()
	im.proposals[cp.Id] = cp
	return copyProposal(cp), nil
}

func (im *multisig) GetProposal(c ctx.Ctx, id int64) (*governance.Proposal, error) {
	p, ok := im.proposals[id]
	if !ok {
		return nil, domain.ErrUnknownProposal
	}
	return copyProposal(p), nil
}

func (im *multisig) SaveProposal(c ctx.Ctx, p *governance.Proposal) error {
	if _, ok := im.proposals[p.Id]; !ok {
		return domain.ErrUnknownProposal
	}
	im.proposals[p.Id] = copyProposal(p)
	return nil
}

func (im *multisig) FindProposals(c ctx.Ctx, opts ...governance.FindProposalsOptionsFunc) ([]*governance.Proposal, error) {
	o, err := governance.GetFindProposalsOptions(opts...)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(im.proposals))
	for id, p := range im.proposals {
		if o.Proposer != nil && !p.Proposer.Equals(*o.Proposer) {
			continue
		}
		if o.Executed != nil && p.Executed != *o.Executed {
			continue
		}
		if o.Kind != nil && p.Kind != *o.Kind {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	res := make([]*governance.Proposal, 0, len(ids))
	for _, id := range ids {
		res = append(res, copyProposal(im.proposals[id]))
	}
	return res, nil
}

func (im *multisig) ActiveProposalCount(c ctx.Ctx, proposer domain.Address) (int, error) {
	count := 0
	for _, p := range im.proposals {
		if p.Proposer.Equals(proposer) && !p.Executed {
			count++
		}
	}
	return count, nil
}

func (im *multisig) Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	if b, ok := im.balances[addr.ToLower()]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (im *multisig) AddBalance(c ctx.Ctx, addr domain.Address, delta *big.Int) error {
	if delta.Sign() == 0 {
		return nil
	}
	key := addr.ToLower()
	if _, ok := im.balances[key]; !ok {
		im.balances[key] = new(big.Int)
	}
	im.balances[key].Add(im.balances[key], delta)
	return nil
}

func (im *multisig) TakeBalance(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	key := addr.ToLower()
	b, ok := im.balances[key]
	if !ok {
		return new(big.Int), nil
	}
	delete(im.balances, key)
	return b, nil
}

func (im *multisig) Residual(c ctx.Ctx) (*big.Int, error) {
	return new(big.Int).Set(im.residual), nil
}

func (im *multisig) SetResidual(c ctx.Ctx, v *big.Int) error {
	im.residual = new(big.Int).Set(v)
	return nil
}

func copyProposal(p *governance.Proposal) *governance.Proposal {
	cp := *p
	cp.Approvals = make(map[domain.Address]bool, len(p.Approvals))
	for addr, ok := range p.Approvals {
		cp.Approvals[addr] = ok
	}
	return &cp
}
