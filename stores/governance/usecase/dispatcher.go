package usecase

import (
	"encoding/json"
	"math/big"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/governance"
	"github.com/fractionxyz/goapi/domain/ledger"
)

// adminOp is the payload of an executed transaction proposal targeting the
// marketplace. Exactly one op is performed per dispatch.
type adminOp struct {
	Op       string         `json:"op"`
	State    int            `json:"state,omitempty"`
	Bps      int64          `json:"bps,omitempty"`
	NewOwner domain.Address `json:"newOwner,omitempty"`
}

const (
	opSetMarketFee      = "setMarketFee"
	opTransferOwnership = "transferOwnership"
	opRetire            = "retire"
)

// ledgerDispatcher executes transaction proposals against the marketplace
// ledger's admin surface. It acts as the governance address, which the
// ledger must recognize as its platform owner.
type ledgerDispatcher struct {
	ledger  ledger.UseCase
	address domain.Address
}

func NewLedgerDispatcher(lu ledger.UseCase, address domain.Address) governance.Dispatcher {
	return &ledgerDispatcher{
		ledger:  lu,
		address: address.ToLower(),
	}
}

func (d *ledgerDispatcher) Dispatch(c ctx.Ctx, target domain.Address, value *big.Int, data []byte) error {
	op := adminOp{}
	if err := json.Unmarshal(data, &op); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"target": target,
		}).Error("failed to decode admin op")
		return domain.ErrBadParamInput
	}

	switch op.Op {
	case opSetMarketFee:
		return d.ledger.SetMarketFee(c, d.address, ledger.PositionState(op.State), op.Bps)
	case opTransferOwnership:
		return d.ledger.TransferOwnership(c, d.address, op.NewOwner)
	case opRetire:
		return d.ledger.Retire(c, d.address)
	}
	return domain.ErrBadParamInput
}
