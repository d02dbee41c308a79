package ledger

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
)

// Clock supplies the ledger's notion of now. Deadlines are never waited on;
// they are compared against the clock inside the terminating entry point.
type Clock interface {
	Now() time.Time
}

// WinnerSource reduces a seed to a point in [0, total). The production
// implementation mixes locally available ledger data through keccak256,
// which is a known weak-randomness design point carried over deliberately.
type WinnerSource interface {
	Pick(c ctx.Ctx, total *big.Int, seed []byte) *big.Int
}

type FindPositionsOptions struct {
	ItemId  *domain.ItemId
	Owner   *domain.Address
	State   *PositionState
	SortDir *domain.SortDir
	Offset  *int
	Limit   *int
}

type FindPositionsOptionsFunc func(*FindPositionsOptions) error

func GetFindPositionsOptions(opts ...FindPositionsOptionsFunc) (FindPositionsOptions, error) {
	res := FindPositionsOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithItemId(id domain.ItemId) FindPositionsOptionsFunc {
	return func(o *FindPositionsOptions) error {
		o.ItemId = &id
		return nil
	}
}

func WithOwner(owner domain.Address) FindPositionsOptionsFunc {
	return func(o *FindPositionsOptions) error {
		lowered := owner.ToLower()
		o.Owner = &lowered
		return nil
	}
}

func WithState(state PositionState) FindPositionsOptionsFunc {
	return func(o *FindPositionsOptions) error {
		if !state.IsValid() {
			return domain.ErrBadParamInput
		}
		o.State = &state
		return nil
	}
}

func WithSortDir(dir domain.SortDir) FindPositionsOptionsFunc {
	return func(o *FindPositionsOptions) error {
		o.SortDir = &dir
		return nil
	}
}

func WithPagination(offset, limit int) FindPositionsOptionsFunc {
	return func(o *FindPositionsOptions) error {
		if offset < 0 || limit < 0 {
			return domain.ErrBadParamInput
		}
		o.Offset = &offset
		o.Limit = &limit
		return nil
	}
}

type FindItemsOptions struct {
	Creator *domain.Address
	SortDir *domain.SortDir
	Offset  *int
	Limit   *int
}

type FindItemsOptionsFunc func(*FindItemsOptions) error

func GetFindItemsOptions(opts ...FindItemsOptionsFunc) (FindItemsOptions, error) {
	res := FindItemsOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func ItemWithCreator(creator domain.Address) FindItemsOptionsFunc {
	return func(o *FindItemsOptions) error {
		lowered := creator.ToLower()
		o.Creator = &lowered
		return nil
	}
}

func ItemWithSortDir(dir domain.SortDir) FindItemsOptionsFunc {
	return func(o *FindItemsOptions) error {
		o.SortDir = &dir
		return nil
	}
}

func ItemWithPagination(offset, limit int) FindItemsOptionsFunc {
	return func(o *FindItemsOptions) error {
		if offset < 0 || limit < 0 {
			return domain.ErrBadParamInput
		}
		o.Offset = &offset
		o.Limit = &limit
		return nil
	}
}

// Repo is the ledger arena: items and positions keyed by monotonic integer
// ids with O(1) lookup, the withdrawable balance map, and the mutable admin
// state (platform owner, fee table, retired latch). Secondary indices
// (by owner, by state, by item) are maintained transactionally alongside the
// primary maps, never recomputed per call. The repo is not safe for
// concurrent use; the usecase serializes every entry point.
type Repo interface {
	CreateItem(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId, creator domain.Address) (*Item, error)
	GetItem(c ctx.Ctx, id domain.ItemId) (*Item, error)
	GetItemByToken(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId) (*Item, error)
	AppendSale(c ctx.Ctx, id domain.ItemId, sale Sale) error
	FindItems(c ctx.Ctx, opts ...FindItemsOptionsFunc) ([]*Item, error)
	CountItems(c ctx.Ctx, opts ...FindItemsOptionsFunc) (int, error)
	CurrentItemId(c ctx.Ctx) (domain.ItemId, error)

	CreatePosition(c ctx.Ctx, p *Position) (*Position, error)
	GetPosition(c ctx.Ctx, id domain.PositionId) (*Position, error)
	SavePosition(c ctx.Ctx, p *Position) error
	RemovePosition(c ctx.Ctx, id domain.PositionId) error
	AvailablePosition(c ctx.Ctx, itemId domain.ItemId, owner domain.Address) (*Position, error)
	FindPositions(c ctx.Ctx, opts ...FindPositionsOptionsFunc) ([]*Position, error)
	CountPositions(c ctx.Ctx, opts ...FindPositionsOptionsFunc) (int, error)
	CurrentPositionId(c ctx.Ctx) (domain.PositionId, error)

	Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error)
	AddBalance(c ctx.Ctx, addr domain.Address, delta *big.Int) error
	TakeBalance(c ctx.Ctx, addr domain.Address) (*big.Int, error)
	Balances(c ctx.Ctx) (map[domain.Address]*big.Int, error)

	PlatformOwner(c ctx.Ctx) (domain.Address, error)
	SetPlatformOwner(c ctx.Ctx, addr domain.Address) error
	MarketFee(c ctx.Ctx, state PositionState) (int64, error)
	SetMarketFee(c ctx.Ctx, state PositionState, bps int64) error
	Retired(c ctx.Ctx) (bool, error)
	SetRetired(c ctx.Ctx) error
}

// ListKind selects the listing created together with a mint.
type ListKind string

const (
	ListNone        ListKind = "none"
	ListRegularSale ListKind = "sale"
	ListAuction     ListKind = "auction"
	ListRaffle      ListKind = "raffle"
	ListLoan        ListKind = "loan"
)

// MintAndListPayload drives the composite mint entry point. Amount units are
// minted to the caller, an item is registered, and depending on Kind the
// units are immediately listed. The item record is emitted before the
// position record.
type MintAndListPayload struct {
	Amount          int64          `json:"amount"`
	RoyaltyReceiver domain.Address `json:"royaltyReceiver"`
	RoyaltyBps      int64          `json:"royaltyBps"`
	Kind            ListKind       `json:"kind"`
	UnitPrice       *big.Int       `json:"unitPrice,omitempty"`
	DurationMinutes int64          `json:"durationMinutes,omitempty"`
	MinBid          *big.Int       `json:"minBid,omitempty"`
	LoanAmount      *big.Int       `json:"loanAmount,omitempty"`
	FeeAmount       *big.Int       `json:"feeAmount,omitempty"`
}

// MintResult returns both identifiers produced by a composite mint call, in
// emission order.
type MintResult struct {
	ItemId     domain.ItemId     `json:"itemId"`
	TokenId    domain.TokenId    `json:"tokenId"`
	PositionId domain.PositionId `json:"positionId"`
}

// Snapshot is the enumerable state handed to a migration port during
// cutover. Producing one requires the retired latch to be set.
type Snapshot struct {
	CurrentItemId     domain.ItemId           `json:"currentItemId"`
	CurrentPositionId domain.PositionId       `json:"currentPositionId"`
	StateCounts       map[PositionState]int   `json:"stateCounts"`
	Items             []*Item                 `json:"items"`
	Positions         []*Position             `json:"positions"`
	Balances          map[domain.Address]*big.Int `json:"balances"`
}

// UseCase is the position state machine and settlement ledger. Every method
// executes atomically with respect to all others; a guard failure aborts the
// call before any state change.
type UseCase interface {
	// minting and registration
	MintAndList(c ctx.Ctx, caller domain.Address, payload MintAndListPayload) (*MintResult, error)
	RegisterItem(c ctx.Ctx, caller, assetContract domain.Address, tokenId domain.TokenId) (domain.ItemId, error)
	SyncHeldUnits(c ctx.Ctx, caller domain.Address, itemId domain.ItemId) (*Position, error)

	// regular sale
	ListForSale(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount int64, unitPrice *big.Int) (domain.PositionId, error)
	Unlist(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error
	Buy(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, amount int64, payment *big.Int) error

	// auction
	CreateAuction(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount, durationMinutes int64, minBid *big.Int) (domain.PositionId, error)
	Bid(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error
	EndAuction(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error

	// raffle
	CreateRaffle(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount, durationMinutes int64) (domain.PositionId, error)
	EnterRaffle(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error
	EndRaffle(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error

	// loan
	ProposeLoan(c ctx.Ctx, caller domain.Address, itemId domain.ItemId, amount int64, loanAmount, feeAmount *big.Int, durationMinutes int64) (domain.PositionId, error)
	CancelLoanProposal(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error
	FundLoan(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error
	RepayLoan(c ctx.Ctx, caller domain.Address, positionId domain.PositionId, payment *big.Int) error
	LiquidateLoan(c ctx.Ctx, caller domain.Address, positionId domain.PositionId) error

	// balances
	Withdraw(c ctx.Ctx, caller domain.Address) (*big.Int, error)
	Balance(c ctx.Ctx, addr domain.Address) (*big.Int, error)

	// reads
	GetItem(c ctx.Ctx, id domain.ItemId) (*Item, error)
	GetPosition(c ctx.Ctx, id domain.PositionId) (*Position, error)
	FindItems(c ctx.Ctx, opts ...FindItemsOptionsFunc) ([]*Item, error)
	CountItems(c ctx.Ctx, opts ...FindItemsOptionsFunc) (int, error)
	FindPositions(c ctx.Ctx, opts ...FindPositionsOptionsFunc) ([]*Position, error)
	CountPositions(c ctx.Ctx, opts ...FindPositionsOptionsFunc) (int, error)

	// admin, restricted to the platform owner
	SetMarketFee(c ctx.Ctx, caller domain.Address, state PositionState, bps int64) error
	TransferOwnership(c ctx.Ctx, caller, newOwner domain.Address) error
	Retire(c ctx.Ctx, caller domain.Address) error
	PlatformOwner(c ctx.Ctx) (domain.Address, error)
	MarketFee(c ctx.Ctx, state PositionState) (int64, error)

	// migration cutover
	Snapshot(c ctx.Ctx) (*Snapshot, error)
}
