package ledger

import (
	"math/big"
	"time"

	"github.com/fractionxyz/goapi/domain"
)

// PositionState is the market state a batch of units is currently in.
// The numeric values are part of the external query surface.
type PositionState int

const (
	StateAvailable PositionState = iota
	StateRegularSale
	StateAuction
	StateRaffle
	StateLoan
)

var stateNames = map[PositionState]string{
	StateAvailable:   "available",
	StateRegularSale: "regularSale",
	StateAuction:     "auction",
	StateRaffle:      "raffle",
	StateLoan:        "loan",
}

func (s PositionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s PositionState) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// ListingStates are the states a position enters through a listing-creating
// entry point. They are also the keys of the market fee table.
var ListingStates = []PositionState{StateRegularSale, StateAuction, StateRaffle, StateLoan}

// AuctionData is the state payload of an Auction position.
type AuctionData struct {
	Deadline      time.Time      `json:"deadline"`
	MinBid        *big.Int       `json:"minBid"`
	HighestBidder domain.Address `json:"highestBidder"`
	HighestBid    *big.Int       `json:"highestBid"`

	// contributions accumulates escrowed funds per bidder; a bidder may top
	// up, and an outbid bidder is refunded their full contribution.
	Contributions map[domain.Address]*big.Int `json:"-"`
}

func (d *AuctionData) Copy() *AuctionData {
	cp := *d
	if d.MinBid != nil {
		cp.MinBid = new(big.Int).Set(d.MinBid)
	}
	if d.HighestBid != nil {
		cp.HighestBid = new(big.Int).Set(d.HighestBid)
	}
	if d.Contributions != nil {
		cp.Contributions = make(map[domain.Address]*big.Int, len(d.Contributions))
		for addr, v := range d.Contributions {
			cp.Contributions[addr] = new(big.Int).Set(v)
		}
	}
	return &cp
}

// RaffleEntry is one address's total contribution to a raffle.
type RaffleEntry struct {
	Address domain.Address `json:"address"`
	Amount  *big.Int       `json:"amount"`
}

// RaffleData is the state payload of a Raffle position. Entries are merged
// per address in order of first entry.
type RaffleData struct {
	Deadline       time.Time     `json:"deadline"`
	TotalValue     *big.Int      `json:"totalValue"`
	Entries        []RaffleEntry `json:"entries"`
	TotalAddresses int           `json:"totalAddresses"`
}

func (d *RaffleData) Copy() *RaffleData {
	cp := *d
	if d.TotalValue != nil {
		cp.TotalValue = new(big.Int).Set(d.TotalValue)
	}
	cp.Entries = make([]RaffleEntry, len(d.Entries))
	for i, e := range d.Entries {
		cp.Entries[i] = e
		if e.Amount != nil {
			cp.Entries[i].Amount = new(big.Int).Set(e.Amount)
		}
	}
	return &cp
}

// LoanData is the state payload of a Loan position. Lender is empty and
// Deadline is zero until the loan is funded.
type LoanData struct {
	LoanAmount      *big.Int       `json:"loanAmount"`
	FeeAmount       *big.Int       `json:"feeAmount"`
	DurationMinutes int64          `json:"durationMinutes"`
	Deadline        time.Time      `json:"deadline"`
	Lender          domain.Address `json:"lender"`
}

func (l *LoanData) Funded() bool {
	return !l.Lender.IsEmpty()
}

func (l *LoanData) Copy() *LoanData {
	cp := *l
	if l.LoanAmount != nil {
		cp.LoanAmount = new(big.Int).Set(l.LoanAmount)
	}
	if l.FeeAmount != nil {
		cp.FeeAmount = new(big.Int).Set(l.FeeAmount)
	}
	return &cp
}

// Position is a quantity of one item's units in exactly one market state.
// MarketFeeBps is snapshotted from the fee table at creation time; later fee
// changes never alter open positions.
type Position struct {
	PositionId   domain.PositionId `json:"positionId"`
	ItemId       domain.ItemId     `json:"itemId"`
	Owner        domain.Address    `json:"owner"`
	Amount       int64             `json:"amount"`
	Price        *big.Int          `json:"price"`
	MarketFeeBps int64             `json:"marketFeeBps"`
	State        PositionState     `json:"state"`

	Auction *AuctionData `json:"auctionData,omitempty"`
	Raffle  *RaffleData  `json:"raffleData,omitempty"`
	Loan    *LoanData    `json:"loanData,omitempty"`
}

// Copy detaches the position from the store's live record, state payload
// included, so a snapshot cannot observe later mutations.
func (p *Position) Copy() *Position {
	cp := *p
	if p.Price != nil {
		cp.Price = new(big.Int).Set(p.Price)
	}
	if p.Auction != nil {
		cp.Auction = p.Auction.Copy()
	}
	if p.Raffle != nil {
		cp.Raffle = p.Raffle.Copy()
	}
	if p.Loan != nil {
		cp.Loan = p.Loan.Copy()
	}
	return &cp
}
