package ledger

import (
	"time"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
)

type EventType string

const (
	EventItemRegistered EventType = "item_registered"
	EventUnitsSynced    EventType = "units_synced"
	EventListed         EventType = "listed"
	EventUnlisted       EventType = "unlisted"
	EventSale           EventType = "sale"
	EventAuctionCreated EventType = "auction_created"
	EventBid            EventType = "bid"
	EventAuctionEnded   EventType = "auction_ended"
	EventRaffleCreated  EventType = "raffle_created"
	EventRaffleEntered  EventType = "raffle_entered"
	EventRaffleEnded    EventType = "raffle_ended"
	EventLoanProposed   EventType = "loan_proposed"
	EventLoanCancelled  EventType = "loan_cancelled"
	EventLoanFunded     EventType = "loan_funded"
	EventLoanRepaid     EventType = "loan_repaid"
	EventLoanLiquidated EventType = "loan_liquidated"
	EventWithdrawal     EventType = "withdrawal"
	EventRetired        EventType = "retired"
)

// Event is one append-only journal record. Every entry point appends at
// least one; composite mint-and-list calls append the item record first and
// the position record second, and off-chain readers rely on that ordering.
// Value carries a big integer amount as a decimal string.
type Event struct {
	Type         EventType         `json:"type" bson:"type"`
	ItemId       domain.ItemId     `json:"itemId" bson:"itemId"`
	PositionId   domain.PositionId `json:"positionId" bson:"positionId"`
	Actor        domain.Address    `json:"actor" bson:"actor"`
	Counterparty domain.Address    `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	Amount       int64             `json:"amount,omitempty" bson:"amount,omitempty"`
	Value        string            `json:"value,omitempty" bson:"value,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
}

// EventRepo is the append-only settlement journal.
type EventRepo interface {
	Append(c ctx.Ctx, ev *Event) error
	FindAll(c ctx.Ctx, opts ...EventFindAllOptionsFunc) ([]*Event, error)
}

type EventFindAllOptions struct {
	ItemId     *domain.ItemId
	PositionId *domain.PositionId
	Actor      *domain.Address
	Type       *EventType
	Limit      *int
}

type EventFindAllOptionsFunc func(*EventFindAllOptions) error

func GetEventFindAllOptions(opts ...EventFindAllOptionsFunc) (EventFindAllOptions, error) {
	res := EventFindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func EventWithItemId(id domain.ItemId) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.ItemId = &id
		return nil
	}
}

func EventWithPositionId(id domain.PositionId) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.PositionId = &id
		return nil
	}
}

func EventWithActor(addr domain.Address) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		lowered := addr.ToLower()
		o.Actor = &lowered
		return nil
	}
}

func EventWithType(t EventType) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.Type = &t
		return nil
	}
}

func EventWithLimit(limit int) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.Limit = &limit
		return nil
	}
}
