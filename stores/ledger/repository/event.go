package repository

import (
	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/log"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
	"github.com/fractionxyz/goapi/service/query"
)

type eventImpl struct {
	q query.Mongo
}

// NewEventRepo is the mongo-backed settlement journal.
func NewEventRepo(q query.Mongo) ledger.EventRepo {
	return &eventImpl{q}
}

func (im *eventImpl) Append(c ctx.Ctx, ev *ledger.Event) error {
	if err := im.q.Insert(c, domain.TableLedgerEvents, ev); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"type":  ev.Type,
			"event": ev,
		}).Error("failed to q.Insert")
		return err
	}
	return nil
}

func (im *eventImpl) FindAll(c ctx.Ctx, opts ...ledger.EventFindAllOptionsFunc) ([]*ledger.Event, error) {
	o, err := ledger.GetEventFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	selector := map[string]interface{}{}
	if o.ItemId != nil {
		selector["itemId"] = *o.ItemId
	}
	if o.PositionId != nil {
		selector["positionId"] = *o.PositionId
	}
	if o.Actor != nil {
		selector["actor"] = *o.Actor
	}
	if o.Type != nil {
		selector["type"] = *o.Type
	}

	limit := 0
	if o.Limit != nil {
		limit = *o.Limit
	}

	res := []*ledger.Event{}
	if err := im.q.Search(c, domain.TableLedgerEvents, 0, limit, "createdAt", selector, &res); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}
