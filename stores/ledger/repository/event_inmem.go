package repository

import (
	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain/ledger"
)

// inmemEventRepo keeps the journal in a slice. Used by tests and by
// deployments that run without mongo.
type inmemEventRepo struct {
	events []*ledger.Event
}

func NewInmemEventRepo() ledger.EventRepo {
	return &inmemEventRepo{}
}

func (im *inmemEventRepo) Append(c ctx.Ctx, ev *ledger.Event) error {
	cp := *ev
	im.events = append(im.events, &cp)
	return nil
}

func (im *inmemEventRepo) FindAll(c ctx.Ctx, opts ...ledger.EventFindAllOptionsFunc) ([]*ledger.Event, error) {
	o, err := ledger.GetEventFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	res := []*ledger.Event{}
	for _, ev := range im.events {
		if o.ItemId != nil && ev.ItemId != *o.ItemId {
			continue
		}
		if o.PositionId != nil && ev.PositionId != *o.PositionId {
			continue
		}
		if o.Actor != nil && !ev.Actor.Equals(*o.Actor) {
			continue
		}
		if o.Type != nil && ev.Type != *o.Type {
			continue
		}
		cp := *ev
		res = append(res, &cp)
		if o.Limit != nil && len(res) >= *o.Limit {
			break
		}
	}
	return res, nil
}
