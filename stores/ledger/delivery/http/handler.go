package http

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/delivery"
	"github.com/fractionxyz/goapi/base/ptr"
	"github.com/fractionxyz/goapi/base/units"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
	"github.com/fractionxyz/goapi/middleware"
	"github.com/fractionxyz/goapi/service/paging"
	authMiddleware "github.com/fractionxyz/goapi/stores/auth/delivery/http/middleware"
)

// FeedKeyAll is the event feed key covering every journal record; any other
// key selects one event type.
const FeedKeyAll = "all"

type handler struct {
	ledger    ledger.UseCase
	events    ledger.EventRepo
	eventFeed paging.Service
}

// New registers the marketplace ledger routes. Every mutating route derives
// the caller from the auth token; reads are open and lightly cached.
func New(e *echo.Echo, lu ledger.UseCase, events ledger.EventRepo, eventFeed paging.Service, auth *authMiddleware.AuthMiddleware) {
	h := &handler{
		ledger:    lu,
		events:    events,
		eventFeed: eventFeed,
	}

	g := e.Group("/ledger")

	// reads
	g.GET("/items", h.findItems, middleware.CacheHttp(10*time.Second))
	g.GET("/item/:itemId", h.getItem)
	g.GET("/item/:itemId/events", h.findItemEvents)
	g.GET("/events", h.findEventFeed)
	g.GET("/positions", h.findPositions, middleware.CacheHttp(10*time.Second))
	g.GET("/position/:positionId", h.getPosition)
	g.GET("/balance/:address", h.getBalance, middleware.IsValidAddress("address"))
	g.GET("/fees", h.getFees)

	// minting and registration
	g.POST("/mint", h.mintAndList, auth.Auth())
	g.POST("/items", h.registerItem, auth.Auth())
	g.POST("/item/:itemId/sync", h.syncHeldUnits, auth.Auth())

	// listings
	g.POST("/item/:itemId/sale", h.listForSale, auth.Auth())
	g.POST("/item/:itemId/auction", h.createAuction, auth.Auth())
	g.POST("/item/:itemId/raffle", h.createRaffle, auth.Auth())
	g.POST("/item/:itemId/loan", h.proposeLoan, auth.Auth())
	g.DELETE("/position/:positionId", h.unlist, auth.Auth())

	// settlement entry points
	g.POST("/position/:positionId/buy", h.buy, auth.Auth())
	g.POST("/position/:positionId/bid", h.bid, auth.Auth())
	g.POST("/position/:positionId/endAuction", h.endAuction, auth.Auth())
	g.POST("/position/:positionId/enter", h.enterRaffle, auth.Auth())
	g.POST("/position/:positionId/endRaffle", h.endRaffle, auth.Auth())
	g.POST("/position/:positionId/fund", h.fundLoan, auth.Auth())
	g.POST("/position/:positionId/repay", h.repayLoan, auth.Auth())
	g.POST("/position/:positionId/liquidate", h.liquidateLoan, auth.Auth())
	g.DELETE("/position/:positionId/loan", h.cancelLoanProposal, auth.Auth())

	// balances
	g.POST("/withdraw", h.withdraw, auth.Auth())

	// admin. ownership is enforced in the usecase against the platform owner.
	g.PUT("/fees", h.setMarketFee, auth.Auth())
	g.PUT("/owner", h.transferOwnership, auth.Auth())
	g.POST("/retire", h.retire, auth.Auth())
	g.GET("/snapshot", h.snapshot, auth.Auth())
}

func (h *handler) findItems(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Creator *domain.Address `query:"creator"`
		SortDir string          `query:"sortDir"`
		Offset  int             `query:"offset"`
		Limit   int             `query:"limit"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []ledger.FindItemsOptionsFunc{
		ledger.ItemWithSortDir(parseSortDir(p.SortDir)),
	}
	if p.Creator != nil {
		opts = append(opts, ledger.ItemWithCreator(*p.Creator))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, ledger.ItemWithPagination(p.Offset, p.Limit))
	}

	items, err := h.ledger.FindItems(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	count, err := h.ledger.CountItems(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Items []*ledger.Item `json:"items"`
		Count int            `json:"count"`
	}{items, count}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	item, err := h.ledger.GetItem(ctx, domain.ItemId(itemId))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, item)
}

func (h *handler) findItemEvents(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Type  *ledger.EventType `query:"type"`
		Limit int               `query:"limit"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []ledger.EventFindAllOptionsFunc{
		ledger.EventWithItemId(domain.ItemId(itemId)),
	}
	if p.Type != nil {
		opts = append(opts, ledger.EventWithType(*p.Type))
	}
	if p.Limit > 0 {
		opts = append(opts, ledger.EventWithLimit(p.Limit))
	}

	evs, err := h.events.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, evs)
}

// findEventFeed serves the journal through the cursor-paged snapshot
// service; an empty cursor starts a fresh walk.
func (h *handler) findEventFeed(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Type   string `query:"type"`
		Cursor string `query:"cursor"`
		Size   int    `query:"size"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	key := p.Type
	if len(key) == 0 {
		key = FeedKeyAll
	}
	size := p.Size
	if size <= 0 {
		size = 50
	}

	evs := []*ledger.Event{}
	nextCursor, total, err := h.eventFeed.Get(ctx, key, p.Cursor, size, &evs)
	if err == paging.ErrBadCursor {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidPage)
	} else if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	// nextCursor is omitted once the walk is exhausted
	var next *string
	if len(nextCursor) > 0 {
		next = ptr.String(nextCursor)
	}

	res := struct {
		Events     []*ledger.Event `json:"events"`
		NextCursor *string         `json:"nextCursor,omitempty"`
		Total      int             `json:"total"`
	}{evs, next, total}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) findPositions(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		ItemId  *int64          `query:"itemId"`
		Owner   *domain.Address `query:"owner"`
		State   *int            `query:"state"`
		SortDir string          `query:"sortDir"`
		Offset  int             `query:"offset"`
		Limit   int             `query:"limit"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []ledger.FindPositionsOptionsFunc{
		ledger.WithSortDir(parseSortDir(p.SortDir)),
	}
	if p.ItemId != nil {
		opts = append(opts, ledger.WithItemId(domain.ItemId(*p.ItemId)))
	}
	if p.Owner != nil {
		opts = append(opts, ledger.WithOwner(*p.Owner))
	}
	if p.State != nil {
		opts = append(opts, ledger.WithState(ledger.PositionState(*p.State)))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, ledger.WithPagination(p.Offset, p.Limit))
	}

	positions, err := h.ledger.FindPositions(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	count, err := h.ledger.CountPositions(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Positions []*ledger.Position `json:"positions"`
		Count     int                `json:"count"`
	}{positions, count}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getPosition(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	positionId, err := paramInt64(c, "positionId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	position, err := h.ledger.GetPosition(ctx, domain.PositionId(positionId))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, position)
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := domain.Address(c.Param("address"))
	balance, err := h.ledger.Balance(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Address   domain.Address `json:"address"`
		Balance   string         `json:"balance"`
		Formatted string         `json:"formatted"`
	}{address.ToLower(), balance.String(), units.Format(balance)}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getFees(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	owner, err := h.ledger.PlatformOwner(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	fees := map[string]int64{}
	for _, state := range ledger.ListingStates {
		bps, err := h.ledger.MarketFee(ctx, state)
		if err != nil {
			return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
		}
		fees[state.String()] = bps
	}

	res := struct {
		PlatformOwner domain.Address   `json:"platformOwner"`
		Fees          map[string]int64 `json:"fees"`
	}{owner, fees}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) mintAndList(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	p := &ledger.MintAndListPayload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	res, err := h.ledger.MintAndList(ctx, address, *p)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) registerItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type params struct {
		AssetContract domain.Address `json:"assetContract"`
		TokenId       int64          `json:"tokenId"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	itemId, err := h.ledger.RegisterItem(ctx, address, p.AssetContract, domain.TokenId(p.TokenId))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		ItemId domain.ItemId `json:"itemId"`
	}{itemId}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) syncHeldUnits(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	position, err := h.ledger.SyncHeldUnits(ctx, address, domain.ItemId(itemId))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, position)
}

func (h *handler) listForSale(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Amount    int64  `json:"amount"`
		UnitPrice string `json:"unitPrice"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	unitPrice, err := domain.ToBigInt(p.UnitPrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	positionId, err := h.ledger.ListForSale(ctx, address, domain.ItemId(itemId), p.Amount, unitPrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makePositionResp(c, positionId)
}

func (h *handler) createAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Amount          int64  `json:"amount"`
		DurationMinutes int64  `json:"durationMinutes"`
		MinBid          string `json:"minBid"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	minBid, err := domain.ToBigInt(p.MinBid)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	positionId, err := h.ledger.CreateAuction(ctx, address, domain.ItemId(itemId), p.Amount, p.DurationMinutes, minBid)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makePositionResp(c, positionId)
}

func (h *handler) createRaffle(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Amount          int64 `json:"amount"`
		DurationMinutes int64 `json:"durationMinutes"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	positionId, err := h.ledger.CreateRaffle(ctx, address, domain.ItemId(itemId), p.Amount, p.DurationMinutes)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makePositionResp(c, positionId)
}

func (h *handler) proposeLoan(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := paramInt64(c, "itemId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Amount          int64  `json:"amount"`
		LoanAmount      string `json:"loanAmount"`
		FeeAmount       string `json:"feeAmount"`
		DurationMinutes int64  `json:"durationMinutes"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	loanAmount, err := domain.ToBigInt(p.LoanAmount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	feeAmount, err := domain.ToBigInt(p.FeeAmount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	positionId, err := h.ledger.ProposeLoan(ctx, address, domain.ItemId(itemId), p.Amount, loanAmount, feeAmount, p.DurationMinutes)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makePositionResp(c, positionId)
}

func (h *handler) unlist(c echo.Context) error {
	return h.positionAction(c, h.ledger.Unlist)
}

func (h *handler) buy(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	positionId, err := paramInt64(c, "positionId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Amount  int64  `json:"amount"`
		Payment string `json:"payment"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	payment, err := domain.ToBigInt(p.Payment)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.ledger.Buy(ctx, address, domain.PositionId(positionId), p.Amount, payment); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) bid(c echo.Context) error {
	return h.paymentAction(c, h.ledger.Bid)
}

func (h *handler) endAuction(c echo.Context) error {
	return h.positionAction(c, h.ledger.EndAuction)
}

func (h *handler) enterRaffle(c echo.Context) error {
	return h.paymentAction(c, h.ledger.EnterRaffle)
}

func (h *handler) endRaffle(c echo.Context) error {
	return h.positionAction(c, h.ledger.EndRaffle)
}

func (h *handler) fundLoan(c echo.Context) error {
	return h.paymentAction(c, h.ledger.FundLoan)
}

func (h *handler) repayLoan(c echo.Context) error {
	return h.paymentAction(c, h.ledger.RepayLoan)
}

func (h *handler) liquidateLoan(c echo.Context) error {
	return h.positionAction(c, h.ledger.LiquidateLoan)
}

func (h *handler) cancelLoanProposal(c echo.Context) error {
	return h.positionAction(c, h.ledger.CancelLoanProposal)
}

// positionAction runs an entry point that needs only the caller and a
// position id.
func (h *handler) positionAction(c echo.Context, fn func(ctx.Ctx, domain.Address, domain.PositionId) error) error {
	context := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	positionId, err := paramInt64(c, "positionId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := fn(context, address, domain.PositionId(positionId)); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

// paymentAction runs an entry point that escrows a payment against a
// position.
func (h *handler) paymentAction(c echo.Context, fn func(ctx.Ctx, domain.Address, domain.PositionId, *big.Int) error) error {
	context := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	positionId, err := paramInt64(c, "positionId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Payment string `json:"payment"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	payment, err := domain.ToBigInt(p.Payment)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := fn(context, address, domain.PositionId(positionId), payment); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	amount, err := h.ledger.Withdraw(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Amount    string `json:"amount"`
		Formatted string `json:"formatted"`
	}{amount.String(), units.Format(amount)}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) setMarketFee(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type params struct {
		State int   `json:"state"`
		Bps   int64 `json:"bps"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.ledger.SetMarketFee(ctx, address, ledger.PositionState(p.State), p.Bps); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) transferOwnership(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type params struct {
		NewOwner domain.Address `json:"newOwner"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.ledger.TransferOwnership(ctx, address, p.NewOwner); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) retire(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	if err := h.ledger.Retire(ctx, address); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) snapshot(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	snapshot, err := h.ledger.Snapshot(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, snapshot)
}

func makePositionResp(c echo.Context, positionId domain.PositionId) error {
	res := struct {
		PositionId domain.PositionId `json:"positionId"`
	}{positionId}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func paramInt64(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return v, nil
}

// parseSortDir treats anything that is not "desc" as ascending.
func parseSortDir(s string) domain.SortDir {
	if s == "desc" {
		return domain.SortDirDesc
	}
	return domain.SortDirAsc
}
