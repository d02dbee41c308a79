package http

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/delivery"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/governance"
	"github.com/fractionxyz/goapi/middleware"
	authMiddleware "github.com/fractionxyz/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	governance governance.UseCase
}

// New registers the multisig governance routes. Owner checks happen in the
// usecase; the token only establishes who is calling.
func New(e *echo.Echo, gu governance.UseCase, auth *authMiddleware.AuthMiddleware) {
	h := &handler{
		governance: gu,
	}

	g := e.Group("/governance")

	g.GET("/owners", h.getOwners, middleware.CacheHttp(10*time.Second))
	g.GET("/quorum", h.getQuorum)
	g.GET("/proposals", h.findProposals)
	g.GET("/proposal/:proposalId", h.getProposal)
	g.GET("/balance/:address", h.getBalance, middleware.IsValidAddress("address"))

	g.POST("/proposals/transaction", h.proposeTransaction, auth.Auth())
	g.POST("/proposals/owner", h.proposeOwnerChange, auth.Auth())
	g.POST("/proposals/quorum", h.proposeQuorumChange, auth.Auth())
	g.POST("/proposal/:proposalId/approve", h.approve, auth.Auth())
	g.POST("/proposal/:proposalId/execute", h.execute, auth.Auth())

	g.POST("/pull", h.pullFromLedger, auth.Auth())
	g.POST("/withdraw", h.withdraw, auth.Auth())
}

func (h *handler) getOwners(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	owners, err := h.governance.Owners(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, owners)
}

func (h *handler) getQuorum(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	quorum, err := h.governance.Quorum(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Quorum int `json:"quorum"`
	}{quorum}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) findProposals(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Proposer *domain.Address `query:"proposer"`
		Executed *bool           `query:"executed"`
		Kind     *string         `query:"kind"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []governance.FindProposalsOptionsFunc{}
	if p.Proposer != nil {
		opts = append(opts, governance.WithProposer(*p.Proposer))
	}
	if p.Executed != nil {
		opts = append(opts, governance.WithExecuted(*p.Executed))
	}
	if p.Kind != nil {
		opts = append(opts, governance.WithKind(governance.ProposalKind(*p.Kind)))
	}

	proposals, err := h.governance.FindProposals(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, proposals)
}

func (h *handler) getProposal(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	proposalId, err := paramInt64(c, "proposalId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	proposal, err := h.governance.GetProposal(ctx, proposalId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, proposal)
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := domain.Address(c.Param("address"))
	balance, err := h.governance.Balance(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Address domain.Address `json:"address"`
		Balance string         `json:"balance"`
	}{address.ToLower(), balance.String()}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) proposeTransaction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type params struct {
		Target domain.Address `json:"target"`
		Value  string         `json:"value"`
		Data   string         `json:"data"` // hex, optional 0x prefix
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	value := domain.Big0
	if len(p.Value) > 0 {
		parsed, err := domain.ToBigInt(p.Value)
		if err != nil {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
		}
		value = parsed
	}

	var data []byte
	if len(p.Data) > 0 {
		decoded, err := hex.DecodeString(strings.TrimPrefix(p.Data, "0x"))
		if err != nil {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
		}
		data = decoded
	}

	proposalId, err := h.governance.ProposeTransaction(ctx, address, p.Target, value, data)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makeProposalResp(c, proposalId)
}

func (h *handler) proposeOwnerChange(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type params struct {
		Address domain.Address `json:"address"`
		Add     bool           `json:"add"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	proposalId, err := h.governance.ProposeOwnerChange(ctx, address, p.Address, p.Add)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makeProposalResp(c, proposalId)
}

func (h *handler) proposeQuorumChange(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type params struct {
		NewQuorum int `json:"newQuorum"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	proposalId, err := h.governance.ProposeQuorumChange(ctx, address, p.NewQuorum)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return makeProposalResp(c, proposalId)
}

func (h *handler) approve(c echo.Context) error {
	return h.proposalAction(c, h.governance.Approve)
}

func (h *handler) execute(c echo.Context) error {
	return h.proposalAction(c, h.governance.Execute)
}

func (h *handler) proposalAction(c echo.Context, fn func(ctx.Ctx, domain.Address, int64) error) error {
	context := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	proposalId, err := paramInt64(c, "proposalId")
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := fn(context, address, proposalId); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) pullFromLedger(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	amount, err := h.governance.PullFromLedger(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Amount string `json:"amount"`
	}{amount.String()}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	amount, err := h.governance.Withdraw(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Amount string `json:"amount"`
	}{amount.String()}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func makeProposalResp(c echo.Context, proposalId int64) error {
	res := struct {
		ProposalId int64 `json:"proposalId"`
	}{proposalId}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func paramInt64(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return v, nil
}
