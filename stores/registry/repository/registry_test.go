package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/registry"
)

type registrySuite struct {
	suite.Suite

	ctx ctx.Ctx
	im  registry.Registry
}

func (s *registrySuite) SetupTest() {
	s.ctx = ctx.Background()
	s.im = New("0xREG1S7RY")
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(registrySuite))
}

func (s *registrySuite) TestMint() {
	s.Equal(domain.Address("0xreg1s7ry"), s.im.Address(s.ctx))

	id, err := s.im.Mint(s.ctx, "0xA11CE", 100, "0xr0ya17y", 500)
	s.NoError(err)
	s.Equal(domain.TokenId(1), id)

	id2, err := s.im.Mint(s.ctx, "0xb0b", 50, "", 0)
	s.NoError(err)
	s.Equal(domain.TokenId(2), id2)

	supply, err := s.im.SupplyOf(s.ctx, id)
	s.NoError(err)
	s.Equal(int64(100), supply)

	bal, err := s.im.BalanceOf(s.ctx, "0xa11ce", id)
	s.NoError(err)
	s.Equal(int64(100), bal)

	_, err = s.im.Mint(s.ctx, "0xa11ce", 0, "", 0)
	s.ErrorIs(err, domain.ErrBadParamInput)
	_, err = s.im.Mint(s.ctx, "0xa11ce", 10, "0xr0ya17y", 10001)
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *registrySuite) TestTransfer() {
	id, err := s.im.Mint(s.ctx, "0xa11ce", 100, "", 0)
	s.Require().NoError(err)

	s.NoError(s.im.Transfer(s.ctx, "0xA11CE", "0xb0b", id, 30))

	bal, err := s.im.BalanceOf(s.ctx, "0xa11ce", id)
	s.NoError(err)
	s.Equal(int64(70), bal)
	bal, err = s.im.BalanceOf(s.ctx, "0xb0b", id)
	s.NoError(err)
	s.Equal(int64(30), bal)

	s.ErrorIs(s.im.Transfer(s.ctx, "0xb0b", "0xa11ce", id, 31), domain.ErrInsufficientAvailableUnits)
	s.ErrorIs(s.im.Transfer(s.ctx, "0xa11ce", "0xb0b", id, 0), domain.ErrBadParamInput)
	s.ErrorIs(s.im.Transfer(s.ctx, "0xa11ce", "0xb0b", 99, 1), domain.ErrNotFound)
}

func (s *registrySuite) TestRoyaltyOf() {
	withRoyalty, err := s.im.Mint(s.ctx, "0xa11ce", 100, "0xR0YA17Y", 1000)
	s.Require().NoError(err)
	plain, err := s.im.Mint(s.ctx, "0xa11ce", 100, "", 0)
	s.Require().NoError(err)

	info, err := s.im.RoyaltyOf(s.ctx, withRoyalty, big.NewInt(5000))
	s.NoError(err)
	s.Equal(domain.Address("0xr0ya17y"), info.Receiver)
	s.Equal(big.NewInt(500), info.Amount)

	info, err = s.im.RoyaltyOf(s.ctx, plain, big.NewInt(5000))
	s.NoError(err)
	s.Zero(info.Amount.Sign())

	_, err = s.im.RoyaltyOf(s.ctx, 99, big.NewInt(1))
	s.ErrorIs(err, domain.ErrNotFound)
}
