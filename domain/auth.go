package domain

import (
	"github.com/golang-jwt/jwt"

	"github.com/fractionxyz/goapi/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"` // name data for backward compatibility
	jwt.StandardClaims
}

type AuthUseCase interface {
	GenerateNonce(ctx ctx.Ctx, address Address) (string, error)
	ValidateSignature(ctx ctx.Ctx, address Address, signature string) error
	SignToken(ctx ctx.Ctx, address Address) (string, error)
	ParseToken(ctx ctx.Ctx, token string) (address string, err error)
}
