package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/base/ethereum"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/keys"
	"github.com/fractionxyz/goapi/service/redis"
)

const (
	defaultTokenTTL = 24 * time.Hour
	nonceTTL        = 10 * time.Minute
)

type impl struct {
	jwtSecret    []byte
	signatureMsg string
	tokenTTL     time.Duration
	redis        redis.Service
}

func New(jwtSecret, signatureMsg string, redis redis.Service) domain.AuthUseCase {
	return &impl{
		jwtSecret:    []byte(jwtSecret),
		signatureMsg: signatureMsg,
		tokenTTL:     defaultTokenTTL,
		redis:        redis,
	}
}

func (im *impl) makeMessageWithNonce(nonce string) []byte {
	return []byte(fmt.Sprintf(im.signatureMsg, nonce))
}

// GenerateNonce issues the one-time value embedded into the signing message.
// The nonce expires on its own; signing a stale one fails verification.
func (im *impl) GenerateNonce(ctx ctx.Ctx, address domain.Address) (string, error) {
	if address.IsEmpty() {
		return "", domain.ErrInvalidAddress
	}

	nonce := uuid.New().String()
	key := keys.RedisKey(keys.PfxNonce, address.ToLowerStr())
	if err := im.redis.Set(ctx, key, []byte(nonce), nonceTTL); err != nil {
		ctx.WithField("err", err).Error("redis.Set failed")
		return "", err
	}
	return nonce, nil
}

// ValidateSignature checks that signature is the address's personal-sign of
// the nonce message. The stored nonce is consumed by the attempt whether or
// not the signature checks out; each nonce is good for one attempt.
func (im *impl) ValidateSignature(ctx ctx.Ctx, address domain.Address, signature string) error {
	key := keys.RedisKey(keys.PfxNonce, address.ToLowerStr())
	stored, err := im.redis.Get(ctx, key)
	if err == redis.ErrNotFound {
		return domain.ErrInvalidNonce
	} else if err != nil {
		ctx.WithField("err", err).Error("redis.Get failed")
		return err
	}
	defer func() {
		if _, err := im.redis.Del(ctx, key); err != nil {
			ctx.WithField("err", err).Warn("redis.Del failed")
		}
	}()

	msg := im.makeMessageWithNonce(string(stored))
	if isValid, err := ethereum.ValidateMsgSignature(msg, signature, string(address)); err != nil {
		ctx.WithField("err", err).Warn("ValidateMsgSignature failed")
		return domain.ErrInvalidSignature
	} else if !isValid {
		return domain.ErrInvalidSignature
	}
	return nil
}

func (im *impl) SignToken(ctx ctx.Ctx, address domain.Address) (string, error) {
	if address.IsEmpty() {
		return "", domain.ErrInvalidAddress
	}

	claims := domain.JwtCustomClaims{
		Address: address.ToLowerStr(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(im.tokenTTL).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return claims.Address, nil
	}

	return "", err
}
