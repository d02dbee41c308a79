package usecase

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain/ledger"
)

// keccakWinnerSource hashes the seed with keccak256 and reduces it modulo
// total. The seed is built from locally available ledger data only, so a
// caller who controls submission ordering can bias the draw. This mirrors
// the weak on-chain randomness of the original design and is kept on
// purpose; swap in another WinnerSource to change it.
type keccakWinnerSource struct{}

func NewKeccakWinnerSource() ledger.WinnerSource {
	return keccakWinnerSource{}
}

func (keccakWinnerSource) Pick(c ctx.Ctx, total *big.Int, seed []byte) *big.Int {
	h := crypto.Keccak256(seed)
	return new(big.Int).Mod(new(big.Int).SetBytes(h), total)
}

func raffleSeed(now time.Time, p *ledger.Position) []byte {
	seed := make([]byte, 0, 64)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(now.UnixNano()))
	seed = append(seed, buf[:]...)
	binary.BigEndian.PutUint64(buf[:], uint64(p.PositionId))
	seed = append(seed, buf[:]...)
	binary.BigEndian.PutUint64(buf[:], uint64(len(p.Raffle.Entries)))
	seed = append(seed, buf[:]...)
	seed = append(seed, p.Raffle.TotalValue.Bytes()...)
	return seed
}
