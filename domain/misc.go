package domain

import (
	"math/big"
	"strings"
)

var (
	Big0 = big.NewInt(0)
	Big1 = big.NewInt(1)
)

// BasisPointsDenom is the denominator for fee rates expressed in basis points.
const BasisPointsDenom = 10000

type SortDir int8

const (
	SortDirAsc  SortDir = 1
	SortDirDesc SortDir = -1
)

// Address identifies a caller or a contract. Addresses are compared
// case-insensitively and stored lower-cased.
type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// TokenId is the asset registry's identifier of one minted token line.
type TokenId int64

// ItemId is the marketplace's identifier of one registered asset line.
type ItemId int64

// PositionId identifies one position inside the ledger arena.
type PositionId int64

// Table is a mongo collection name.
type Table string

const (
	TableLedgerEvents Table = "ledger_events"
)

// ToBigInt parses a decimal string into a big integer amount.
func ToBigInt(num string) (*big.Int, error) {
	bn, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return nil, ErrInvalidNumberFormat
	}
	return bn, nil
}
