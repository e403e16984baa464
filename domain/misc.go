package domain

import (
	"strings"
)

type ChainId int32

// BaseMainnet is the only chain the watcher currently runs against.
const BaseMainnet = ChainId(8453)

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

type BlockNumber uint64

type TxHash string

func (h TxHash) ToLowerStr() string {
	return strings.ToLower(string(h))
}
