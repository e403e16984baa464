package tracker

import (
	"strings"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/launch"
)

type Hexable interface {
	Hex() string
}

func ToLowerHexStr(h Hexable) string {
	return strings.ToLower(h.Hex())
}

func toDomainAddress(h Hexable) domain.Address {
	return domain.Address(ToLowerHexStr(h))
}

func dedupKey(l *types.Log) launch.DedupKey {
	return launch.NewDedupKey(domain.TxHash(l.TxHash.Hex()), l.Index, domain.Address(l.Address.Hex()))
}
