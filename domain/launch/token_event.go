package launch

import (
	"fmt"
	"strings"
	"time"

	"github.com/basewatch/goapi/domain"
)

// Platform identifies the launchpad a token was created through.
type Platform string

const (
	PlatformClanker Platform = "clanker"
	PlatformZora    Platform = "zora"
)

// TokenEvent is one on-chain token creation detection. Immutable once
// constructed; dedup prevents a second TokenEvent for the same log.
type TokenEvent struct {
	TokenAddress   domain.Address
	Name           string
	Symbol         string
	CreatorAddress domain.Address // optional, zero when the event does not expose it
	PoolAddress    domain.Address // optional
	TxHash         domain.TxHash
	BlockNumber    domain.BlockNumber
	Platform       Platform
	DetectedAt     time.Time
}

// DedupKey is the unique identity of one on-chain log, lowercase-normalized.
// At most one handler dispatch happens per key within the dedup TTL window.
type DedupKey string

func NewDedupKey(txHash domain.TxHash, logIndex uint, address domain.Address) DedupKey {
	return DedupKey(strings.ToLower(fmt.Sprintf("%s:%d:%s", txHash, logIndex, address)))
}
