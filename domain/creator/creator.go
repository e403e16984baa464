package creator

import (
	"fmt"
	"strings"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/launch"
)

// CreatorInfo is a resolved reputation snapshot for one creator. Fields are
// pointers because every lookup can individually fail or come back empty; a
// partially filled CreatorInfo is still usable by the validation policy.
type CreatorInfo struct {
	Platform           launch.Platform
	FarcasterId        *int64
	FarcasterUsername  *string
	FarcasterFollowers *int
	FarcasterScore     *float64 // 0..1
	TwitterHandle      *string
	TwitterFollowers   *int
}

// Key returns the identity used for per-creator counters: Farcaster id when
// known, else the lowercased Twitter handle, else empty.
func (c *CreatorInfo) Key() string {
	if c == nil {
		return ""
	}
	if c.FarcasterId != nil {
		return fmt.Sprintf("fid:%d", *c.FarcasterId)
	}
	if c.TwitterHandle != nil && *c.TwitterHandle != "" {
		return "tw:" + strings.ToLower(*c.TwitterHandle)
	}
	return ""
}

// ValidationResult is the outcome of applying policy to a CreatorInfo.
type ValidationResult struct {
	Passed  bool
	Reasons []string
	Creator *CreatorInfo
}

// BigAccount reports whether the creator clears the Twitter follower bar that
// bypasses the liquidity wait.
func (r *ValidationResult) BigAccount(threshold int) bool {
	return r != nil && r.Creator != nil &&
		r.Creator.TwitterFollowers != nil && *r.Creator.TwitterFollowers >= threshold
}

// Resolver produces CreatorInfo snapshots from the platform APIs and the
// Farcaster address index. Individual lookup failures degrade to absent
// fields; only a total miss returns domain.ErrNotFound.
type Resolver interface {
	// ResolveByAddress resolves a Farcaster identity directly from a wallet
	// address. This is the fast path used when the on-chain event already
	// exposes a creator address.
	ResolveByAddress(ctx.Ctx, domain.Address) (*CreatorInfo, error)
	// ResolveByToken runs the platform-specific resolution chain for the
	// token's launchpad.
	ResolveByToken(c ctx.Ctx, platform launch.Platform, tokenAddress domain.Address) (*CreatorInfo, error)
}

// Validator applies the two-tier validation policy to detected tokens.
type Validator interface {
	// ValidateFast races the address-based lookup against a short timeout
	// and applies policy. Returns domain.ErrNotFound when no creator
	// identity could be resolved in time, in which case the caller should
	// schedule the slow path.
	ValidateFast(ctx.Ctx, *launch.TokenEvent) (*ValidationResult, error)
	// ValidateSlow runs the full platform-API chain with retries. Blocking;
	// normally submitted to the validator's background pool via
	// ScheduleSlow.
	ValidateSlow(ctx.Ctx, *launch.TokenEvent) (*ValidationResult, error)
	// ScheduleSlow queues ValidateSlow on the background pool, invoking
	// onResult if the token eventually passes or is rejected.
	ScheduleSlow(c ctx.Ctx, ev *launch.TokenEvent, onResult func(ctx.Ctx, *launch.TokenEvent, *ValidationResult))
	// Drain waits for all scheduled slow validations to finish.
	Drain()
}
