package usecase

import (
	"errors"
	"time"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/base/metrics"
	"github.com/basewatch/goapi/base/ptr"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/creator"
	"github.com/basewatch/goapi/domain/keys"
	"github.com/basewatch/goapi/domain/launch"
	"github.com/basewatch/goapi/service/cache"
	"github.com/basewatch/goapi/service/cache/provider/primitive"
	"github.com/basewatch/goapi/service/clanker"
	"github.com/basewatch/goapi/service/fxtwitter"
	"github.com/basewatch/goapi/service/neynar"
	"github.com/basewatch/goapi/service/zora"
)

type ResolverCfg struct {
	Neynar    neynar.Client
	Clanker   clanker.Client
	Zora      zora.Client
	Fxtwitter fxtwitter.Client

	// BotFids are requestor identities of deploy frontends (e.g. Bankr)
	// that launch tokens on behalf of users and must never be treated as
	// the creator.
	BotFids []int64

	// FoundTtl bounds positive lookup memoization, NotFoundTtl negative.
	// A short NotFoundTtl lets freshly indexed creators show up on the
	// next attempt.
	FoundTtl    time.Duration
	NotFoundTtl time.Duration
}

type impl struct {
	neynar    neynar.Client
	clanker   clanker.Client
	zora      zora.Client
	fxtwitter fxtwitter.Client

	botFids map[int64]struct{}
	// addrCache negatively caches misses so repeat launches by an unknown
	// wallet stay cheap; tokenCache does not, the slow validation path owns
	// the retry schedule for tokens the platforms have not indexed yet.
	addrCache  cache.Service
	tokenCache cache.Service
	met        metrics.Service
}

func New(cfg *ResolverCfg) creator.Resolver {
	if cfg.FoundTtl == 0 {
		cfg.FoundTtl = 10 * time.Minute
	}
	if cfg.NotFoundTtl == 0 {
		cfg.NotFoundTtl = time.Minute
	}

	botFids := map[int64]struct{}{}
	for _, fid := range cfg.BotFids {
		botFids[fid] = struct{}{}
	}

	store := primitive.NewPrimitive(keys.PfxCreatorLookup, 32)

	return &impl{
		neynar:    cfg.Neynar,
		clanker:   cfg.Clanker,
		zora:      cfg.Zora,
		fxtwitter: cfg.Fxtwitter,
		botFids:   botFids,
		addrCache: cache.New(cache.ServiceConfig{
			Ttl:         cfg.FoundTtl,
			NotFoundTtl: cfg.NotFoundTtl,
			Pfx:         keys.PfxCreatorLookup,
			Cache:       store,
		}),
		tokenCache: cache.New(cache.ServiceConfig{
			Ttl:         cfg.FoundTtl,
			NotFoundTtl: -1,
			Pfx:         keys.PfxCreatorLookup,
			Cache:       store,
		}),
		met: metrics.New("creator"),
	}
}

func (im *impl) ResolveByAddress(c ctx.Ctx, addr domain.Address) (*creator.CreatorInfo, error) {
	res := &creator.CreatorInfo{}
	key := keys.CacheKey("addr", addr.ToLowerStr())
	if err := im.addrCache.GetByFunc(c, key, res, func() (interface{}, error) {
		im.met.BumpSum("resolve", 1, "path:address")
		return im.resolveByAddress(c, addr)
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) ResolveByToken(c ctx.Ctx, platform launch.Platform, tokenAddress domain.Address) (*creator.CreatorInfo, error) {
	res := &creator.CreatorInfo{}
	key := keys.CacheKey(string(platform), tokenAddress.ToLowerStr())
	if err := im.tokenCache.GetByFunc(c, key, res, func() (interface{}, error) {
		im.met.BumpSum("resolve", 1, "path:"+string(platform))
		switch platform {
		case launch.PlatformClanker:
			return im.resolveClanker(c, tokenAddress)
		case launch.PlatformZora:
			return im.resolveZora(c, tokenAddress)
		default:
			return nil, domain.ErrBadParamInput
		}
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) resolveByAddress(c ctx.Ctx, addr domain.Address) (*creator.CreatorInfo, error) {
	users, err := im.neynar.UserBulkByAddress(c, addr)
	if err != nil {
		return nil, err
	}

	// the api returns the primary controller first
	info := fromNeynarUser(&users[0])
	im.fillTwitter(c, info, users[0].TwitterUsername(), nil)
	return info, nil
}

func (im *impl) resolveClanker(c ctx.Ctx, tokenAddress domain.Address) (*creator.CreatorInfo, error) {
	tok, err := im.clanker.TokenByAddress(c, tokenAddress)
	if err != nil {
		return nil, err
	}

	fid := tok.RequestorFid
	if fid != nil {
		if _, denied := im.botFids[*fid]; denied {
			// deploy bot requested the token; the social context carries
			// the actual creator
			fid = nil
		}
	}

	var fcUsername, scTwitter string
	if sc := tok.SocialContext; sc != nil && sc.Username != "" {
		switch sc.Platform {
		case "farcaster":
			fcUsername = sc.Username
		case "x", "twitter":
			scTwitter = sc.Username
		}
	}

	// the context twitter lookup does not depend on the farcaster user,
	// run it alongside
	scFollowersCh := make(chan *int, 1)
	if scTwitter != "" {
		go func() {
			if n, err := im.fxtwitter.FollowersByUsername(c, scTwitter); err == nil {
				scFollowersCh <- ptr.Int(n)
			} else {
				scFollowersCh <- nil
			}
		}()
	} else {
		scFollowersCh <- nil
	}

	var u *neynar.User
	if fid != nil {
		u, err = im.neynar.UserByFid(c, *fid)
	} else if fcUsername != "" {
		u, err = im.neynar.UserByUsername(c, fcUsername)
	} else if scTwitter == "" {
		<-scFollowersCh
		return nil, domain.ErrNotFound
	}
	scFollowers := <-scFollowersCh

	if err != nil {
		if scTwitter == "" {
			return nil, err
		}
		// twitter-launched token, the farcaster side is optional context;
		// a missing or unreachable identity degrades to absent fields
		if !errors.Is(err, domain.ErrNotFound) {
			c.WithFields(log.Fields{
				"err":   err,
				"token": tokenAddress,
			}).Warn("farcaster lookup for clanker creator failed")
		}
		u = nil
	}

	info := fromNeynarUser(u)
	info.Platform = launch.PlatformClanker

	handle := scTwitter
	var verified *string
	if u != nil {
		verified = u.TwitterUsername()
	}
	if verified != nil {
		handle = *verified
		scFollowers = nil
	}
	if handle != "" {
		info.TwitterHandle = ptr.String(handle)
		if scFollowers != nil && handle == scTwitter {
			info.TwitterFollowers = scFollowers
		} else {
			im.fillTwitter(c, info, &handle, nil)
		}
	}

	if info.FarcasterId == nil && info.TwitterHandle == nil {
		return nil, domain.ErrNotFound
	}
	return info, nil
}

func (im *impl) resolveZora(c ctx.Ctx, tokenAddress domain.Address) (*creator.CreatorInfo, error) {
	coin, err := im.zora.CoinByAddress(c, tokenAddress)
	if err != nil {
		return nil, err
	}

	var fcCandidate string
	var embeddedHandle *string
	var embeddedCount *int
	if p := coin.CreatorProfile; p != nil {
		if sa := p.SocialAccounts; sa != nil {
			if sa.Farcaster != nil && sa.Farcaster.Username != "" {
				fcCandidate = sa.Farcaster.Username
			}
			if sa.Twitter != nil && sa.Twitter.Username != "" {
				embeddedHandle = ptr.String(sa.Twitter.Username)
				embeddedCount = sa.Twitter.FollowerCount
			}
		}
		if fcCandidate == "" {
			// many zora profiles reuse the farcaster name as their handle
			fcCandidate = p.Handle
		}
	}

	var u *neynar.User
	if fcCandidate != "" {
		if u, err = im.neynar.UserByUsername(c, fcCandidate); err != nil {
			if !errors.Is(err, domain.ErrNotFound) && embeddedHandle == nil {
				return nil, err
			}
			c.WithFields(log.Fields{
				"err":      err,
				"username": fcCandidate,
			}).Warn("farcaster lookup for zora creator failed")
			u = nil
		}
	}

	info := fromNeynarUser(u)
	info.Platform = launch.PlatformZora

	// verified handle wins over the snapshot zora caches
	handle := embeddedHandle
	cached := embeddedCount
	if u != nil {
		if verified := u.TwitterUsername(); verified != nil {
			handle = verified
			cached = nil
		}
	}
	if handle != nil {
		im.fillTwitter(c, info, handle, cached)
	}

	if info.FarcasterId == nil && info.TwitterHandle == nil {
		return nil, domain.ErrNotFound
	}
	return info, nil
}

// fillTwitter sets the twitter fields on info, preferring a live follower
// lookup and falling back to cachedCount when the lookup fails.
func (im *impl) fillTwitter(c ctx.Ctx, info *creator.CreatorInfo, handle *string, cachedCount *int) {
	if handle == nil || *handle == "" {
		return
	}
	info.TwitterHandle = handle
	if n, err := im.fxtwitter.FollowersByUsername(c, *handle); err == nil {
		info.TwitterFollowers = ptr.Int(n)
	} else if cachedCount != nil {
		info.TwitterFollowers = cachedCount
	} else {
		c.WithFields(log.Fields{
			"err":    err,
			"handle": *handle,
		}).Warn("twitter follower lookup failed")
	}
}

func fromNeynarUser(u *neynar.User) *creator.CreatorInfo {
	info := &creator.CreatorInfo{}
	if u == nil {
		return info
	}
	info.FarcasterId = ptr.Int64(u.Fid)
	info.FarcasterFollowers = ptr.Int(u.FollowerCount)
	if u.Username != "" {
		info.FarcasterUsername = ptr.String(u.Username)
	}
	info.FarcasterScore = u.Score()
	return info
}
