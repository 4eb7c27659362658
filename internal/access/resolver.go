package access

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"dbd/internal/providers"
	"dbd/internal/structures"
)

const (
	defaultPosterLevel   = 2
	defaultOracleTimeout = 3 * time.Second
	defaultCacheSize     = 256
	defaultCacheTTL      = 30 * time.Second
)

type ResolverInterface interface {
	Resolve(ctx context.Context, tenant, address string, write bool) (Level, string)
	DisplayName(ctx context.Context, tenant, address string) string
}

// Resolver maps a caller address to a permission level. Precedence,
// first match wins: global super-admins, tenant admins, tenant editors
// or ACL level at or above the poster threshold, then Reader for reads
// and None for writes. Addresses compare lower-cased.
//
// When the oracle is unreachable the resolver grants Reader: reads keep
// working, writes stay denied.
type Resolver struct {
	oracle        Oracle
	logger        providers.Logger
	superAdmins   map[string]struct{}
	posterLevel   int
	oracleTimeout time.Duration
	cache         *expirable.LRU[string, *TenantACL]
}

func NewResolver(conf *structures.Config, oracle Oracle, logger providers.Logger) ResolverInterface {
	superAdmins := make(map[string]struct{}, len(conf.Board.SuperAdmins))
	for _, addr := range conf.Board.SuperAdmins {
		superAdmins[strings.ToLower(addr)] = struct{}{}
	}

	posterLevel := conf.Access.PosterLevel
	if posterLevel <= 0 {
		posterLevel = defaultPosterLevel
	}
	timeout := conf.Access.OracleTimeout
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	cacheSize := conf.Access.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cacheTTL := conf.Access.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Resolver{
		oracle:        oracle,
		logger:        logger,
		superAdmins:   superAdmins,
		posterLevel:   posterLevel,
		oracleTimeout: timeout,
		cache:         expirable.NewLRU[string, *TenantACL](cacheSize, nil, cacheTTL),
	}
}

func (r *Resolver) Resolve(ctx context.Context, tenant, address string, write bool) (Level, string) {
	addr := strings.ToLower(address)

	if _, ok := r.superAdmins[addr]; ok {
		return Admin, ""
	}

	acl, err := r.tenantACL(ctx, tenant)
	if err != nil {
		r.logger.Warnf(providers.TypeApp, "authorization oracle unavailable for %s: %s", tenant, err)
		if write {
			return Reader, "authorization oracle unavailable, writes are disabled"
		}
		return Reader, ""
	}

	if containsAddress(acl.Admins, addr) {
		return Admin, ""
	}
	if containsAddress(acl.Editors, addr) {
		return Poster, ""
	}
	for _, entry := range acl.Entries {
		if strings.ToLower(entry.Address) == addr && entry.Level >= r.posterLevel {
			return Poster, ""
		}
	}

	if write {
		return None, "address is not on the posting list for " + tenant
	}
	return Reader, ""
}

func (r *Resolver) DisplayName(ctx context.Context, tenant, address string) string {
	addr := strings.ToLower(address)

	acl, err := r.tenantACL(ctx, tenant)
	if err != nil {
		return ""
	}

	// Prefer a non-empty name when the address appears more than once.
	name := ""
	for _, entry := range acl.Entries {
		if strings.ToLower(entry.Address) == addr && entry.Name != "" {
			name = entry.Name
			break
		}
	}
	return name
}

func (r *Resolver) tenantACL(ctx context.Context, tenant string) (*TenantACL, error) {
	if acl, ok := r.cache.Get(tenant); ok {
		return acl, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.oracleTimeout)
	defer cancel()

	acl, err := r.oracle.TenantACL(ctx, tenant)
	if err != nil {
		return nil, err
	}
	r.cache.Add(tenant, acl)
	return acl, nil
}

func containsAddress(list []string, addr string) bool {
	for _, a := range list {
		if strings.ToLower(a) == addr {
			return true
		}
	}
	return false
}
