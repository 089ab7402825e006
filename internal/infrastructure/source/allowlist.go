package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pricelens/backend/internal/domain"
)

// HostList is an allow-list of host names. An entry is an exact host,
// "*.example.com" for any subdomain of example.com, or "*" for every host.
// Matching ignores case. An empty list allows nothing.
type HostList []string

// Allows reports whether host is on the list
func (l HostList) Allows(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if host == "" {
		return false
	}
	for _, entry := range l {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "*":
			return true
		case strings.HasPrefix(entry, "*."):
			if strings.HasSuffix(host, entry[1:]) {
				return true
			}
		case entry == host:
			return true
		}
	}
	return false
}

// HostGuard loads a location only when every host it would contact is allowed
type HostGuard struct {
	next  domain.RowSource
	hosts HostList
}

// RestrictHosts wraps src so that locations naming hosts outside hosts fail
// with domain.ErrLocationNotAllowed before src is called.
func RestrictHosts(src domain.RowSource, hosts HostList) *HostGuard {
	return &HostGuard{next: src, hosts: hosts}
}

// Load implements domain.RowSource
func (g *HostGuard) Load(ctx context.Context, location string, columns domain.Columns) ([]domain.RawRow, error) {
	hosts, err := locationHosts(location)
	if err != nil {
		return nil, err
	}
	for _, host := range hosts {
		if !g.hosts.Allows(host) {
			return nil, fmt.Errorf("%w: host %q", domain.ErrLocationNotAllowed, host)
		}
	}
	return g.next.Load(ctx, location, columns)
}

// locationHosts lists the hosts a location connects to. PostgreSQL locations go
// through the driver's own parser so that host query parameters and fallback
// hosts are seen the way the driver sees them.
func locationHosts(location string) ([]string, error) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid location: %v", domain.ErrInvalidRequest, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		dsn, _, err := parsePostgresLocation(location)
		if err != nil {
			return nil, err
		}
		cfg, err := pgconn.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid database location: %v", domain.ErrInvalidRequest, err)
		}
		hosts := []string{cfg.Host}
		for _, fallback := range cfg.Fallbacks {
			hosts = append(hosts, fallback.Host)
		}
		return hosts, nil
	default:
		return []string{u.Hostname()}, nil
	}
}
