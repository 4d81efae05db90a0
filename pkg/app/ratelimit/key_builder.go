package ratelimit

import (
	"fmt"
	"net"
	"strings"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
)

const (
	KeyPattern     = "ratelimit:%s:%s"
	UnknownAddress = "unknown"
)

type KeyBuilder interface {
	Build(clientAddress, path string, category domain.Category) domain.LimitKey
}

type keyBuilder struct {
	pathScoped map[domain.Category]struct{}
}

// NewKeyBuilder returns a builder that keeps the literal request path in the
// key for the given categories, so routes sharing one of those policies do
// not share a budget. Every other category folds the path away.
func NewKeyBuilder(pathScoped ...domain.Category) KeyBuilder {
	b := &keyBuilder{pathScoped: make(map[domain.Category]struct{}, len(pathScoped))}
	for _, c := range pathScoped {
		b.pathScoped[c] = struct{}{}
	}
	return b
}

func (b *keyBuilder) Build(clientAddress, path string, category domain.Category) domain.LimitKey {
	address := strings.TrimSpace(clientAddress)
	if address == "" {
		address = UnknownAddress
	}
	scope := category.String()
	if _, ok := b.pathScoped[category]; ok && path != "" {
		scope = path
	}
	return domain.LimitKey(fmt.Sprintf(KeyPattern, address, scope))
}

// ClientAddress picks the first hop of a forwarded-for chain, then the peer
// address, then the "unknown" sentinel. Every client without an address
// shares the sentinel's budget.
func ClientAddress(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	remote := strings.TrimSpace(remoteAddr)
	if remote == "" {
		return UnknownAddress
	}
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	return remote
}
