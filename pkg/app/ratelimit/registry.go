package ratelimit

import (
	"fmt"
	"sort"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
)

type PolicyRegistry interface {
	Get(category domain.Category) (domain.Policy, error)
	Policies() []domain.Policy
}

type policyRegistry struct {
	policies map[domain.Category]domain.Policy
}

// DefaultPolicies returns the static admission table.
func DefaultPolicies() []domain.Policy {
	return []domain.Policy{
		{
			Category:    domain.CategoryGeneralAPI,
			Window:      15 * time.Minute,
			MaxRequests: 100,
			DenyMessage: "Too many requests",
			FailureMode: domain.FailOpen,
		},
		{
			Category:    domain.CategoryAuthentication,
			Window:      time.Hour,
			MaxRequests: 5,
			DenyMessage: "Too many authentication attempts, please try again later",
			FailureMode: domain.FailClosed,
		},
		{
			Category:    domain.CategoryRealtimeConnection,
			Window:      time.Minute,
			MaxRequests: 10,
			DenyMessage: "Too many connection attempts",
			FailureMode: domain.FailOpen,
		},
		{
			Category:    domain.CategoryReportGeneration,
			Window:      24 * time.Hour,
			MaxRequests: 50,
			DenyMessage: "Report generation limit reached",
			FailureMode: domain.FailClosed,
		},
		{
			Category:    domain.CategoryMarketData,
			Window:      time.Minute,
			MaxRequests: 60,
			DenyMessage: "Too many requests",
			FailureMode: domain.FailOpen,
		},
		{
			Category:    domain.CategoryAnalysis,
			Window:      5 * time.Minute,
			MaxRequests: 30,
			DenyMessage: "Analysis rate limit exceeded",
			FailureMode: domain.FailClosed,
		},
	}
}

// NewPolicyRegistry validates every policy up front so that a bad table stops
// the process at boot instead of failing a request later.
func NewPolicyRegistry(policies ...domain.Policy) (PolicyRegistry, error) {
	if len(policies) == 0 {
		policies = DefaultPolicies()
	}
	registry := &policyRegistry{policies: make(map[domain.Category]domain.Policy, len(policies))}
	for _, p := range policies {
		if err := validatePolicy(p); err != nil {
			return nil, err
		}
		if _, exists := registry.policies[p.Category]; exists {
			return nil, domain.NewConfigurationError(p.Category, "duplicate policy")
		}
		registry.policies[p.Category] = p
	}
	return registry, nil
}

func validatePolicy(p domain.Policy) error {
	if p.Category == "" {
		return domain.NewConfigurationError(p.Category, "category is required")
	}
	if p.Window <= 0 {
		return domain.NewConfigurationError(p.Category, "window must be positive")
	}
	if p.MaxRequests <= 0 {
		return domain.NewConfigurationError(p.Category, "max requests must be positive")
	}
	if p.DenyMessage == "" {
		return domain.NewConfigurationError(p.Category, "deny message is required")
	}
	switch p.FailureMode {
	case domain.FailOpen, domain.FailClosed:
	default:
		return domain.NewConfigurationError(p.Category, fmt.Sprintf("unknown failure mode '%s'", p.FailureMode))
	}
	return nil
}

func (r *policyRegistry) Get(category domain.Category) (domain.Policy, error) {
	p, ok := r.policies[category]
	if !ok {
		return domain.Policy{}, domain.NewConfigurationError(category, "unknown category")
	}
	return p, nil
}

func (r *policyRegistry) Policies() []domain.Policy {
	out := make([]domain.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}
