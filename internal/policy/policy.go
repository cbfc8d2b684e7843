// Package policy holds the priority rule set applied to every mail item.
//
// A Policy is built once per run from configuration and is read-only for the
// run's duration. Keyword patterns are compiled here so a malformed regex
// surfaces as a startup error instead of a silent per-item skip.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Keyword rule tiers.
const (
	TierCritical = "critical"
	TierHigh     = "high"
)

// KeywordSpec is the raw shape of one keyword rule as it appears in
// configuration, before compilation.
type KeywordSpec struct {
	Pattern  string `yaml:"pattern"`
	Priority string `yaml:"priority"`
	Suggest  string `yaml:"suggest"`
}

// KeywordRule is a compiled keyword rule. Rules are evaluated in list order
// against "subject + ' ' + body preview". Suggest may be empty; a rule
// without a suggestion still scores but contributes no recommended action.
type KeywordRule struct {
	Pattern  *regexp.Regexp
	Priority string
	Suggest  string
}

// Matches reports whether the rule applies to the given text.
func (r KeywordRule) Matches(text string) bool {
	return r.Pattern.MatchString(text)
}

// Policy is the immutable per-run rule set.
type Policy struct {
	vipSenders      map[string]bool
	vipDomains      map[string]bool
	ignoreDomains   map[string]bool
	downrankDomains map[string]bool
	groupMappings   map[string]string
	ignoreMatch     []string
	internalDomain  string

	KeywordRules []KeywordRule
}

// Spec carries the raw configuration inputs for building a Policy.
type Spec struct {
	VIPSenders      []string
	VIPDomains      []string
	IgnoreDomains   []string
	DownrankDomains []string
	GroupMappings   map[string]string
	IgnoreMatch     []string
	KeywordRules    []KeywordSpec

	// ReportTo is the digest recipient; its domain is treated as the
	// internal domain for bucketed-mode classification.
	ReportTo string
}

// New builds a validated Policy from a Spec. Keyword rules with an invalid
// tier or a pattern that does not compile fail the whole build.
func New(spec Spec) (*Policy, error) {
	p := &Policy{
		vipSenders:      lowerSet(spec.VIPSenders),
		vipDomains:      lowerSet(spec.VIPDomains),
		ignoreDomains:   lowerSet(spec.IgnoreDomains),
		downrankDomains: lowerSet(spec.DownrankDomains),
		groupMappings:   make(map[string]string, len(spec.GroupMappings)),
		internalDomain:  Domain(spec.ReportTo),
	}

	for domain, group := range spec.GroupMappings {
		p.groupMappings[strings.ToLower(domain)] = group
	}

	for _, m := range spec.IgnoreMatch {
		if m = strings.TrimSpace(m); m != "" {
			p.ignoreMatch = append(p.ignoreMatch, strings.ToLower(m))
		}
	}

	for i, ks := range spec.KeywordRules {
		if ks.Pattern == "" {
			return nil, fmt.Errorf("keyword rule %d: empty pattern", i)
		}
		if ks.Priority != TierCritical && ks.Priority != TierHigh {
			return nil, fmt.Errorf("keyword rule %d: invalid priority %q (must be %q or %q)",
				i, ks.Priority, TierCritical, TierHigh)
		}
		re, err := regexp.Compile("(?i)" + ks.Pattern)
		if err != nil {
			return nil, fmt.Errorf("keyword rule %d: compile pattern %q: %w", i, ks.Pattern, err)
		}
		p.KeywordRules = append(p.KeywordRules, KeywordRule{
			Pattern:  re,
			Priority: ks.Priority,
			Suggest:  ks.Suggest,
		})
	}

	return p, nil
}

// IsVIPSender reports whether the address is VIP-listed exactly.
func (p *Policy) IsVIPSender(email string) bool {
	return p.vipSenders[strings.ToLower(email)]
}

// IsVIPDomain reports whether the address's domain is VIP-listed.
func (p *Policy) IsVIPDomain(email string) bool {
	return p.vipDomains[Domain(email)]
}

// IsVIP reports whether the sender is VIP by address or domain.
func (p *Policy) IsVIP(email string) bool {
	return p.IsVIPSender(email) || p.IsVIPDomain(email)
}

// IsIgnoredDomain reports whether the address's domain is excluded entirely.
func (p *Policy) IsIgnoredDomain(email string) bool {
	return p.ignoreDomains[Domain(email)]
}

// IsDownrankedDomain reports whether the address's domain carries a penalty.
func (p *Policy) IsDownrankedDomain(email string) bool {
	return p.downrankDomains[Domain(email)]
}

// IsInternal reports whether the address belongs to the configured
// internal (report recipient) domain.
func (p *Policy) IsInternal(email string) bool {
	return p.internalDomain != "" && Domain(email) == p.internalDomain
}

// GroupFor returns the named group mapped to the address's domain,
// or "" when no mapping exists.
func (p *Policy) GroupFor(email string) string {
	return p.groupMappings[Domain(email)]
}

// MatchesIgnorePattern reports whether the subject contains any configured
// ignore substring (case-insensitive).
func (p *Policy) MatchesIgnorePattern(subject string) bool {
	s := strings.ToLower(subject)
	for _, m := range p.ignoreMatch {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Domain extracts the lowercased domain part of an email address,
// or "" when the address has no @.
func Domain(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return ""
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToLower(v)] = true
		}
	}
	return set
}
