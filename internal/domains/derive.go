package domains

import (
	"github.com/ignite/sitehub/internal/registry"
	"github.com/ignite/sitehub/internal/vercel"
)

// Instruction is the normalized verification record the domain owner
// must create. An empty Type means the provider has not yet reported a
// usable recommendation ("DNS not yet known").
type Instruction struct {
	Status string `json:"status"`
	Type   string `json:"type,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Derive maps a domain name plus the provider's reported DNS
// configuration to the verification record the owner must create.
// Apex domains prefer an A record, falling back to CNAME; deeper
// hostnames prefer CNAME, falling back to A. It is pure and
// deterministic for identical inputs.
func Derive(domain string, cfg vercel.DomainConfig) Instruction {
	inst := Instruction{Status: registry.StatusActive}
	if cfg.Misconfigured {
		inst.Status = registry.StatusPending
	}

	aValue := firstIPv4(cfg.RecommendedIPv4)
	cnameValue := firstCNAME(cfg.RecommendedCNAME)

	if IsApex(domain) {
		switch {
		case aValue != "":
			inst.Type, inst.Value = "A", aValue
		case cnameValue != "":
			inst.Type, inst.Value = "CNAME", cnameValue
		}
	} else {
		switch {
		case cnameValue != "":
			inst.Type, inst.Value = "CNAME", cnameValue
		case aValue != "":
			inst.Type, inst.Value = "A", aValue
		}
	}

	if inst.Type != "" {
		inst.Name = domain
	}
	return inst
}

func firstIPv4(sets []vercel.IPv4Set) string {
	for _, set := range sets {
		for _, v := range set.Value {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func firstCNAME(records []vercel.CNAMERecord) string {
	for _, r := range records {
		if r.Value != "" {
			return r.Value
		}
	}
	return ""
}
