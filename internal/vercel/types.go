package vercel

// ProjectDomain is the provider's record of a domain attached to the
// platform project.
type ProjectDomain struct {
	Name       string `json:"name"`
	ApexName   string `json:"apexName"`
	ProjectID  string `json:"projectId"`
	Redirect   string `json:"redirect,omitempty"`
	Verified   bool   `json:"verified"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
	UpdatedAt  int64  `json:"updatedAt,omitempty"`
}

// IPv4Set is one recommended A-record entry. The provider reports the
// candidate addresses as a list under a single entry.
type IPv4Set struct {
	Value []string `json:"value"`
}

// CNAMERecord is one recommended CNAME target.
type CNAMERecord struct {
	Value string `json:"value"`
}

// DomainConfig is the strongly-typed projection of the provider's DNS
// configuration response, restricted to the fields this system consumes.
type DomainConfig struct {
	Misconfigured    bool          `json:"misconfigured"`
	RecommendedIPv4  []IPv4Set     `json:"recommendedIPv4"`
	RecommendedCNAME []CNAMERecord `json:"recommendedCNAME"`
}

// apiError is the provider's error response envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
