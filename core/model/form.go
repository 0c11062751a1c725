package model

// Orchestration flag names.
const (
	FlagMatchmaking      = "MATCHMAKING"
	FlagOnlyInterCloud   = "ONLY_INTERCLOUD"
	FlagAllowInterCloud  = "ALLOW_INTERCLOUD"
	FlagAllowTranslation = "ALLOW_TRANSLATION"
	FlagOnlyPreferred    = "ONLY_PREFERRED"
	FlagEnableQoS        = "ENABLE_QOS"
)

// Flags is the set of orchestration flags carried by a request.
type Flags map[string]bool

// Has reports whether the flag is set.
func (f Flags) Has(name string) bool { return f[name] }

// System identifies an application system.
type System struct {
	SystemName string            `json:"systemName"`
	Address    string            `json:"address,omitempty"`
	Port       int               `json:"port,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Cloud identifies a neighbour cloud reached through inter-cloud lookup.
type Cloud struct {
	Operator string `json:"operator"`
	Name     string `json:"name"`
}

// ServiceRequirement describes the service a consumer asks for.
type ServiceRequirement struct {
	ServiceDefinition string            `json:"serviceDefinition"`
	Interfaces        []string          `json:"interfaces,omitempty"`
	SecurityTypes     []string          `json:"securityTypes,omitempty"`
	Version           *int              `json:"version,omitempty"`
	MinVersion        *int              `json:"minVersion,omitempty"`
	MaxVersion        *int              `json:"maxVersion,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Operations        []string          `json:"operations,omitempty"`
}

// PreferredProvider names a provider the consumer would rather use.
type PreferredProvider struct {
	ProviderSystem System `json:"providerSystem"`
	ProviderCloud  *Cloud `json:"providerCloud,omitempty"`
}

// OrchestrationForm is the normalized in-memory orchestration request.
type OrchestrationForm struct {
	RequesterSystem    string              `json:"requesterSystem"`
	TargetSystem       string              `json:"targetSystem,omitempty"`
	Service            ServiceRequirement  `json:"requestedService"`
	Flags              Flags               `json:"orchestrationFlags,omitempty"`
	PreferredProviders []PreferredProvider `json:"preferredProviders,omitempty"`
	// ExclusivityDuration in seconds; nil means no lock is requested.
	ExclusivityDuration *int              `json:"exclusivityDuration,omitempty"`
	QoSRequirements     map[string]string `json:"qosRequirements,omitempty"`
}

// PreferredRank returns the position of inst's provider in the preferred
// list, or -1 when it is not preferred. A preferred entry naming a cloud only
// matches instances from that cloud.
func (f OrchestrationForm) PreferredRank(inst ServiceInstance) int {
	for i, p := range f.PreferredProviders {
		if p.ProviderSystem.SystemName != inst.Provider.SystemName {
			continue
		}
		if p.ProviderCloud != nil && (inst.Cloud == nil || *p.ProviderCloud != *inst.Cloud) {
			continue
		}
		return i
	}
	return -1
}
