package orchestration

import (
	"testing"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

func TestValidate(t *testing.T) {
	base := func() model.OrchestrationForm {
		return model.OrchestrationForm{
			RequesterSystem: "consumer",
			Service:         model.ServiceRequirement{ServiceDefinition: "temperature"},
			Flags:           model.Flags{},
		}
	}
	neg := -5
	tests := []struct {
		name   string
		v      Validator
		mutate func(*model.OrchestrationForm)
		ok     bool
	}{
		{"plain", Validator{}, func(*model.OrchestrationForm) {}, true},
		{"no requester", Validator{}, func(f *model.OrchestrationForm) { f.RequesterSystem = "" }, false},
		{"no service", Validator{}, func(f *model.OrchestrationForm) { f.Service.ServiceDefinition = "" }, false},
		{"only intercloud disabled", Validator{}, func(f *model.OrchestrationForm) { f.Flags[model.FlagOnlyInterCloud] = true }, false},
		{"only intercloud enabled", Validator{InterCloudEnabled: true}, func(f *model.OrchestrationForm) { f.Flags[model.FlagOnlyInterCloud] = true }, true},
		{"intercloud and translation", Validator{InterCloudEnabled: true}, func(f *model.OrchestrationForm) {
			f.Flags[model.FlagOnlyInterCloud] = true
			f.Flags[model.FlagAllowTranslation] = true
		}, false},
		{"translation with operations", Validator{}, func(f *model.OrchestrationForm) {
			f.Flags[model.FlagAllowTranslation] = true
			f.Service.Operations = []string{"read"}
		}, false},
		{"allow intercloud with operations", Validator{InterCloudEnabled: true}, func(f *model.OrchestrationForm) {
			f.Flags[model.FlagAllowInterCloud] = true
			f.Service.Operations = []string{"read"}
		}, false},
		{"operations alone", Validator{}, func(f *model.OrchestrationForm) { f.Service.Operations = []string{"read"} }, true},
		{"only preferred empty", Validator{}, func(f *model.OrchestrationForm) { f.Flags[model.FlagOnlyPreferred] = true }, false},
		{"only preferred", Validator{}, func(f *model.OrchestrationForm) {
			f.Flags[model.FlagOnlyPreferred] = true
			f.PreferredProviders = []model.PreferredProvider{{ProviderSystem: model.System{SystemName: "p"}}}
		}, true},
		{"qos disabled", Validator{}, func(f *model.OrchestrationForm) { f.QoSRequirements = map[string]string{"maxLatency": "10"} }, false},
		{"qos enabled", Validator{QoSEnabled: true}, func(f *model.OrchestrationForm) { f.QoSRequirements = map[string]string{"maxLatency": "10"} }, true},
		{"negative exclusivity", Validator{}, func(f *model.OrchestrationForm) { f.ExclusivityDuration = &neg }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(&f)
			err := tt.v.Validate(f)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !orcherr.IsInvalidParameter(err) {
				t.Fatalf("expected invalid parameter, got %v", err)
			}
		})
	}
}
