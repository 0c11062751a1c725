package orchestration

import (
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

// Validator rejects contradictory or unsupported orchestration forms.
type Validator struct {
	InterCloudEnabled bool
	QoSEnabled        bool
}

// Validate checks form without modifying it.
func (v Validator) Validate(form model.OrchestrationForm) error {
	const origin = "orchestration.Validate"
	f := form.Flags
	switch {
	case form.RequesterSystem == "":
		return orcherr.InvalidParameter(origin, "Requester system is missing")
	case form.Service.ServiceDefinition == "":
		return orcherr.InvalidParameter(origin, "Requested service definition is missing")
	case f.Has(model.FlagOnlyInterCloud) && !v.InterCloudEnabled:
		return orcherr.InvalidParameter(origin, "%s flag is present, but inter-cloud orchestration is not enabled", model.FlagOnlyInterCloud)
	case f.Has(model.FlagOnlyInterCloud) && f.Has(model.FlagAllowTranslation):
		return orcherr.InvalidParameter(origin, "%s and %s flags cannot be present at the same time", model.FlagOnlyInterCloud, model.FlagAllowTranslation)
	case (f.Has(model.FlagOnlyInterCloud) || f.Has(model.FlagAllowInterCloud) || f.Has(model.FlagAllowTranslation)) && len(form.Service.Operations) > 0:
		return orcherr.InvalidParameter(origin, "Operations can not be specified together with inter-cloud or translation flags")
	case f.Has(model.FlagOnlyPreferred) && len(form.PreferredProviders) == 0:
		return orcherr.InvalidParameter(origin, "%s flag is present, but no preferred provider is specified", model.FlagOnlyPreferred)
	case (len(form.QoSRequirements) > 0 || f.Has(model.FlagEnableQoS)) && !v.QoSEnabled:
		return orcherr.InvalidParameter(origin, "QoS requirements are present, but QoS support is not enabled")
	case form.ExclusivityDuration != nil && *form.ExclusivityDuration < 0:
		return orcherr.InvalidParameter(origin, "Exclusivity duration must not be negative")
	}
	return nil
}
