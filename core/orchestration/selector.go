package orchestration

import (
	"context"
	"slices"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

// SelectorDeps carries the collaborators of a Selector. Nil optional
// members fall back to their no-op implementations.
type SelectorDeps struct {
	Registry   Registry
	InterCloud InterCloud
	Tokens     TokenIssuer
	Translator Translator
	QoS        QoSEvaluator
	Locks      LockFinder
	Log        logger.Logger
}

// Selector picks the provider an orchestration form resolves to.
type Selector struct {
	SelectorDeps
}

// NewSelector creates a selector.
func NewSelector(deps SelectorDeps) *Selector {
	if deps.InterCloud == nil {
		deps.InterCloud = NoInterCloud{}
	}
	if deps.Tokens == nil {
		deps.Tokens = NopTokenIssuer{}
	}
	if deps.Translator == nil {
		deps.Translator = AnyTranslator{}
	}
	if deps.QoS == nil {
		deps.QoS = PassThroughQoS{}
	}
	return &Selector{SelectorDeps: deps}
}

// Select returns the winning candidate for form, or nil when no provider
// qualifies.
func (s *Selector) Select(ctx context.Context, form model.OrchestrationForm) (*model.OrchestrationCandidate, error) {
	const origin = "orchestration.Select"
	if form.Flags.Has(model.FlagOnlyInterCloud) {
		return s.fromInterCloud(ctx, form)
	}

	q := RegistryQuery{Requester: form.RequesterSystem, Service: form.Service}
	if form.Flags.Has(model.FlagAllowTranslation) {
		// bridgeable instances are matched locally
		q.Service.Interfaces = nil
	}
	instances, err := s.Registry.Lookup(ctx, q)
	if err != nil {
		s.Log.Errorf("registry lookup for %s: %v", form.Service.ServiceDefinition, err)
		return nil, orcherr.External(origin, err)
	}
	chosen, err := s.choose(ctx, form, instances, true)
	if err != nil || chosen != nil {
		return chosen, err
	}
	if form.Flags.Has(model.FlagAllowInterCloud) {
		return s.fromInterCloud(ctx, form)
	}
	return nil, nil
}

func (s *Selector) fromInterCloud(ctx context.Context, form model.OrchestrationForm) (*model.OrchestrationCandidate, error) {
	instances, err := s.InterCloud.Lookup(ctx, form)
	if err != nil {
		s.Log.Errorf("inter-cloud lookup for %s: %v", form.Service.ServiceDefinition, err)
		return nil, orcherr.External("orchestration.InterCloud", err)
	}
	return s.choose(ctx, form, instances, false)
}

func (s *Selector) choose(ctx context.Context, form model.OrchestrationForm, instances []model.ServiceInstance, local bool) (*model.OrchestrationCandidate, error) {
	if len(instances) == 0 {
		return nil, nil
	}
	candidates := make([]model.OrchestrationCandidate, 0, len(instances))
	for _, inst := range instances {
		candidates = append(candidates, model.OrchestrationCandidate{Instance: inst, IsLocal: local})
	}

	if local {
		var err error
		if candidates, err = s.filterLocked(ctx, form.RequesterSystem, candidates); err != nil {
			return nil, err
		}
	}
	candidates = orderPreferred(form, candidates)
	if len(form.QoSRequirements) > 0 || form.Flags.Has(model.FlagEnableQoS) {
		var err error
		if candidates, err = s.QoS.Filter(ctx, form, candidates); err != nil {
			return nil, orcherr.External("orchestration.QoS", err)
		}
	}
	candidates = s.matchInterfaces(form, candidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	winner := candidates[0]
	if form.ExclusivityDuration != nil && *form.ExclusivityDuration > 0 && winner.IsLocal && !winner.IsLocked {
		winner.CanBeExclusive = true
	}
	tokens, err := s.Tokens.Tokens(ctx, form.RequesterSystem, winner.Instance)
	if err != nil {
		s.Log.Errorf("token issuance for %s: %v", winner.Instance.InstanceID, err)
		return nil, orcherr.External("orchestration.Tokens", err)
	}
	winner.Tokens = tokens
	return &winner, nil
}

// filterLocked drops instances locked by someone else and flags those the
// requester already holds.
func (s *Selector) filterLocked(ctx context.Context, requester string, candidates []model.OrchestrationCandidate) ([]model.OrchestrationCandidate, error) {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Instance.InstanceID)
	}
	locks, err := s.Locks.FindActive(ctx, ids)
	if err != nil {
		return nil, orcherr.Classify("orchestration.Locks", err)
	}
	kept := candidates[:0]
	for _, c := range candidates {
		l, held := locks[c.Instance.InstanceID]
		if held && l.Owner != requester {
			continue
		}
		c.IsLocked = held
		kept = append(kept, c)
	}
	return kept, nil
}

// orderPreferred moves preferred providers to the front in the order the
// consumer listed them. With ONLY_PREFERRED the others are dropped.
func orderPreferred(form model.OrchestrationForm, candidates []model.OrchestrationCandidate) []model.OrchestrationCandidate {
	if len(form.PreferredProviders) == 0 {
		return candidates
	}
	rank := func(c model.OrchestrationCandidate) int { return form.PreferredRank(c.Instance) }
	var preferred, others []model.OrchestrationCandidate
	for _, c := range candidates {
		if rank(c) >= 0 {
			preferred = append(preferred, c)
		} else {
			others = append(others, c)
		}
	}
	slices.SortStableFunc(preferred, func(a, b model.OrchestrationCandidate) int { return rank(a) - rank(b) })
	if form.Flags.Has(model.FlagOnlyPreferred) {
		return preferred
	}
	return append(preferred, others...)
}

// matchInterfaces keeps the candidates that speak a required interface.
// With ALLOW_TRANSLATION and no direct match, the first bridgeable
// candidate is kept and flagged.
func (s *Selector) matchInterfaces(form model.OrchestrationForm, candidates []model.OrchestrationCandidate) []model.OrchestrationCandidate {
	required := form.Service.Interfaces
	if len(required) == 0 {
		return candidates
	}
	var direct []model.OrchestrationCandidate
	for _, c := range candidates {
		if slices.ContainsFunc(c.Instance.Interfaces, func(i string) bool { return slices.Contains(required, i) }) {
			direct = append(direct, c)
		}
	}
	if len(direct) > 0 || !form.Flags.Has(model.FlagAllowTranslation) {
		return direct
	}
	for _, c := range candidates {
		if s.Translator.CanTranslate(required, c.Instance.Interfaces) {
			c.TranslationNeeded = true
			return []model.OrchestrationCandidate{c}
		}
	}
	return nil
}
