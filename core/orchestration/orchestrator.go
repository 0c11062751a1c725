// Package orchestration resolves orchestration forms to providers. Pull
// requests are tracked as PULL jobs; push dispatch reuses Execute.
package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
)

// ExpiringWindow is the remaining validity below which a result is
// flagged TTL_EXPIRING.
const ExpiringWindow = 2 * time.Minute

// Orchestrator runs pull orchestrations and executes forms on behalf of
// push jobs.
type Orchestrator struct {
	selector  *Selector
	validator Validator
	jobs      JobTracker
	locks     LockGranter
	log       logger.Logger
	now       func() time.Time
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(sel *Selector, v Validator, jobs JobTracker, locks LockGranter, log logger.Logger) *Orchestrator {
	return &Orchestrator{selector: sel, validator: v, jobs: jobs, locks: locks, log: log, now: time.Now}
}

// SetClock replaces the time source used for warnings.
func (o *Orchestrator) SetClock(now func() time.Time) {
	if now != nil {
		o.now = now
	}
}

// Validator returns the form validator in use.
func (o *Orchestrator) Validator() Validator { return o.validator }

// Pull validates form, records a PULL job and runs it synchronously.
func (o *Orchestrator) Pull(ctx context.Context, form model.OrchestrationForm) (model.OrchestrationResponse, error) {
	if err := o.validator.Validate(form); err != nil {
		return model.OrchestrationResponse{}, err
	}
	target := form.TargetSystem
	if target == "" {
		target = form.RequesterSystem
	}
	created, err := o.jobs.Create(ctx, []*model.OrchestrationJob{{
		Type:              model.JobPull,
		RequesterSystem:   form.RequesterSystem,
		TargetSystem:      target,
		ServiceDefinition: form.Service.ServiceDefinition,
	}})
	if err != nil {
		return model.OrchestrationResponse{}, err
	}
	id := created[0].ID
	if _, err := o.jobs.SetStatus(ctx, id, model.JobInProgress, nil); err != nil {
		return model.OrchestrationResponse{}, err
	}

	resp, err := o.Execute(ctx, form, &id)
	if err != nil {
		msg := err.Error()
		if _, serr := o.jobs.SetStatus(context.WithoutCancel(ctx), id, model.JobError, &msg); serr != nil {
			o.log.Errorf("pull job %s: record failure: %v", id, serr)
		}
		return model.OrchestrationResponse{}, err
	}
	if _, err := o.jobs.SetStatus(context.WithoutCancel(ctx), id, model.JobDone, nil); err != nil {
		o.log.Errorf("pull job %s: record completion: %v", id, err)
	}
	return resp, nil
}

// Execute runs candidate selection for form and builds the response. When
// the form asks for exclusivity the chosen instance is locked for the
// requester and the lock references jobID.
func (o *Orchestrator) Execute(ctx context.Context, form model.OrchestrationForm, jobID *uuid.UUID) (model.OrchestrationResponse, error) {
	resp := model.OrchestrationResponse{Response: []model.OrchestrationResult{}}
	cand, err := o.selector.Select(ctx, form)
	if err != nil {
		return resp, err
	}
	if cand == nil {
		o.log.Infof("no provider for %s requested by %s", form.Service.ServiceDefinition, form.RequesterSystem)
		return resp, nil
	}

	res := o.result(cand)
	if cand.CanBeExclusive {
		d := time.Duration(*form.ExclusivityDuration) * time.Second
		l, err := o.locks.Grant(ctx, jobID, cand.Instance.InstanceID, form.RequesterSystem, d)
		if err != nil {
			return resp, err
		}
		res.Warnings = append(res.Warnings, model.WarnExclusive)
		res.ExclusiveUntil = l.ExpiresAt
	}
	resp.Response = append(resp.Response, res)
	return resp, nil
}

func (o *Orchestrator) result(c *model.OrchestrationCandidate) model.OrchestrationResult {
	inst := c.Instance
	res := model.OrchestrationResult{
		InstanceID:          inst.InstanceID,
		Provider:            inst.Provider,
		Service:             inst.ServiceDefinition,
		ServiceURI:          inst.ServiceURI,
		Interfaces:          inst.Interfaces,
		Version:             inst.Version,
		SecurityType:        inst.SecurityType,
		Metadata:            inst.Metadata,
		AuthorizationTokens: c.Tokens,
		Cloud:               inst.Cloud,
		Warnings:            []string{},
	}
	if !c.IsLocal {
		res.Warnings = append(res.Warnings, model.WarnFromOtherCloud)
	}
	if c.TranslationNeeded {
		res.Warnings = append(res.Warnings, model.WarnTranslationNeeded)
	}
	switch {
	case inst.EndOfValidity == nil:
		res.Warnings = append(res.Warnings, model.WarnTTLUnknown)
	case inst.EndOfValidity.Sub(o.now()) < ExpiringWindow:
		res.Warnings = append(res.Warnings, model.WarnTTLExpiring)
	}
	return res
}
