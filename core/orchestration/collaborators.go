package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// RegistryQuery asks the service registry for instances of a service.
type RegistryQuery struct {
	Requester string                   `json:"requesterSystem"`
	Service   model.ServiceRequirement `json:"service"`
}

// Registry looks up local service instances.
type Registry interface {
	Lookup(ctx context.Context, q RegistryQuery) ([]model.ServiceInstance, error)
}

// InterCloud looks up instances offered by neighbour clouds.
type InterCloud interface {
	Lookup(ctx context.Context, form model.OrchestrationForm) ([]model.ServiceInstance, error)
}

// TokenIssuer obtains access tokens for a consumer on a provider's interfaces.
type TokenIssuer interface {
	Tokens(ctx context.Context, consumer string, inst model.ServiceInstance) (map[string]string, error)
}

// Translator decides whether a provider interface can be bridged to one
// the consumer speaks.
type Translator interface {
	CanTranslate(required, offered []string) bool
}

// QoSEvaluator drops candidates that do not meet the QoS requirements. It
// must keep the relative order of the survivors.
type QoSEvaluator interface {
	Filter(ctx context.Context, form model.OrchestrationForm, candidates []model.OrchestrationCandidate) ([]model.OrchestrationCandidate, error)
}

// LockFinder reports active locks on service instances.
type LockFinder interface {
	FindActive(ctx context.Context, instanceIDs []string) (map[string]model.OrchestrationLock, error)
}

// LockGranter reserves an instance for a consumer.
type LockGranter interface {
	Grant(ctx context.Context, jobID *uuid.UUID, instanceID, owner string, d time.Duration) (*model.OrchestrationLock, error)
}

// JobTracker records the lifecycle of pull orchestrations.
type JobTracker interface {
	Create(ctx context.Context, jobs []*model.OrchestrationJob) ([]model.OrchestrationJob, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, message *string) (*model.OrchestrationJob, error)
}

// NopTokenIssuer issues no tokens.
type NopTokenIssuer struct{}

func (NopTokenIssuer) Tokens(context.Context, string, model.ServiceInstance) (map[string]string, error) {
	return nil, nil
}

// NoInterCloud finds nothing in other clouds.
type NoInterCloud struct{}

func (NoInterCloud) Lookup(context.Context, model.OrchestrationForm) ([]model.ServiceInstance, error) {
	return nil, nil
}

// AnyTranslator assumes every interface pair can be bridged.
type AnyTranslator struct{}

func (AnyTranslator) CanTranslate(_, offered []string) bool { return len(offered) > 0 }

// PassThroughQoS keeps every candidate.
type PassThroughQoS struct{}

func (PassThroughQoS) Filter(_ context.Context, _ model.OrchestrationForm, c []model.OrchestrationCandidate) ([]model.OrchestrationCandidate, error) {
	return c, nil
}
