package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
	"github.com/kilianp07/orchestrator/infra/logger"
)

type fakeRegistry struct {
	instances []model.ServiceInstance
	err       error
	last      RegistryQuery
}

func (f *fakeRegistry) Lookup(_ context.Context, q RegistryQuery) ([]model.ServiceInstance, error) {
	f.last = q
	return f.instances, f.err
}

type fakeInterCloud struct {
	instances []model.ServiceInstance
	calls     int
}

func (f *fakeInterCloud) Lookup(context.Context, model.OrchestrationForm) ([]model.ServiceInstance, error) {
	f.calls++
	return f.instances, nil
}

type fakeLocks map[string]model.OrchestrationLock

func (f fakeLocks) FindActive(_ context.Context, ids []string) (map[string]model.OrchestrationLock, error) {
	out := map[string]model.OrchestrationLock{}
	for _, id := range ids {
		if l, ok := f[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

type failingLocks struct{}

func (failingLocks) FindActive(context.Context, []string) (map[string]model.OrchestrationLock, error) {
	return nil, errors.New("db down")
}

type fakeTokens struct{ err error }

func (f fakeTokens) Tokens(_ context.Context, consumer string, inst model.ServiceInstance) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]string{"HTTP-SECURE-JSON": consumer + "@" + inst.InstanceID}, nil
}

type dropFirstQoS struct{}

func (dropFirstQoS) Filter(_ context.Context, _ model.OrchestrationForm, c []model.OrchestrationCandidate) ([]model.OrchestrationCandidate, error) {
	return c[1:], nil
}

type noTranslator struct{}

func (noTranslator) CanTranslate(_, _ []string) bool { return false }

func instance(id, provider string, ifaces ...string) model.ServiceInstance {
	return model.ServiceInstance{InstanceID: id, ServiceDefinition: "temperature", Provider: model.System{SystemName: provider}, Interfaces: ifaces}
}

func form() model.OrchestrationForm {
	return model.OrchestrationForm{
		RequesterSystem: "consumer",
		Service:         model.ServiceRequirement{ServiceDefinition: "temperature"},
		Flags:           model.Flags{},
	}
}

func selector(reg Registry, locks LockFinder) *Selector {
	return NewSelector(SelectorDeps{Registry: reg, Locks: locks, Log: logger.NopLogger{}})
}

func TestSelectFirstInRegistryOrder(t *testing.T) {
	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1"), instance("i2", "p2")}}
	c, err := selector(reg, fakeLocks{}).Select(context.Background(), form())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "i1", c.Instance.InstanceID)
	assert.True(t, c.IsLocal)
	assert.False(t, c.CanBeExclusive)
}

func TestSelectNoCandidate(t *testing.T) {
	c, err := selector(&fakeRegistry{}, fakeLocks{}).Select(context.Background(), form())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSelectLockFiltering(t *testing.T) {
	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1"), instance("i2", "p2"), instance("i3", "p3")}}
	locks := fakeLocks{
		"i1": {ServiceInstanceID: "i1", Owner: "someone-else"},
		"i2": {ServiceInstanceID: "i2", Owner: "consumer"},
	}
	f := form()
	secs := 30
	f.ExclusivityDuration = &secs

	c, err := selector(reg, locks).Select(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "i2", c.Instance.InstanceID)
	assert.True(t, c.IsLocked)
	assert.False(t, c.CanBeExclusive)
}

func TestSelectExclusivity(t *testing.T) {
	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1")}}
	f := form()
	secs := 30
	f.ExclusivityDuration = &secs
	c, err := selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	assert.True(t, c.CanBeExclusive)
}

func TestSelectPreferredOrder(t *testing.T) {
	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1"), instance("i2", "p2"), instance("i3", "p3")}}
	f := form()
	f.PreferredProviders = []model.PreferredProvider{
		{ProviderSystem: model.System{SystemName: "p3"}},
		{ProviderSystem: model.System{SystemName: "p2"}},
	}
	c, err := selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "i3", c.Instance.InstanceID)

	f.PreferredProviders = []model.PreferredProvider{{ProviderSystem: model.System{SystemName: "missing"}}}
	c, err = selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "i1", c.Instance.InstanceID)

	f.Flags[model.FlagOnlyPreferred] = true
	c, err = selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSelectTranslation(t *testing.T) {
	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1", "COAP-INSECURE-CBOR"), instance("i2", "p2", "MQTT-SECURE-JSON")}}
	f := form()
	f.Service.Interfaces = []string{"HTTP-SECURE-JSON"}

	c, err := selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, c, "no direct match without translation")
	assert.Equal(t, []string{"HTTP-SECURE-JSON"}, reg.last.Service.Interfaces)

	f.Flags[model.FlagAllowTranslation] = true
	c, err = selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "i1", c.Instance.InstanceID)
	assert.True(t, c.TranslationNeeded)
	assert.Empty(t, reg.last.Service.Interfaces)

	reg.instances = append(reg.instances, instance("i3", "p3", "HTTP-SECURE-JSON"))
	c, err = selector(reg, fakeLocks{}).Select(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "i3", c.Instance.InstanceID)
	assert.False(t, c.TranslationNeeded)

	reg.instances = reg.instances[:2]
	strict := NewSelector(SelectorDeps{Registry: reg, Locks: fakeLocks{}, Translator: noTranslator{}, Log: logger.NopLogger{}})
	c, err = strict.Select(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSelectInterCloud(t *testing.T) {
	remote := instance("r1", "remote")
	remote.Cloud = &model.Cloud{Operator: "acme", Name: "north"}
	ic := &fakeInterCloud{instances: []model.ServiceInstance{remote}}
	reg := &fakeRegistry{}
	s := NewSelector(SelectorDeps{Registry: reg, InterCloud: ic, Locks: fakeLocks{}, Log: logger.NopLogger{}})

	c, err := s.Select(context.Background(), form())
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Zero(t, ic.calls)

	f := form()
	f.Flags[model.FlagAllowInterCloud] = true
	c, err = s.Select(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, c.IsLocal)
	assert.Equal(t, 1, ic.calls)

	reg.instances = []model.ServiceInstance{instance("i1", "p1")}
	c, err = s.Select(context.Background(), f)
	require.NoError(t, err)
	assert.True(t, c.IsLocal)
	assert.Equal(t, 1, ic.calls)

	f = form()
	f.Flags[model.FlagOnlyInterCloud] = true
	secs := 10
	f.ExclusivityDuration = &secs
	c, err = s.Select(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "r1", c.Instance.InstanceID)
	assert.False(t, c.CanBeExclusive)
}

func TestSelectQoSAndTokens(t *testing.T) {
	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1"), instance("i2", "p2")}}
	s := NewSelector(SelectorDeps{Registry: reg, Locks: fakeLocks{}, QoS: dropFirstQoS{}, Tokens: fakeTokens{}, Log: logger.NopLogger{}})
	f := form()
	f.QoSRequirements = map[string]string{"maxLatency": "10"}

	c, err := s.Select(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "i2", c.Instance.InstanceID)
	assert.Equal(t, "consumer@i2", c.Tokens["HTTP-SECURE-JSON"])
}

func TestSelectErrorKinds(t *testing.T) {
	_, err := selector(&fakeRegistry{err: errors.New("timeout")}, fakeLocks{}).Select(context.Background(), form())
	assert.True(t, orcherr.IsExternal(err))

	reg := &fakeRegistry{instances: []model.ServiceInstance{instance("i1", "p1")}}
	_, err = selector(reg, failingLocks{}).Select(context.Background(), form())
	assert.True(t, orcherr.IsInternal(err))

	s := NewSelector(SelectorDeps{Registry: reg, Locks: fakeLocks{}, Tokens: fakeTokens{err: errors.New("denied")}, Log: logger.NopLogger{}})
	_, err = s.Select(context.Background(), form())
	assert.True(t, orcherr.IsExternal(err))
}
