package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/provider/resilience"
)

func TestRegistry_RegistersOnConstruction(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("geocoding")
	cfg.Registry = registry
	resilience.NewClient(cfg)

	health := registry.Health("geocoding")
	require.NotNil(t, health)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Equal(t, resilience.HealthOK, health.Status())
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("openweathermap", resilience.NewClient(resilience.DefaultClientConfig("openweathermap")))

	registry.RecordFailure("openweathermap", errors.New("connection refused"))

	health := registry.Health("openweathermap")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "connection refused", health.LastError)
}

func TestRegistry_UnknownUpstream(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("missing")
	registry.RecordFailure("missing", errors.New("x"))

	assert.Nil(t, registry.Health("missing"))
	assert.Empty(t, registry.All())
}

func TestRegistry_AllSortedByName(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("openweathermap", resilience.NewClient(resilience.DefaultClientConfig("openweathermap")))
	registry.Register("geocoding", resilience.NewClient(resilience.DefaultClientConfig("geocoding")))

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "geocoding", all[0].Name)
	assert.Equal(t, "openweathermap", all[1].Name)
}

func TestUpstreamHealth_Status(t *testing.T) {
	tests := []struct {
		state    gobreaker.State
		expected resilience.HealthStatus
	}{
		{gobreaker.StateClosed, resilience.HealthOK},
		{gobreaker.StateHalfOpen, resilience.HealthDegraded},
		{gobreaker.StateOpen, resilience.HealthFail},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.UpstreamHealth{CircuitState: tt.state}
			assert.Equal(t, tt.expected, h.Status())
		})
	}
}
