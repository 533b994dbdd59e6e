package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vakitapp/vakit-agent/internal/models"
)

// TestStatusService_StartStop tests the service lifecycle guards.
func TestStatusService_StartStop(t *testing.T) {
	// Setup
	s := NewStatusService("vakit/status", time.Hour, "agent-1", 1, new(MockMQTTClient), zerolog.Nop())

	// Execute and Assert
	err := s.Start()
	assert.NoError(t, err)

	err = s.Start()
	assert.Error(t, err)
	assert.Equal(t, "status service is already running", err.Error())

	err = s.Stop()
	assert.NoError(t, err)

	err = s.Stop()
	assert.Error(t, err)
	assert.Equal(t, "status service is not running", err.Error())
}

// TestStatusService_PublishesReports tests that the loop publishes health
// reports on the configured topic.
func TestStatusService_PublishesReports(t *testing.T) {
	// Setup
	var published []byte
	mockMQTT := new(MockMQTTClient)
	mockMQTT.On("Publish", "vakit/status", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(3).([]byte)
		}).
		Return(successToken())

	s := NewStatusService("vakit/status", 20*time.Millisecond, "agent-1", 1, mockMQTT, zerolog.Nop())
	assert.NoError(t, s.Start())

	// Execute
	time.Sleep(70 * time.Millisecond)
	assert.NoError(t, s.Stop())

	// Assert
	mockMQTT.AssertCalled(t, "Publish", "vakit/status", byte(1), false, mock.Anything)

	var status models.Status
	assert.NoError(t, json.Unmarshal(published, &status))
	assert.Equal(t, "agent-1", status.AgentID)
	assert.False(t, status.Timestamp.IsZero())
	assert.GreaterOrEqual(t, status.UptimeSeconds, int64(0))
}

// TestStatusService_Collect tests the health snapshot fields directly.
func TestStatusService_Collect(t *testing.T) {
	// Setup
	s := NewStatusService("vakit/status", time.Hour, "agent-1", 1, new(MockMQTTClient), zerolog.Nop())
	s.startedAt = time.Now().Add(-42 * time.Second)

	// Execute
	status := s.collect()

	// Assert
	assert.Equal(t, "agent-1", status.AgentID)
	assert.GreaterOrEqual(t, status.UptimeSeconds, int64(42))
	assert.GreaterOrEqual(t, status.MemoryUsedPercent, 0.0)
	assert.LessOrEqual(t, status.MemoryUsedPercent, 100.0)
}
