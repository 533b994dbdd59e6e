package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/store"
)

func testSnapshot() models.WidgetSnapshot {
	return models.WidgetSnapshot{
		NextEventName:    "İkindi",
		NextEventTime:    "16:30",
		RemainingMinutes: 150,
		CurrentTime:      "14:00",
		LocationLabel:    "Istanbul",
		Times:            map[string]string{"ogle": "13:00", "ikindi": "16:30"},
	}
}

// TestWidgetService_StartStop tests the service lifecycle guards.
func TestWidgetService_StartStop(t *testing.T) {
	// Setup
	w := NewWidgetService("vakit/widget", 1, new(MockMQTTClient), store.NewMemoryStore(), zerolog.Nop())

	// Execute and Assert
	err := w.Start()
	assert.NoError(t, err)

	err = w.Start()
	assert.Error(t, err)
	assert.Equal(t, "widget service is already running", err.Error())

	err = w.Stop()
	assert.NoError(t, err)

	err = w.Stop()
	assert.Error(t, err)
	assert.Equal(t, "widget service is not running", err.Error())
}

// TestWidgetService_Consume_PublishesAndPersists tests that a fresh snapshot
// is published retained and persisted for restart pickup.
func TestWidgetService_Consume_PublishesAndPersists(t *testing.T) {
	// Setup
	mockMQTT := new(MockMQTTClient)
	mockMQTT.On("Publish", "vakit/widget", byte(1), true, mock.Anything).Return(successToken())
	persisted := store.NewMemoryStore()

	w := NewWidgetService("vakit/widget", 1, mockMQTT, persisted, zerolog.Nop())
	assert.NoError(t, w.Start())

	// Execute
	w.Consume(testSnapshot())

	// Assert
	mockMQTT.AssertNumberOfCalls(t, "Publish", 1)

	raw, found, err := persisted.Get("widget_snapshot")
	assert.NoError(t, err)
	assert.True(t, found)

	var stored models.WidgetSnapshot
	assert.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, testSnapshot(), stored)
}

// TestWidgetService_Consume_SkipsDuplicates tests that identical snapshots
// are not republished.
func TestWidgetService_Consume_SkipsDuplicates(t *testing.T) {
	// Setup
	mockMQTT := new(MockMQTTClient)
	mockMQTT.On("Publish", "vakit/widget", byte(1), true, mock.Anything).Return(successToken())

	w := NewWidgetService("vakit/widget", 1, mockMQTT, store.NewMemoryStore(), zerolog.Nop())
	assert.NoError(t, w.Start())

	// Execute
	w.Consume(testSnapshot())
	w.Consume(testSnapshot())

	changed := testSnapshot()
	changed.RemainingMinutes = 149
	changed.CurrentTime = "14:01"
	w.Consume(changed)

	// Assert
	mockMQTT.AssertNumberOfCalls(t, "Publish", 2)
}

// TestWidgetService_Consume_DroppedWhenStopped tests that snapshots received
// outside the running window are ignored.
func TestWidgetService_Consume_DroppedWhenStopped(t *testing.T) {
	// Setup
	mockMQTT := new(MockMQTTClient)
	w := NewWidgetService("vakit/widget", 1, mockMQTT, store.NewMemoryStore(), zerolog.Nop())

	// Execute
	w.Consume(testSnapshot())

	// Assert
	mockMQTT.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestWidgetService_Consume_PublishFailureRetriesNextTick tests that a failed
// publish is not recorded as delivered, so the next identical snapshot is
// attempted again.
func TestWidgetService_Consume_PublishFailureRetriesNextTick(t *testing.T) {
	// Setup
	failed := new(MockToken)
	failed.On("Wait").Return(true)
	failed.On("Error").Return(errors.New("broker unreachable"))

	mockMQTT := new(MockMQTTClient)
	mockMQTT.On("Publish", "vakit/widget", byte(1), true, mock.Anything).Return(failed).Once()
	mockMQTT.On("Publish", "vakit/widget", byte(1), true, mock.Anything).Return(successToken())
	persisted := store.NewMemoryStore()

	w := NewWidgetService("vakit/widget", 1, mockMQTT, persisted, zerolog.Nop())
	assert.NoError(t, w.Start())

	// Execute
	w.Consume(testSnapshot())

	_, found, err := persisted.Get("widget_snapshot")
	assert.NoError(t, err)
	assert.False(t, found)

	w.Consume(testSnapshot())

	// Assert
	mockMQTT.AssertNumberOfCalls(t, "Publish", 2)

	_, found, err = persisted.Get("widget_snapshot")
	assert.NoError(t, err)
	assert.True(t, found)
}
