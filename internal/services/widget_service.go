package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/mqtt"
	"github.com/vakitapp/vakit-agent/pkg/store"
)

// widgetSnapshotKey is the persisted-store key the external widget reads.
const widgetSnapshotKey = "widget_snapshot"

// WidgetService forwards widget snapshots to the home-screen widget sink:
// the snapshot is published over MQTT and persisted for pickup across agent
// restarts. Rendering happens entirely outside the agent.
type WidgetService struct {
	// Configuration fields
	topic string
	qos   int

	// Dependencies
	mqttClient mqtt.MQTTClient
	persisted  store.Store
	logger     zerolog.Logger

	// Internal state management
	mu            sync.Mutex
	running       bool
	lastPublished *models.WidgetSnapshot
}

// NewWidgetService creates a new WidgetService instance.
func NewWidgetService(topic string, qos int, mqttClient mqtt.MQTTClient, persisted store.Store, logger zerolog.Logger) *WidgetService {
	return &WidgetService{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		persisted:  persisted,
		logger:     logger,
	}
}

// Start marks the service active.
func (w *WidgetService) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.logger.Warn().Msg("WidgetService is already running")
		return errors.New("widget service is already running")
	}

	w.running = true
	w.logger.Info().Str("topic", w.topic).Msg("WidgetService started")
	return nil
}

// Stop marks the service inactive; snapshots received afterwards are dropped.
func (w *WidgetService) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		w.logger.Warn().Msg("WidgetService is not running")
		return errors.New("widget service is not running")
	}

	w.running = false
	w.lastPublished = nil
	w.logger.Info().Msg("WidgetService stopped")
	return nil
}

// Consume receives the per-tick snapshot. Snapshots arrive at 1 Hz but only
// display-relevant changes (minute granularity) are pushed to the sink.
func (w *WidgetService) Consume(snapshot models.WidgetSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.lastPublished != nil && reflect.DeepEqual(*w.lastPublished, snapshot) {
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to serialize widget snapshot")
		return
	}

	token := w.mqttClient.Publish(w.topic, byte(w.qos), true, payload)
	if token.Wait() && token.Error() != nil {
		w.logger.Error().Err(token.Error()).Str("topic", w.topic).Msg("Failed to publish widget snapshot")
		return
	}

	if err := w.persisted.Set(widgetSnapshotKey, string(payload)); err != nil {
		w.logger.Error().Err(err).Msg("Failed to persist widget snapshot")
	}

	w.lastPublished = &snapshot
	w.logger.Debug().Str("next_event", snapshot.NextEventName).Int("remaining_minutes", snapshot.RemainingMinutes).Msg("Widget snapshot published")
}
