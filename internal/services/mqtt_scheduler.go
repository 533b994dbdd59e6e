package services

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/mqtt"
)

// schedulerMessage is the wire shape understood by the companion app's
// local notification bridge.
type schedulerMessage struct {
	Action  string                      `json:"action"`
	Request *models.NotificationRequest `json:"request,omitempty"`
}

// MQTTScheduler forwards scheduling actions to the notification bridge
// over MQTT. Messages are not retained; the bridge owns the pending set.
type MQTTScheduler struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewMQTTScheduler creates a new MQTTScheduler instance.
func NewMQTTScheduler(topic string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTScheduler {
	return &MQTTScheduler{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Schedule publishes a schedule action for a single notification request.
func (m *MQTTScheduler) Schedule(req models.NotificationRequest) error {
	return m.publish(schedulerMessage{Action: "schedule", Request: &req})
}

// CancelAll publishes a cancel_all action clearing the pending set.
func (m *MQTTScheduler) CancelAll() error {
	return m.publish(schedulerMessage{Action: "cancel_all"})
}

func (m *MQTTScheduler) publish(msg schedulerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal scheduler message: %w", err)
	}

	token := m.mqttClient.Publish(m.topic, byte(m.qos), false, payload)
	if token.Wait() && token.Error() != nil {
		m.logger.Error().Err(token.Error()).Str("topic", m.topic).Str("action", msg.Action).Msg("Failed to publish scheduler message")
		return token.Error()
	}

	m.logger.Debug().Str("topic", m.topic).Str("action", msg.Action).Msg("Scheduler message published")
	return nil
}
