package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/mqtt"
)

// StatusService publishes periodic agent health reports.
type StatusService struct {
	PubTopic   string
	Interval   time.Duration
	AgentID    string
	QOS        int
	MqttClient mqtt.MQTTClient
	Logger     zerolog.Logger

	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewStatusService initializes a new StatusService.
func NewStatusService(pubTopic string, interval time.Duration, agentID string,
	qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *StatusService {

	return &StatusService{
		PubTopic:   pubTopic,
		Interval:   interval,
		AgentID:    agentID,
		QOS:        qos,
		MqttClient: mqttClient,
		Logger:     logger,
	}
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.Logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.startedAt = time.Now()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.Logger.Info().Str("topic", s.PubTopic).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.Logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.Logger.Info().Msg("StatusService stopped successfully")
	return nil
}

// runStatusLoop continuously publishes status reports at the specified interval.
func (s *StatusService) runStatusLoop() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			payload, err := json.Marshal(s.collect())
			if err != nil {
				s.Logger.Error().Err(err).Msg("Failed to serialize status message")
				continue
			}

			token := s.MqttClient.Publish(s.PubTopic, byte(s.QOS), false, payload)
			token.Wait()

			if err := token.Error(); err != nil {
				s.Logger.Error().Err(err).Msg("Failed to publish status message")
			} else {
				s.Logger.Debug().Msg("Status published successfully")
			}

		case <-s.ctx.Done():
			s.Logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

// collect gathers the current health snapshot. Metric failures degrade to
// zero values rather than suppressing the report.
func (s *StatusService) collect() models.Status {
	status := models.Status{
		AgentID:       s.AgentID,
		Timestamp:     time.Now(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		s.Logger.Warn().Err(err).Msg("Failed to read memory usage")
	} else {
		status.MemoryUsedPercent = vm.UsedPercent
	}

	if percents, err := cpu.Percent(0, false); err != nil {
		s.Logger.Warn().Err(err).Msg("Failed to read CPU usage")
	} else if len(percents) > 0 {
		status.CPUUsedPercent = percents[0]
	}

	return status
}
