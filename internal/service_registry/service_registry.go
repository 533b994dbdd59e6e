package service_registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/services"
	"github.com/vakitapp/vakit-agent/internal/utils"
	"github.com/vakitapp/vakit-agent/pkg/mqtt"
	"github.com/vakitapp/vakit-agent/pkg/store"
	"github.com/vakitapp/vakit-agent/pkg/vakit"
)

// Service is the interface for all plug-in services
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	persisted   store.Store
	fetcher     vakit.Fetcher
	locator     services.Locator
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, persisted store.Store, fetcher vakit.Fetcher,
	locator services.Locator, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]Service),
		mqttClient: mqttClient,
		persisted:  persisted,
		fetcher:    fetcher,
		locator:    locator,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on
// configuration. The sinks (widget, notification, status) are registered
// before the prayer loop so they are running by the time the first snapshot
// fans out; stop order is the reverse.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config) error {
	if !config.Services.Prayer.Enabled {
		sr.Logger.Warn().Msg("Prayer service is disabled, nothing to run")
		return nil
	}

	prayerService := services.NewPrayerService(
		config.Services.Prayer.City,
		config.Services.Prayer.Country,
		time.Second,
		sr.fetcher,
		sr.locator,
		sr.Logger,
	)

	if config.Services.Widget.Enabled {
		widgetService := services.NewWidgetService(
			config.Services.Widget.Topic,
			config.Services.Widget.QOS,
			sr.mqttClient,
			sr.persisted,
			sr.Logger,
		)
		prayerService.AddSnapshotConsumer(widgetService)
		sr.RegisterService("widget", widgetService)
	}

	if config.Services.Notification.Enabled {
		scheduler := services.NewMQTTScheduler(
			config.Services.Notification.Topic,
			config.Services.Notification.QOS,
			sr.mqttClient,
			sr.Logger,
		)
		notificationService := services.NewNotificationService(
			time.Duration(config.Services.Notification.Lead)*time.Second,
			scheduler,
			sr.Logger,
		)
		prayerService.AddScheduleConsumer(notificationService)
		sr.RegisterService("notification", notificationService)
	}

	if config.Services.Status.Enabled {
		statusService := services.NewStatusService(
			config.Services.Status.Topic,
			time.Duration(config.Services.Status.Interval)*time.Second,
			config.MQTT.ClientID,
			config.Services.Status.QOS,
			sr.mqttClient,
			sr.Logger,
		)
		sr.RegisterService("status", statusService)
	}

	sr.RegisterService("prayer", prayerService)

	sr.Logger.Info().Msgf("Registered services in order: %v", sr.serviceKeys)
	return nil
}
