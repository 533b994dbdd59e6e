package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/service_registry"
	"github.com/vakitapp/vakit-agent/internal/utils"
	"github.com/vakitapp/vakit-agent/pkg/file"
	"github.com/vakitapp/vakit-agent/pkg/location"
	"github.com/vakitapp/vakit-agent/pkg/mqtt"
	"github.com/vakitapp/vakit-agent/pkg/remote"
	"github.com/vakitapp/vakit-agent/pkg/store"
	"github.com/vakitapp/vakit-agent/pkg/vakit"
)

func main() {
	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	log.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient)
	err = mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	// Initialize the persisted key-value store
	persisted, err := store.NewFileStore(config.Store.Directory, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize persisted store")
	}

	// Build the location resolver on top of the configured provider
	var provider location.Provider
	switch config.Location.Provider {
	case "google":
		provider, err = location.NewGoogleProvider(config.Location.MapsAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Google geolocation provider")
		}
	default:
		provider = location.NewSensorProvider(config.Location.GPSDevicePort, config.Location.GPSDeviceBaudRate)
	}

	var fallback *location.Coordinate
	if config.Location.FallbackLatitude != 0 || config.Location.FallbackLongitude != 0 {
		fallback = &location.Coordinate{
			Latitude:  config.Location.FallbackLatitude,
			Longitude: config.Location.FallbackLongitude,
		}
	}

	locator := location.NewResolver(provider, location.AlwaysAllowed{}, persisted, location.ResolverOptions{
		FreshnessWindow: time.Duration(config.Location.FreshnessWindow) * time.Second,
		Fallback:        fallback,
		Retry:           config.LocationRetryPolicy(),
		AllowFallback:   config.Location.AllowFallback,
	}, log)

	// Build the remote fetch client and the prayer data service
	remoteClient := remote.NewClient(config.Remote.BaseURLs, config.RemoteRetryPolicy(), log)
	fetcher, err := vakit.NewService(remoteClient, config.Remote.CacheSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create prayer data service")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, persisted, fetcher, locator, log)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config); err != nil {
		log.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Failed to stop some services")
	}
	mqttClient.Disconnect(250)
}
