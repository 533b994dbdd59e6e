package services

import (
	"context"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/location"
	"github.com/vakitapp/vakit-agent/pkg/prayer"
	"github.com/vakitapp/vakit-agent/pkg/vakit"
)

// MockMQTTClient is a mock implementation of the MQTTClient interface
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() pahomqtt.Token {
	args := m.Called()
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	args := m.Called(topic, qos, callback)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) pahomqtt.Token {
	args := m.Called(topics)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

// MockToken is a mock implementation of the mqtt.Token interface
type MockToken struct {
	mock.Mock
}

func (m *MockToken) Wait() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockToken) WaitTimeout(timeout time.Duration) bool {
	args := m.Called(timeout)
	return args.Bool(0)
}

func (m *MockToken) Done() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(<-chan struct{})
}

func (m *MockToken) Error() error {
	args := m.Called()
	return args.Error(0)
}

// successToken builds a token that reports a completed, error-free publish.
func successToken() *MockToken {
	token := new(MockToken)
	token.On("Wait").Return(true)
	token.On("Error").Return(nil)
	return token
}

// MockScheduler is a mock implementation of the Scheduler interface
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(req models.NotificationRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockScheduler) CancelAll() error {
	args := m.Called()
	return args.Error(0)
}

// fakeFetcher serves a fixed schedule and counts calls.
type fakeFetcher struct {
	schedule prayer.DaySchedule
	err      error

	coordCalls int
	cityCalls  int
	lastCoord  location.Coordinate
	lastCity   string
}

func (f *fakeFetcher) TimesByCoordinate(_ context.Context, _ time.Time, coord location.Coordinate) (prayer.DaySchedule, error) {
	f.coordCalls++
	f.lastCoord = coord
	return f.schedule, f.err
}

func (f *fakeFetcher) TimesByCity(_ context.Context, _ time.Time, city, _ string) (prayer.DaySchedule, error) {
	f.cityCalls++
	f.lastCity = city
	return f.schedule, f.err
}

func (f *fakeFetcher) QiblaDirection(_ context.Context, _ location.Coordinate) (float64, error) {
	return 0, nil
}

func (f *fakeFetcher) Cities(_ context.Context) ([]vakit.City, error) {
	return nil, nil
}

// fakeLocator resolves a fixed coordinate.
type fakeLocator struct {
	coord location.Coordinate
	err   error
	calls int
}

func (f *fakeLocator) Resolve(_ context.Context) (location.CachedLocation, error) {
	f.calls++
	if f.err != nil {
		return location.CachedLocation{}, f.err
	}
	return location.CachedLocation{Coordinate: f.coord, Source: location.SourceGPS, Timestamp: time.Now()}, nil
}

// captureConsumer records every snapshot it receives.
type captureConsumer struct {
	snapshots []models.WidgetSnapshot
}

func (c *captureConsumer) Consume(snapshot models.WidgetSnapshot) {
	c.snapshots = append(c.snapshots, snapshot)
}

// captureScheduleConsumer records schedule replacements.
type captureScheduleConsumer struct {
	schedules []prayer.DaySchedule
}

func (c *captureScheduleConsumer) OnNewSchedule(schedule prayer.DaySchedule) {
	c.schedules = append(c.schedules, schedule)
}
