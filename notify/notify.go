package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/arturonaredo/homebalance-go/alerts"
	"github.com/arturonaredo/homebalance-go/config"
)

const publishTimeout = 5 * time.Second

// DndUntilFunc reports the end of the active do-not-disturb window,
// zero when none is set.
type DndUntilFunc func() time.Time

// Sender publishes alerts and reports over MQTT. Dispatch is best
// effort and suppressed while a do-not-disturb window is active.
type Sender struct {
	logger *slog.Logger
	client mqtt.Client
	topic  string
	dnd    DndUntilFunc
}

func NewSender(logger *slog.Logger, cnfg config.AppConfigMqtt, dnd DndUntilFunc) *Sender {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID("homebalance")
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("notification MQTT connected")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("notification MQTT connection lost", slog.Any("error", err))
	}

	mqttLogger := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLogger, slog.LevelWarn)

	return &Sender{
		logger: logger,
		client: mqtt.NewClient(opts),
		topic:  cnfg.GetTopic(),
		dnd:    dnd,
	}
}

func (s *Sender) Connect() error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("notification MQTT connect failed: %w", token.Error())
	}
	return nil
}

func (s *Sender) Disconnect() {
	s.client.Disconnect(250)
}

// Send publishes one alert. Returns false when suppressed or when the
// broker did not take the message in time.
func (s *Sender) Send(_ context.Context, a alerts.Alert) bool {
	if s.suppressed() {
		s.logger.Debug("notification suppressed by do-not-disturb",
			slog.String("type", string(a.Type)))
		return false
	}

	payload, err := json.Marshal(a)
	if err != nil {
		s.logger.Error("failed to marshal alert", slog.Any("error", err))
		return false
	}
	return s.publish(payload)
}

// SendReport publishes an arbitrary JSON document, used for the daily
// summary.
func (s *Sender) SendReport(report any) bool {
	if s.suppressed() {
		return false
	}
	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.Error("failed to marshal report", slog.Any("error", err))
		return false
	}
	return s.publish(payload)
}

func (s *Sender) publish(payload []byte) bool {
	token := s.client.Publish(s.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		s.logger.Warn("notification publish timed out")
		return false
	}
	if token.Error() != nil {
		s.logger.Warn("notification publish failed", slog.Any("error", token.Error()))
		return false
	}
	return true
}

func (s *Sender) suppressed() bool {
	if s.dnd == nil {
		return false
	}
	return time.Now().Before(s.dnd())
}
