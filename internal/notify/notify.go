// Package notify publishes attendance events to listeners such as kiosk
// displays and dashboards.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	EventCheckIn  = "checkin"
	EventCheckOut = "checkout"
)

// AttendanceEvent is the JSON payload published for every check-in and
// check-out.
type AttendanceEvent struct {
	Type          string    `json:"type"`
	ParticipantID int       `json:"participant_id"`
	ProgramID     int       `json:"program_id"`
	SessionDate   string    `json:"session_date"`
	Time          string    `json:"time"`
	TimeDisplay   string    `json:"time_display"`
	Timestamp     time.Time `json:"timestamp"`
}

type Notifier interface {
	Publish(ctx context.Context, ev AttendanceEvent) error
	Close()
}

// Topic returns the MQTT topic events for programID are published on.
func Topic(programID int) string {
	return fmt.Sprintf("attendance/programs/%d/events", programID)
}

// MQTTNotifier publishes events with QoS 1 over a single broker connection.
type MQTTNotifier struct {
	mu     sync.Mutex
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Error().Err(err).Msg("MQTT connection lost")
}

// NewMQTTNotifier connects to brokerURL (e.g. "tcp://localhost:1883").
func NewMQTTNotifier(brokerURL, clientID string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Str("broker", brokerURL).Str("client_id", clientID).Msg("MQTT notifier initialized")
	return &MQTTNotifier{client: client}, nil
}

func (n *MQTTNotifier) Publish(ctx context.Context, ev AttendanceEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode attendance event: %w", err)
	}

	n.mu.Lock()
	client := n.client
	n.mu.Unlock()
	if client == nil {
		return fmt.Errorf("MQTT notifier closed")
	}

	topic := Topic(ev.ProgramID)
	token := client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}

	log.Debug().Str("topic", topic).Str("type", ev.Type).Int("participant_id", ev.ParticipantID).Msg("attendance event published")
	return nil
}

func (n *MQTTNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.client != nil {
		n.client.Disconnect(250)
		n.client = nil
		log.Info().Msg("MQTT notifier disconnected")
	}
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, AttendanceEvent) error { return nil }

func (NopNotifier) Close() {}
