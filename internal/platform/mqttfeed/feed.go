// Package mqttfeed subscribes to device position reports on an MQTT broker
// and hands each valid fix to a handler.
package mqttfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/validate"
)

// Timestamps above this are taken as epoch milliseconds.
const millisThreshold = 1e12

// Handler consumes one location fix.
type Handler func(ctx context.Context, fix model.LocationFix) error

// Coordinates are pointers so an absent field is told apart from 0.
type locationMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
}

// Connector dials a broker. onConnect runs after every successful connect,
// including automatic reconnects.
type Connector func(cfg config.MQTTConfig, onConnect mqtt.OnConnectHandler) (mqtt.Client, error)

// Connect dials the broker in cfg.
func Connect(cfg config.MQTTConfig, onConnect mqtt.OnConnectHandler) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	if onConnect != nil {
		opts.SetOnConnectHandler(onConnect)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

// Feed forwards location messages from one topic to a handler.
type Feed struct {
	topic   string
	qos     byte
	handler Handler

	mu      sync.Mutex
	client  mqtt.Client
	ctx     context.Context
	started bool
}

// New creates a feed. Call Start to subscribe.
func New(client mqtt.Client, cfg config.MQTTConfig, h Handler) *Feed {
	return &Feed{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		handler: h,
		ctx:     context.Background(),
	}
}

// Dial connects through connect and returns a feed that subscribes again
// after every reconnect. A clean session loses subscriptions on the broker.
func Dial(cfg config.MQTTConfig, h Handler, connect Connector) (*Feed, error) {
	f := New(nil, cfg, h)
	client, err := connect(cfg, f.onConnect)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.client = client
	f.mu.Unlock()
	return f, nil
}

// Start subscribes to the topic. Messages are handled with ctx until Stop.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctx = ctx
	if err := f.subscribe(f.client); err != nil {
		return err
	}
	f.started = true
	logging.InfoContext(ctx, "location feed subscribed", logging.KeyTopic, f.topic)
	return nil
}

// IsConnected reports whether the broker connection is up.
func (f *Feed) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client != nil && f.client.IsConnected()
}

// Stop unsubscribes and disconnects.
func (f *Feed) Stop() {
	f.mu.Lock()
	f.started = false
	client := f.client
	f.mu.Unlock()

	if token := client.Unsubscribe(f.topic); token.WaitTimeout(2*time.Second) && token.Error() != nil {
		logging.Warn("mqtt unsubscribe failed", logging.KeyError, token.Error())
	}
	client.Disconnect(250)
}

// onConnect restores the subscription once Start has run. The first connect
// happens before Start and is left alone.
func (f *Feed) onConnect(c mqtt.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return
	}
	if err := f.subscribe(c); err != nil {
		logging.ErrorContext(f.ctx, "mqtt resubscribe failed", logging.KeyError, err)
		return
	}
	logging.InfoContext(f.ctx, "location feed resubscribed", logging.KeyTopic, f.topic)
}

// subscribe must be called with f.mu held.
func (f *Feed) subscribe(c mqtt.Client) error {
	token := c.Subscribe(f.topic, f.qos, f.messageHandler(f.ctx))
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", f.topic, err)
	}
	return nil
}

func (f *Feed) messageHandler(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		f.handleMessage(ctx, msg)
	}
}

func (f *Feed) handleMessage(ctx context.Context, msg mqtt.Message) {
	fix, err := parseFix(msg.Topic(), msg.Payload())
	if err != nil {
		logging.WarnContext(ctx, "invalid location message",
			logging.KeyTopic, msg.Topic(),
			logging.KeyError, err,
		)
		return
	}
	if err := f.handler(ctx, fix); err != nil {
		logging.ErrorContext(ctx, "location fix failed",
			logging.KeyTopic, msg.Topic(),
			logging.KeyError, err,
		)
	}
}

func parseFix(topic string, payload []byte) (model.LocationFix, error) {
	var raw locationMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.LocationFix{}, err
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		return model.LocationFix{}, fmt.Errorf("latitude and longitude are required")
	}
	if err := validate.Coordinate(*raw.Longitude, *raw.Latitude); err != nil {
		return model.LocationFix{}, err
	}
	if raw.Timestamp <= 0 {
		return model.LocationFix{}, fmt.Errorf("timestamp must be positive")
	}

	ts := time.Unix(raw.Timestamp, 0)
	if raw.Timestamp > millisThreshold {
		ts = time.UnixMilli(raw.Timestamp)
	}
	return model.LocationFix{
		Latitude:  *raw.Latitude,
		Longitude: *raw.Longitude,
		Timestamp: ts,
		Source:    deviceOf(topic),
	}, nil
}

// deviceOf returns the last topic level, which names the reporting device.
func deviceOf(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
