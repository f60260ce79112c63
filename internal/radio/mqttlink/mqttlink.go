// Package mqttlink is a bench RadioLink implementation over a local MQTT
// broker, for exercising the Controller/HSM without real modem hardware.
// Grounded on jkaberg-byd-hass/internal/mqtt's client-options and
// reconnect-handler shape, adapted from logrus to this project's zerolog
// facade and from a telemetry-publish client to a bidirectional
// send/receive RadioLink.
package mqttlink

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"invictus2obc/internal/app/errors"
	"invictus2obc/internal/config/logger"
)

const (
	txTopic = "invictus2obc/radio/tx"
	rxTopic = "invictus2obc/radio/rx"
	qos     = 1
)

// Link is a RadioLink backed by an MQTT broker: outbound frames are
// published to txTopic, inbound frames arrive on rxTopic and are
// buffered for Recv.
type Link struct {
	client mqtt.Client
	log    logger.Logger
	inbox  chan [128]byte
}

// New connects to broker and subscribes to the inbound topic. clientID
// should be unique per controller instance sharing a broker.
func New(broker, clientID string, log logger.Logger) (*Link, error) {
	l := &Link{log: log, inbox: make(chan [128]byte, 32)}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetMaxReconnectInterval(10 * time.Second)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		l.log.Warn().Err(err).Msg("mqtt radio link connection lost")
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(rxTopic, qos, l.onMessage); token.Wait() && token.Error() != nil {
			l.log.Error().Err(token.Error()).Msg("mqtt radio link subscribe failed")
		}
	})

	l.client = mqtt.NewClient(opts)

	if token := l.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt radio link connect: %w", token.Error())
	}

	return l, nil
}

func (l *Link) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if len(payload) != 128 {
		l.log.Warn().Int("len", len(payload)).Msg("mqtt radio link received non-frame-sized payload")
		return
	}

	var frame [128]byte
	copy(frame[:], payload)

	select {
	case l.inbox <- frame:
	default:
		l.log.Warn().Msg("mqtt radio link inbox full, dropping frame")
	}
}

// Send implements radio.RadioLink.
func (l *Link) Send(_ context.Context, frame [128]byte) error {
	token := l.client.Publish(txTopic, qos, false, frame[:])
	token.Wait()

	return token.Error()
}

// Recv implements radio.RadioLink.
func (l *Link) Recv(ctx context.Context) ([128]byte, error) {
	select {
	case frame := <-l.inbox:
		return frame, nil
	case <-ctx.Done():
		return [128]byte{}, errors.ErrBusTimeout
	}
}

// Close disconnects from the broker.
func (l *Link) Close() {
	l.client.Disconnect(250)
}
