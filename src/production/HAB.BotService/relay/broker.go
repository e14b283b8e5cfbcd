package relay

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Config"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
)

// PahoDialer opens MQTT connections with the paho client
type PahoDialer struct {
	cfg    config.MQTTConfig
	logger *logger.Logger
}

func NewPahoDialer(cfg config.MQTTConfig, log *logger.Logger) *PahoDialer {
	return &PahoDialer{
		cfg:    cfg,
		logger: log.WithComponent("mqtt"),
	}
}

type pahoConnection struct {
	client mqtt.Client
}

func (c *pahoConnection) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

func (c *pahoConnection) Close() {
	c.client.Disconnect(250)
}

// Dial connects to the broker and subscribes to topics. Subscriptions are
// reissued by OnConnect after an automatic reconnect. Messages are handed to
// onMessage one at a time in arrival order, so onMessage must not block.
func (d *PahoDialer) Dial(ctx context.Context, topics []string, onMessage MessageHandler) (Connection, error) {
	filters := make(map[string]byte, len(topics))
	for _, topic := range topics {
		filters[topic] = 0
	}

	opts := mqtt.NewClientOptions().
		AddBroker(d.cfg.GetMQTTBrokerURL()).
		SetClientID(d.cfg.ClientID).
		SetOrderMatters(true).
		SetKeepAlive(d.cfg.KeepAlive).
		SetPingTimeout(10 * time.Second).
		SetConnectTimeout(d.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetCleanSession(true)

	if d.cfg.BrokerUser != "" {
		opts.SetUsername(d.cfg.BrokerUser)
		opts.SetPassword(d.cfg.BrokerPass)
	}

	if d.cfg.UseTLS {
		tlsCfg, err := d.tlsConfig(d.cfg.CACertPath)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		d.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		d.logger.Logger.Info().Strs("topics", topics).Msg("MQTT connected, subscribing to topics")
		token := c.SubscribeMultiple(filters, func(_ mqtt.Client, m mqtt.Message) {
			onMessage(m.Topic(), m.Payload())
		})
		if !token.WaitTimeout(d.cfg.ConnectTimeout) {
			d.logger.Logger.Error().Strs("topics", topics).Msg("Timed out subscribing to MQTT topics")
			return
		}
		if token.Error() != nil {
			d.logger.Logger.Error().Err(token.Error()).Strs("topics", topics).Msg("Failed to subscribe to MQTT topics")
		}
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		// Disconnect is ignored mid-handshake; the attempt ends within ConnectTimeout
		<-token.Done()
		client.Disconnect(0)
		return nil, err
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.cfg.GetMQTTBrokerURL(), err)
	}

	return &pahoConnection{client: client}, nil
}

func (d *PahoDialer) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
