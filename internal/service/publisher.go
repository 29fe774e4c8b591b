package service

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"facegate/internal/config"
	"facegate/internal/model"
)

// ConnState is the publisher's connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// StateChange is emitted on the publisher's event channel whenever the
// connection state transitions.
type StateChange struct {
	From ConnState `json:"from"`
	To   ConnState `json:"to"`
	At   time.Time `json:"at"`
}

// mqttClient is the slice of the paho client the publisher drives. Tests
// substitute a fake; production uses the real client built by newPahoClient.
type mqttClient interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
}

// Publisher delivers lock/unlock signals to the broker and survives broker
// outages: an unexpected disconnect triggers a bounded reconnection, an
// intentional Disconnect is terminal. Publish never blocks longer than the
// reconnection bound and never panics the calling login/logout flow.
type Publisher struct {
	cfg config.MQTTConfig

	mu      sync.Mutex // guards state, client, closing
	state   ConnState
	client  mqttClient
	closing bool

	// reconnectMu serializes the reconnection procedure so concurrent
	// publishes do not stack connection attempts.
	reconnectMu sync.Mutex

	events chan StateChange

	// Retry tuning; tests shrink these.
	maxAttempts int
	retryDelay  time.Duration
	settleDelay time.Duration
	connectWait time.Duration
	publishWait time.Duration

	newClient func(cfg config.MQTTConfig, onConnect func(), onLost func(error)) mqttClient
}

// NewPublisher creates a publisher with the production retry bounds:
// 5 attempts, 5s apart, with a 1s settle after each successful connect.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	return &Publisher{
		cfg:         cfg,
		state:       StateDisconnected,
		events:      make(chan StateChange, 16),
		maxAttempts: 5,
		retryDelay:  5 * time.Second,
		settleDelay: 1 * time.Second,
		connectWait: 2 * time.Second,
		publishWait: 5 * time.Second,
		newClient:   newPahoClient,
	}
}

func newPahoClient(cfg config.MQTTConfig, onConnect func(), onLost func(error)) mqttClient {
	scheme := "tcp"
	if cfg.UseTLS {
		scheme = "ssl"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker, cfg.Port)).
		SetClientID(fmt.Sprintf("facegate_backend_%s", uuid.NewString()[:8])).
		SetCleanSession(true).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(false) // the publisher owns the reconnection policy
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		onConnect()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		onLost(err)
	})
	return mqtt.NewClient(opts)
}

// Events exposes connection state transitions as an observable stream.
// The channel is buffered; slow consumers lose events rather than blocking
// the publisher.
func (p *Publisher) Events() <-chan StateChange {
	return p.events
}

// State returns the current connection state.
func (p *Publisher) State() ConnState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Connected reports whether the broker session is up.
func (p *Publisher) Connected() bool {
	return p.State() == StateConnected
}

func (p *Publisher) setState(to ConnState) {
	p.mu.Lock()
	from := p.state
	if from == to {
		p.mu.Unlock()
		return
	}
	p.state = to
	p.mu.Unlock()

	select {
	case p.events <- StateChange{From: from, To: to, At: time.Now()}:
	default:
	}
}

// onConnected runs when the broker session comes up, including a handshake
// that finished after Connect stopped waiting for it. Without this transition
// the state machine would stay Connecting on a live session forever.
func (p *Publisher) onConnected() {
	p.setState(StateConnected)
}

// onConnectionLost runs when the broker drops the session unexpectedly.
func (p *Publisher) onConnectionLost(err error) {
	log.Printf("[MQTT] Unexpected disconnect from broker: %v", err)
	p.setState(StateDisconnected)

	p.mu.Lock()
	closing := p.closing
	p.mu.Unlock()
	if !closing {
		go p.reconnect()
	}
}

// Connect establishes the broker session. Idempotent when already connected.
// A failure leaves the publisher Disconnected and is returned for logging;
// publish callers never see it.
func (p *Publisher) Connect() error {
	p.mu.Lock()
	if p.state == StateConnected {
		p.mu.Unlock()
		return nil
	}
	p.closing = false
	if p.client == nil {
		p.client = p.newClient(p.cfg, p.onConnected, p.onConnectionLost)
	}
	client := p.client
	p.mu.Unlock()

	log.Printf("[MQTT] Connecting to broker %s:%d (tls=%v)", p.cfg.Broker, p.cfg.Port, p.cfg.UseTLS)
	p.setState(StateConnecting)

	token := client.Connect()
	if !token.WaitTimeout(p.connectWait) {
		// The session may still come up in the background; the connect
		// handler flips the state when it does.
		log.Printf("[MQTT] Connection not established yet, signals may fail")
		return nil
	}
	if err := token.Error(); err != nil {
		p.setState(StateDisconnected)
		log.Printf("[MQTT] Failed to connect to broker: %v", err)
		return fmt.Errorf("mqtt connect: %w", err)
	}

	p.setState(StateConnected)
	log.Printf("[MQTT] Connected to broker")
	return nil
}

// reconnect runs the bounded reconnection procedure: up to maxAttempts with a
// fixed delay between attempts and a short settle after success. Returns the
// final connected state. This bound is what keeps a login/logout call from
// blocking forever on a dead broker.
func (p *Publisher) reconnect() bool {
	p.reconnectMu.Lock()
	defer p.reconnectMu.Unlock()

	if p.Connected() {
		return true
	}

	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return false
	}
	if p.client == nil {
		p.client = p.newClient(p.cfg, p.onConnected, p.onConnectionLost)
	}
	client := p.client
	p.mu.Unlock()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if client.IsConnected() {
			// A background handshake won while we were waiting.
			p.setState(StateConnected)
			return true
		}

		log.Printf("[MQTT] Reconnection attempt %d/%d...", attempt, p.maxAttempts)
		p.setState(StateConnecting)

		token := client.Connect()
		if token.WaitTimeout(p.connectWait) && token.Error() == nil {
			time.Sleep(p.settleDelay)
			p.setState(StateConnected)
			log.Printf("[MQTT] Reconnection successful")
			return true
		}
		if client.IsConnected() {
			// Connect refuses a session that is already up or still coming
			// up; the session itself is fine.
			p.setState(StateConnected)
			return true
		}
		if err := token.Error(); err != nil {
			log.Printf("[MQTT] Reconnection failed: %v", err)
		}
		p.setState(StateDisconnected)

		if attempt < p.maxAttempts {
			time.Sleep(p.retryDelay)
		}
	}

	log.Printf("[MQTT] Failed to reconnect after %d attempts", p.maxAttempts)
	return false
}

// Publish sends one signal with at-least-once semantics and reports whether
// the broker accepted the send. Not connected means one bounded reconnection
// pass first; still down means false, never an error or a panic.
func (p *Publisher) Publish(signal model.Signal) bool {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if !p.Connected() {
		if client != nil && client.IsConnected() {
			// The handshake outlived Connect's wait and finished later.
			p.setState(StateConnected)
		} else {
			log.Printf("[MQTT] Not connected, attempting reconnect before publish")
			if !p.reconnect() {
				return false
			}
			p.mu.Lock()
			client = p.client
			p.mu.Unlock()
		}
	}
	if client == nil {
		return false
	}

	payload, err := json.Marshal(signal)
	if err != nil {
		log.Printf("[MQTT] Could not encode signal: %v", err)
		return false
	}

	topic := fmt.Sprintf("%s/%s/unlock", p.cfg.TopicPrefix, signal.MachineNo)
	token := client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(p.publishWait) {
		log.Printf("[MQTT] Publish to %s timed out", topic)
		return false
	}
	if err := token.Error(); err != nil {
		log.Printf("[MQTT] Publish to %s failed: %v", topic, err)
		return false
	}

	log.Printf("[MQTT] Published %s signal for %s to %s", signal.Action, signal.OperatorID, topic)
	return true
}

// Disconnect tears the session down for good. No auto-reconnect fires after
// an intentional disconnect. Idempotent.
func (p *Publisher) Disconnect() {
	p.mu.Lock()
	p.closing = true
	client := p.client
	p.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
	}
	p.setState(StateDisconnected)
	log.Printf("[MQTT] Disconnected from broker")
}
