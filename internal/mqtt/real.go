package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/microwave/internal/logger"
	"github.com/sweeney/microwave/internal/oven"
)

const (
	connectRetryInterval = 5 * time.Second
	publishTimeout       = 5 * time.Second
	disconnectQuiesceMs  = 1000

	// DefaultBufferSize is how many messages are held while disconnected.
	DefaultBufferSize = 256
)

// RealPublisher publishes to an actual MQTT broker. It never blocks startup
// on the broker: messages published while the connection is down are held in
// a ring buffer and replayed, oldest first, on (re)connect.
type RealPublisher struct {
	client paho.Client
	log    *logger.Logger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher and starts connecting in the background.
func NewRealPublisher(broker, clientID string, log *logger.Logger) *RealPublisher {
	p := newPublisher(log, DefaultBufferSize)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetBinaryWill(TopicSystem, WillPayload(time.Now()), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			p.log.Infow("mqtt connected", "broker", broker)
			p.flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warnw("mqtt connection lost", "broker", broker, "error", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func newPublisher(log *logger.Logger, bufferSize int) *RealPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &RealPublisher{log: log, buf: newRingBuffer(bufferSize)}
}

// PublishLine sends an output log line.
func (p *RealPublisher) PublishLine(line OutputLine) error {
	m, err := FormatLine(line)
	if err != nil {
		return fmt.Errorf("format output payload: %w", err)
	}
	return p.publish(m)
}

// PublishEvent sends an oven event.
func (p *RealPublisher) PublishEvent(event oven.Event) error {
	m, err := FormatEvent(event)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}
	return p.publish(m)
}

// PublishSystem sends a system lifecycle event.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	m, err := FormatSystem(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(m)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker. Messages still buffered are lost.
func (p *RealPublisher) Close() error {
	if n := p.Buffered(); n > 0 {
		p.log.Warnw("mqtt closing with undelivered messages", "count", n)
	}
	p.client.Disconnect(disconnectQuiesceMs)
	return nil
}

func (p *RealPublisher) publish(m Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		if p.buf.push(m) && p.buf.dropped == 1 {
			p.log.Warnw("mqtt buffer full, dropping oldest", "capacity", len(p.buf.slots))
		}
		return nil
	}
	return p.send(m)
}

// flush replays buffered messages after a connect.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs, dropped := p.buf.drain()
	if len(msgs) == 0 {
		return
	}
	p.log.Infow("mqtt replaying buffered messages", "count", len(msgs), "dropped", dropped)
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			p.log.Errorw("mqtt replay failed", "topic", m.Topic, "error", err)
		}
	}
}

func (p *RealPublisher) send(m Message) error {
	token := p.client.Publish(m.Topic, m.QoS, m.Retained, m.Payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", m.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.Topic, err)
	}
	return nil
}
