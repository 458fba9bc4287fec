package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Control is what remote operators may ask of the running bot
type Control struct {
	Restart  func(ctx context.Context) error
	Shutdown func(ctx context.Context)
	// Status answers the "status" request topic
	Status func() map[string]interface{}
}

// StateMessage is published, retained, on <prefix>/state
type StateMessage struct {
	State     string `json:"state"`
	Timestamp int64  `json:"timestamp"`
}

// Bridge routes <prefix>/control/# messages to the orchestrator and
// reports lifecycle transitions back to the broker.
type Bridge struct {
	comm    *MqttCommunicator
	control Control
	routes  map[string]func()
	timeout time.Duration

	// serializes control actions
	mu sync.Mutex
}

// NewBridge builds a bridge over comm
func NewBridge(comm *MqttCommunicator, control Control) *Bridge {
	b := &Bridge{
		comm:    comm,
		control: control,
		timeout: 2 * time.Minute,
	}
	b.routes = map[string]func(){
		comm.Topic("control", "restart"):  b.restart,
		comm.Topic("control", "shutdown"): b.shutdown,
	}
	return b
}

// Start subscribes to the control topics and the status request
func (b *Bridge) Start() error {
	if err := b.comm.Subscribe(b.comm.Topic("control", "#"), b.route); err != nil {
		return fmt.Errorf("subscribe control topics: %w", err)
	}
	if b.control.Status != nil {
		if err := b.comm.On("status", func(map[string]interface{}) (interface{}, error) {
			return b.control.Status(), nil
		}); err != nil {
			return fmt.Errorf("subscribe status requests: %w", err)
		}
	}
	logger.System(fmt.Sprintf("Escuchando órdenes remotas en %s", b.comm.Topic("control", "#")), "MQTT")
	return nil
}

// route runs the action whose pattern matches topic
func (b *Bridge) route(topic string, _ []byte) {
	for pattern, action := range b.routes {
		if topicMatch(pattern, topic) {
			logger.Warn(fmt.Sprintf("Orden remota recibida: %s", strings.TrimPrefix(topic, b.comm.Topic("control")+"/")), "MQTT")
			go action()
			return
		}
	}
	logger.Debug(fmt.Sprintf("Orden remota desconocida en %s", topic), "MQTT")
}

func (b *Bridge) restart() {
	if b.control.Restart == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.control.Restart(ctx); err != nil {
		logger.Error(fmt.Sprintf("Reinicio remoto fallido: %v", err), "MQTT")
	}
}

func (b *Bridge) shutdown() {
	if b.control.Shutdown == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	b.control.Shutdown(ctx)
}

// PublishState reports a lifecycle transition, retained for late subscribers
func (b *Bridge) PublishState(state string) {
	if !b.comm.IsConnected() {
		return
	}
	msg := StateMessage{State: state, Timestamp: time.Now().UnixMilli()}
	if err := b.comm.publish(b.comm.Topic("state"), true, msg); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar el estado %s: %v", state, err), "MQTT")
	}
}
