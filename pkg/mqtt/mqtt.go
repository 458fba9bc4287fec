// Package mqtt connects the bot to an MQTT broker. It publishes lifecycle
// state, answers request/response calls and routes remote control messages
// to the running client.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// Options describe the broker connection
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	ClientID string
	// Prefix is the first level of every topic, "apexie" by default
	Prefix string
}

// MqttCommunicator handles MQTT communication under a topic prefix
type MqttCommunicator struct {
	client           mqtt.Client
	prefix           string
	responseHandlers map[string]func(MqttResponse)
	mu               sync.RWMutex
}

var (
	communicator *MqttCommunicator
	commMu       sync.Mutex
)

// Init connects the global MQTT communicator
func Init(opts Options) *MqttCommunicator {
	commMu.Lock()
	defer commMu.Unlock()
	if communicator == nil {
		communicator = Dial(opts)
	}
	return communicator
}

// Get returns the global MQTT communicator, nil when MQTT is disabled
func Get() *MqttCommunicator {
	commMu.Lock()
	defer commMu.Unlock()
	return communicator
}

// Dial builds a paho client and starts connecting. Paho keeps retrying in
// the background so a broker outage never blocks startup.
func Dial(opts Options) *MqttCommunicator {
	uniqueID := fmt.Sprintf("%s_%s", opts.ClientID, uuid.New().String())

	clientOpts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", opts.Host, opts.Port)).
		SetClientID(uniqueID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", opts.ClientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc := New(mqtt.NewClient(clientOpts), opts.Prefix)

	token := mc.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}
	return mc
}

// New wraps an existing client
func New(client mqtt.Client, prefix string) *MqttCommunicator {
	if prefix == "" {
		prefix = "apexie"
	}
	return &MqttCommunicator{
		client:           client,
		prefix:           prefix,
		responseHandlers: make(map[string]func(MqttResponse)),
	}
}

// Topic joins levels under the communicator prefix
func (mc *MqttCommunicator) Topic(levels ...string) string {
	return mc.prefix + "/" + strings.Join(levels, "/")
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
		return
	}
	logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish sends a JSON message to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	return mc.publish(topic, false, payload)
}

func (mc *MqttCommunicator) publish(topic string, retained bool, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	token := mc.client.Publish(topic, 0, retained, data)
	token.Wait()
	return token.Error()
}

// Request sends a request and waits for a response
func (mc *MqttCommunicator) Request(topic string, payload interface{}, timeout time.Duration) (interface{}, error) {
	correlationID := uuid.New().String()
	requestTopic := mc.Topic("request", topic)
	responseTopic := mc.Topic("response", topic, correlationID)

	responseChan := make(chan MqttResponse, 1)
	errChan := make(chan error, 1)

	mc.mu.Lock()
	mc.responseHandlers[correlationID] = func(response MqttResponse) {
		select {
		case responseChan <- response:
		default:
		}
	}
	mc.mu.Unlock()

	defer func() {
		mc.mu.Lock()
		delete(mc.responseHandlers, correlationID)
		mc.mu.Unlock()
		mc.client.Unsubscribe(responseTopic)
	}()

	token := mc.client.Subscribe(responseTopic, 0, func(c mqtt.Client, msg mqtt.Message) {
		var response MqttResponse
		if err := json.Unmarshal(msg.Payload(), &response); err != nil {
			select {
			case errChan <- err:
			default:
			}
			return
		}

		mc.mu.RLock()
		handler, ok := mc.responseHandlers[response.CorrelationID]
		mc.mu.RUnlock()
		if ok {
			handler(response)
		}
	})
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	if err := mc.Publish(requestTopic, MqttRequest{CorrelationID: correlationID, Payload: payload}); err != nil {
		return nil, err
	}

	select {
	case response := <-responseChan:
		if response.Error != "" {
			return nil, fmt.Errorf("%s", response.Error)
		}
		return response.Data, nil
	case err := <-errChan:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("la petición a '%s' ha expirado (timeout)", topic)
	}
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// On answers requests published on the request topic
func (mc *MqttCommunicator) On(requestTopic string, callback RequestHandler) error {
	topic := mc.Topic("request", requestTopic)
	requestPrefix := mc.Topic("request") + "/"

	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		var request MqttRequest
		if err := json.Unmarshal(msg.Payload(), &request); err != nil {
			logger.Error(fmt.Sprintf("Error al leer la petición MQTT: %v", err), "MQTT")
			return
		}

		actualTopic := strings.TrimPrefix(msg.Topic(), requestPrefix)
		payload, _ := request.Payload.(map[string]interface{})
		if payload == nil {
			payload = make(map[string]interface{})
		}
		payload["_topic"] = actualTopic

		response := MqttResponse{CorrelationID: request.CorrelationID}
		data, err := callback(payload)
		if err != nil {
			response.Error = err.Error()
		} else {
			response.Data = data
		}

		if err := mc.Publish(mc.Topic("response", actualTopic, request.CorrelationID), response); err != nil {
			logger.Error(fmt.Sprintf("Error al responder la petición '%s': %v", actualTopic, err), "MQTT")
		}
	})
	token.Wait()
	return token.Error()
}

// Subscribe subscribes to a topic with a message handler
func (mc *MqttCommunicator) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from a topic
func (mc *MqttCommunicator) Unsubscribe(topic string) error {
	token := mc.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// topicMatch checks if a received topic matches a pattern with wildcards.
// '+' matches exactly one level, '#' matches the remaining levels.
func topicMatch(pattern, topic string) bool {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range patternParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}
	return len(patternParts) == len(topicParts)
}
