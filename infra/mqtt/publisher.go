package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/infra/logger"
)

// AssignmentMessage is the payload published for every assignment.
type AssignmentMessage struct {
	MessageID string    `json:"message_id"`
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	UserID    string    `json:"user_id"`
	ChargerID string    `json:"charger_id"`
	EnergyKWh float64   `json:"energy_kwh"`
	Timestamp time.Time `json:"timestamp"`
}

// StepMessage summarises a step on the run topic.
type StepMessage struct {
	MessageID   string        `json:"message_id"`
	RunID       string        `json:"run_id"`
	Step        int           `json:"step"`
	Rewards     model.Rewards `json:"rewards"`
	Assignments int           `json:"assignments"`
	Timestamp   time.Time     `json:"timestamp"`
}

// RunStatusMessage is published retained when a run ends. Status is
// completed, canceled or failed.
type RunStatusMessage struct {
	RunID     string        `json:"run_id"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Steps     int           `json:"steps"`
	Averages  model.Rewards `json:"averages"`
	Timestamp time.Time     `json:"timestamp"`
}

// AssignmentPublisher implements the metrics recorder interfaces on top of
// MQTT publications.
type AssignmentPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewAssignmentPublisher connects to the broker.
func NewAssignmentPublisher(cfg Config) (*AssignmentPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(_ paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &AssignmentPublisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// AssignmentTopic is the topic carrying assignments for a charger.
func (p *AssignmentPublisher) AssignmentTopic(chargerID string) string {
	return fmt.Sprintf("%s/charger/%s/assignment", p.prefix, chargerID)
}

// StepTopic is the topic carrying step summaries for a run.
func (p *AssignmentPublisher) StepTopic(runID string) string {
	return fmt.Sprintf("%s/run/%s/step", p.prefix, runID)
}

// StatusTopic is the retained status topic of a run.
func (p *AssignmentPublisher) StatusTopic(runID string) string {
	return fmt.Sprintf("%s/run/%s/status", p.prefix, runID)
}

func (p *AssignmentPublisher) publish(topic string, retained bool, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

// RecordStep publishes the step summary.
func (p *AssignmentPublisher) RecordStep(rec coremetrics.StepRecord) error {
	return p.publish(p.StepTopic(rec.RunID), false, StepMessage{
		MessageID:   uuid.NewString(),
		RunID:       rec.RunID,
		Step:        rec.Step,
		Rewards:     rec.Rewards,
		Assignments: len(rec.Decisions),
		Timestamp:   rec.Time,
	})
}

// RecordAssignments publishes one message per assignment on the charger topic.
func (p *AssignmentPublisher) RecordAssignments(as []coremetrics.Assignment) error {
	for _, a := range as {
		msg := AssignmentMessage{
			MessageID: uuid.NewString(),
			RunID:     a.RunID,
			Step:      a.Step,
			UserID:    a.UserID,
			ChargerID: a.ChargerID,
			EnergyKWh: a.EnergyKWh,
			Timestamp: a.Time,
		}
		if err := p.publish(p.AssignmentTopic(a.ChargerID), false, msg); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary publishes the retained final status of the run.
func (p *AssignmentPublisher) RecordRunSummary(sum coremetrics.RunSummary) error {
	msg := RunStatusMessage{
		RunID:     sum.RunID,
		Status:    sum.Status(),
		Steps:     sum.Steps,
		Averages:  sum.Averages,
		Timestamp: sum.Time,
	}
	if sum.Err != nil {
		msg.Error = sum.Err.Error()
	}
	return p.publish(p.StatusTopic(sum.RunID), true, msg)
}

// Close gracefully closes the MQTT connection.
func (p *AssignmentPublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
