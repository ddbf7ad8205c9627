package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
)

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestPublisherAssignments(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewAssignmentPublisher(Config{Broker: "tcp://localhost:1883", QoS: 1})
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	err = pub.RecordAssignments([]coremetrics.Assignment{
		{RunID: "r1", Step: 2, UserID: "U0001", ChargerID: "CH0003", EnergyKWh: 18, Time: now},
	})
	require.NoError(t, err)
	require.Len(t, mc.published, 1)
	assert.Equal(t, "evsched/charger/CH0003/assignment", mc.published[0].topic)
	assert.Equal(t, byte(1), mc.published[0].qos)
	assert.False(t, mc.published[0].retained)

	var msg AssignmentMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &msg))
	assert.Equal(t, "U0001", msg.UserID)
	assert.Equal(t, 18.0, msg.EnergyKWh)
	assert.NotEmpty(t, msg.MessageID)
}

func TestPublisherStepAndStatus(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewAssignmentPublisher(Config{Broker: "tcp://localhost:1883", TopicPrefix: "sim"})
	require.NoError(t, err)

	require.NoError(t, pub.RecordStep(coremetrics.StepRecord{RunID: "r1", Step: 1, Decisions: map[string]string{"U1": "C1"}}))
	require.NoError(t, pub.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Steps: 10, Averages: model.Rewards{TotalReward: 0.4}}))
	require.Len(t, mc.published, 2)
	assert.Equal(t, "sim/run/r1/step", mc.published[0].topic)
	assert.Equal(t, "sim/run/r1/status", mc.published[1].topic)
	assert.True(t, mc.published[1].retained)

	var step StepMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &step))
	assert.Equal(t, 1, step.Assignments)
	var status RunStatusMessage
	require.NoError(t, json.Unmarshal(mc.published[1].payload, &status))
	assert.Equal(t, "completed", status.Status)
	assert.Empty(t, status.Error)
	pub.Close()
}

func TestPublisherStatusOfStoppedRuns(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewAssignmentPublisher(Config{Broker: "tcp://localhost:1883", TopicPrefix: "sim"})
	require.NoError(t, err)

	canceled := fmt.Errorf("step 3: %w", context.Canceled)
	require.NoError(t, pub.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Steps: 2, Err: canceled}))
	require.NoError(t, pub.RecordRunSummary(coremetrics.RunSummary{RunID: "r2", Err: errors.New("store down")}))
	require.Len(t, mc.published, 2)

	var status RunStatusMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &status))
	assert.Equal(t, "canceled", status.Status)
	assert.Equal(t, canceled.Error(), status.Error)
	require.NoError(t, json.Unmarshal(mc.published[1].payload, &status))
	assert.Equal(t, "failed", status.Status)
	assert.True(t, mc.published[1].retained)
}

func TestPublisherRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	pub, err := NewAssignmentPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, pub.RecordStep(coremetrics.StepRecord{RunID: "r1"}))
	assert.Len(t, mc.published, 2)
}

func TestPublisherGivesUp(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	withMockClient(t, mc)
	pub, err := NewAssignmentPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, pub.RecordStep(coremetrics.StepRecord{RunID: "r1"}), fail)
	assert.Len(t, mc.published, 3)
}

func TestPublisherLWT(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	_, err := NewAssignmentPublisher(Config{Broker: "tcp://localhost:1883", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1})
	require.NoError(t, err)
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "lwt", mc.opts.WillTopic)
	assert.Equal(t, "bye", string(mc.opts.WillPayload))
}
