package e2e

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/evsched/app"
	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/infra/mqtt"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

// writeJUnit writes the provided report to the given path.
func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// organisation, bucket and token, and returns it along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	url := fmt.Sprintf("http://%s:%s", host, port.Port())
	return cont, url
}

// startMosquitto spins up a Mosquitto broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
}

// Test_E2E_SimulationTelemetry runs a short simulation with the InfluxDB sink
// and the MQTT publisher wired against real containers, then checks that step
// points reached InfluxDB and the retained run status reached the broker.
func Test_E2E_SimulationTelemetry(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	started := time.Now()

	influxCont, influxURL := startInflux(ctx, t)
	if influxCont != nil {
		defer influxCont.Terminate(ctx) //nolint:errcheck
	}
	mqttCont, mqttURL := startMosquitto(ctx, t)
	if mqttCont != nil {
		defer mqttCont.Terminate(ctx) //nolint:errcheck
	}
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", mqttURL)

	reader := newStepReader(influxURL, influxOrg, influxBucket, influxToken)
	defer reader.close()
	if err := reader.ensureBucket(ctx); err != nil {
		t.Fatalf("setup bucket: %v", err)
	}

	statuses := make(chan mqtt.RunStatusMessage, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(mqttURL).SetClientID("e2e-observer"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("observer connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe("evsched/run/+/status", 1, func(_ paho.Client, m paho.Message) {
		var msg mqtt.RunStatusMessage
		if err := json.Unmarshal(m.Payload(), &msg); err == nil {
			select {
			case statuses <- msg:
			default:
			}
		}
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("observer subscribe: %v", tok.Error())
	}

	cfg := &config.Config{}
	cfg.Environment.ChargerCount = 5
	cfg.Environment.UserCount = 10
	cfg.Environment.Seed = 21
	cfg.Simulation.Steps = 6
	cfg.Results.Backend = "memory"
	cfg.MQTT.Broker = mqttURL
	cfg.MQTT.ClientID = "e2e-publisher"
	cfg.MQTT.QoS = 1
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "influx", Conf: map[string]any{
		"url":    influxURL,
		"token":  influxToken,
		"org":    influxOrg,
		"bucket": influxBucket,
	}}}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer svc.Close()
	res, err := svc.Run(ctx, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	stored, err := svc.Store().Query(ctx, results.Query{RunID: res.RunID})
	if err != nil || len(stored) != 6 {
		t.Fatalf("store: %d records, err %v", len(stored), err)
	}

	counts, err := reader.countSteps(ctx, "simulation_step", res.RunID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if counts["total_reward"] != 6 {
		t.Fatalf("expected 6 total_reward points, got %v", counts)
	}
	t.Logf("Influx fields per run: %v", counts)

	select {
	case msg := <-statuses:
		if msg.RunID != res.RunID || msg.Steps != 6 || msg.Status != "completed" {
			t.Fatalf("unexpected run status %+v", msg)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no run status received over MQTT")
	}

	// Produce JUnit report
	dir := t.TempDir()
	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name(), Time: time.Since(started).Seconds()}}}
	if err := writeJUnit(filepath.Join(dir, "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
