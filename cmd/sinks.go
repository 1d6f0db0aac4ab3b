package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	sim "github.com/conveyor-sim/conveyor-sim/sim"
	"github.com/conveyor-sim/conveyor-sim/sim/publish"
	"github.com/conveyor-sim/conveyor-sim/sim/report"
)

var (
	jsonlPath    string // JSON lines sample file
	msgpackPath  string // MessagePack sample file
	sqlitePath   string // SQLite history database
	mqttBroker   string // MQTT broker URL
	mqttTopic    string // MQTT topic
	kafkaBrokers string // Comma-separated Kafka brokers
	kafkaTopic   string // Kafka topic
	natsURL      string // NATS server URL
	natsSubject  string // NATS subject
	influxURL    string // InfluxDB v2 URL
	influxToken  string // InfluxDB token
	influxOrg    string // InfluxDB organisation
	influxBucket string // InfluxDB bucket
	httpAddr     string // Listen address for the snapshot API and /metrics
)

func addSinkFlags(c *cobra.Command) {
	c.Flags().StringVar(&jsonlPath, "jsonl", "", "Write samples as JSON lines to this file")
	c.Flags().StringVar(&msgpackPath, "msgpack", "", "Write samples as MessagePack to this file")
	c.Flags().StringVar(&sqlitePath, "sqlite", "", "Store samples and the event log in this SQLite database")
	c.Flags().StringVar(&mqttBroker, "mqtt-broker", "", "Publish samples to this MQTT broker (e.g. tcp://localhost:1883)")
	c.Flags().StringVar(&mqttTopic, "mqtt-topic", "conveyor/samples", "MQTT topic")
	c.Flags().StringVar(&kafkaBrokers, "kafka-brokers", "", "Comma-separated Kafka brokers")
	c.Flags().StringVar(&kafkaTopic, "kafka-topic", "conveyor.samples", "Kafka topic")
	c.Flags().StringVar(&natsURL, "nats-url", "", "Publish samples to this NATS server")
	c.Flags().StringVar(&natsSubject, "nats-subject", "conveyor.samples", "NATS subject")
	c.Flags().StringVar(&influxURL, "influx-url", "", "Write samples to this InfluxDB v2 server")
	c.Flags().StringVar(&influxToken, "influx-token", "", "InfluxDB API token")
	c.Flags().StringVar(&influxOrg, "influx-org", "", "InfluxDB organisation")
	c.Flags().StringVar(&influxBucket, "influx-bucket", "conveyor", "InfluxDB bucket")
	c.Flags().StringVar(&httpAddr, "http", "", "Serve the latest sample, event log and /metrics on this address (e.g. :8080)")
}

// buildSinks opens every sink selected by flags. The HTTP server, when
// --http is set, is also returned on its own. On error the sinks opened so
// far are closed.
func buildSinks(cfg sim.PlantConfig) (publish.Multi, *publish.Server, error) {
	var sinks publish.Multi
	fail := func(err error) (publish.Multi, *publish.Server, error) {
		sinks.Close()
		return nil, nil, err
	}

	if !quiet {
		sinks = append(sinks, report.NewTable(os.Stdout, cfg.Conveyor.Segments, cfg.Conveyor.LengthM))
	}
	if jsonlPath != "" {
		s, err := publish.CreateFileSink(jsonlPath, "jsonl")
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if msgpackPath != "" {
		s, err := publish.CreateFileSink(msgpackPath, "msgpack")
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if sqlitePath != "" {
		s, err := publish.OpenSQLiteSink(sqlitePath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if mqttBroker != "" {
		s, err := publish.DialMQTT(mqttBroker, "conveyor-sim-"+cfg.Name, mqttTopic)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if kafkaBrokers != "" {
		sinks = append(sinks, publish.NewKafkaSink(strings.Split(kafkaBrokers, ","), kafkaTopic))
	}
	if natsURL != "" {
		s, err := publish.DialNATS(natsURL, "conveyor-sim", natsSubject)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if influxURL != "" {
		sinks = append(sinks, publish.NewInfluxSink(influxURL, influxToken, influxOrg, influxBucket))
	}
	var srv *publish.Server
	if httpAddr != "" {
		srv = publish.NewServer(publish.NewPromSink())
		if err := srv.Start(httpAddr); err != nil {
			return fail(err)
		}
		sinks = append(sinks, srv)
	}
	return sinks, srv, nil
}
