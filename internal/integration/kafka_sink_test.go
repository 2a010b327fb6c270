//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/nowcast-etl/internal/adapter/kafka"
	"github.com/couchcryptid/nowcast-etl/internal/artifact"
	"github.com/couchcryptid/nowcast-etl/internal/config"
	"github.com/couchcryptid/nowcast-etl/internal/domain"
	"github.com/couchcryptid/nowcast-etl/internal/merge"
	"github.com/couchcryptid/nowcast-etl/internal/observability"
	"github.com/couchcryptid/nowcast-etl/internal/stations"
)

const testSinkTopic = "test-nowcast-records"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(ctr))
	})

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster
// controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestMergePublishesToKafka runs a real merge over artifact fixtures with the
// Kafka sink enabled and verifies every normalized record arrives on the
// topic in emission order.
func TestMergePublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	// Fixtures: one bar chart, one hourly list, one robot (yields nothing).
	input := filepath.Join(t.TempDir(), "2026010612")
	store := artifact.NewStore(filepath.Dir(input))
	batch := filepath.Base(input)

	_, err := store.Write(domain.Scrape{
		City:   "Fairfax, California, United States",
		CityID: "fairfax_ca",
		Time:   time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC),
		Result: domain.BarChart{Points: []domain.BarPoint{
			{MinuteIndex: 0, Height: "0"},
			{MinuteIndex: 1, Height: "9"},
		}},
	}, batch)
	require.NoError(t, err)

	_, err = store.Write(domain.Scrape{
		City:   "London, United Kingdom",
		CityID: "london_uk",
		Time:   time.Date(2026, 1, 6, 12, 2, 0, 0, time.UTC),
		Result: domain.HourlyList{Entries: []string{"Now,52°F,Cloudy", "1 PM,53°F,Rain"}},
	}, batch)
	require.NoError(t, err)

	_, err = store.Write(domain.Scrape{
		City:   "Tokyo, Japan",
		CityID: "tokyo_jp",
		Time:   time.Date(2026, 1, 6, 12, 3, 0, 0, time.UTC),
		Result: domain.Robot{},
	}, batch)
	require.NoError(t, err)

	stationList := filepath.Join(t.TempDir(), "nowcast_crawl_list.csv")
	require.NoError(t, os.WriteFile(stationList, []byte(`name,id,tz
"Fairfax, California, United States",fairfax_ca,UTC
"London, United Kingdom",london_uk,UTC
"Tokyo, Japan",tokyo_jp,UTC
`), 0o644))

	index, err := stations.Load(stationList, discardLogger())
	require.NoError(t, err)

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testSinkTopic,
	}
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	m := merge.New(index, writer, discardLogger(), observability.NewMetricsForTesting())
	summary, err := m.Run(ctx, input, filepath.Join(t.TempDir(), "merged.csv"))
	require.NoError(t, err)
	require.Equal(t, 4, summary.Records)

	// Read the records back from the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]domain.Record, 0, summary.Records)
	for len(received) < summary.Records {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		var rec domain.Record
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		assert.Equal(t, rec.CityID, string(msg.Key), "message keyed by city id")
		received = append(received, rec)
	}

	// Emission order: fairfax bar chart rows first, then london hourly rows.
	assert.Equal(t, "fairfax_ca", received[0].CityID)
	assert.Equal(t, domain.KindNowcast, received[0].Kind)
	assert.Equal(t, 0, received[0].Leadtime)
	assert.Equal(t, 0, received[0].Precip)
	assert.Equal(t, 1, received[1].Precip)

	assert.Equal(t, "london_uk", received[2].CityID)
	assert.Equal(t, domain.KindHourly, received[2].Kind)
	assert.Equal(t, 60, received[3].Leadtime)
	assert.Equal(t, 1, received[3].Precip)

	// Verify no extra message arrives: the robot scrape yields nothing.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected exactly %d messages on sink topic", summary.Records)
}
