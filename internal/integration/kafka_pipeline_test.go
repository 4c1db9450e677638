//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/weathercal/internal/adapter/ical"
	"github.com/couchcryptid/weathercal/internal/adapter/jma"
	"github.com/couchcryptid/weathercal/internal/adapter/kafka"
	"github.com/couchcryptid/weathercal/internal/adapter/storage"
	"github.com/couchcryptid/weathercal/internal/config"
	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/couchcryptid/weathercal/internal/observability"
	"github.com/couchcryptid/weathercal/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-calendars"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})
	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", controller.Host+":"+strconv.Itoa(controller.Port))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// jmaServer serves the Tokyo fixture as the only office.
func jmaServer(t *testing.T) *httptest.Server {
	t.Helper()
	forecast, err := os.ReadFile(filepath.Join("..", "domain", "testdata", "forecast_130000.json"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/common/const/area.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"offices":{"130000":{"name":"東京都"}}}`)
	})
	mux.HandleFunc("/forecast/data/forecast/130000.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(forecast)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// telopsCovering returns a table that knows every weather code in the fixture.
func telopsCovering(t *testing.T) domain.TelopTable {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "domain", "testdata", "forecast_130000.json"))
	require.NoError(t, err)
	pair, err := domain.ParseReportPair(data)
	require.NoError(t, err)
	forecast, err := domain.Normalize(pair)
	require.NoError(t, err)

	table := domain.TelopTable{}
	add := func(code string) {
		if code == "" {
			return
		}
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		table[n] = []string{"100.svg", "500.svg", code, "晴時々曇", "FAIR"}
	}
	for _, a := range forecast.Areas {
		for _, r := range a.ThreeDays {
			add(r.Record.WeatherCode)
		}
		for _, r := range a.Weeks {
			add(r.Record.WeatherCode)
		}
	}
	return table
}

// TestPipelineEndToEnd runs one update against a fake JMA server, writes the
// calendars to disk, and reads the publication notices back from Kafka.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	src := jmaServer(t)
	outDir := t.TempDir()
	cfg := &config.Config{
		JMABaseURL:      src.URL,
		FetchTimeout:    5 * time.Second,
		FetchMaxRetries: 1,
		Concurrency:     2,
		StorageBackend:  config.StorageFS,
		OutputDir:       outDir,
		KafkaBrokers:    []string{broker},
		KafkaTopic:      testTopic,
	}

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2021, time.February, 25, 9, 0, 0, 0, time.UTC))

	notifier := kafka.NewNotifier(cfg, logger)
	defer notifier.Close()

	transformer := pipeline.NewTransformer(domain.NewEmitter(telopsCovering(t), nil), ical.Encode, logger, metrics)
	p := pipeline.New(
		jma.NewClient(cfg, clock, metrics, logger),
		transformer,
		storage.NewFSStore(outDir),
		notifier,
		clock,
		logger,
		metrics,
		pipeline.Options{Concurrency: cfg.Concurrency, CalendarContentType: ical.ContentType},
	)

	res, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 1, res.Offices)
	require.NotEmpty(t, res.PointNames)
	require.NoError(t, p.CheckReadiness(ctx))

	// Every point has both calendar files.
	for _, name := range res.PointNames {
		for _, ext := range []string{".ics", ".ical"} {
			body, err := os.ReadFile(filepath.Join(outDir, name+ext))
			require.NoError(t, err, name+ext)
			assert.True(t, strings.HasPrefix(string(body), "BEGIN:VCALENDAR"), name+ext)
		}
	}
	_, err = os.Stat(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)

	// One notice per point, keyed by point code.
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1e6,
	})
	defer reader.Close()

	seen := make(map[string]bool)
	for range res.PointNames {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read notice")

		var pub domain.Publication
		require.NoError(t, json.Unmarshal(msg.Value, &pub))
		assert.Equal(t, pub.PointCode, string(msg.Key))
		assert.Equal(t, "130000", pub.Office)
		assert.Equal(t, []string{pub.PointName + ".ics", pub.PointName + ".ical"}, pub.Keys)
		assert.Positive(t, pub.Events)
		seen[pub.PointName] = true
	}
	for _, name := range res.PointNames {
		assert.True(t, seen[name], "notice for %s", name)
	}
}

// TestPipelineAbortsOnFetchFailure checks that nothing is stored or announced
// when an office cannot be fetched.
func TestPipelineAbortsOnFetchFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/common/const/area.json" {
			_, _ = io.WriteString(w, `{"offices":{"130000":{"name":"東京都"}}}`)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	outDir := t.TempDir()
	cfg := &config.Config{
		JMABaseURL:      srv.URL,
		FetchTimeout:    5 * time.Second,
		FetchMaxRetries: 1,
		Concurrency:     1,
		KafkaBrokers:    []string{broker},
		KafkaTopic:      testTopic,
	}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()

	notifier := kafka.NewNotifier(cfg, logger)
	defer notifier.Close()

	p := pipeline.New(
		jma.NewClient(cfg, clock, metrics, logger),
		pipeline.NewTransformer(domain.NewEmitter(domain.TelopTable{}, nil), ical.Encode, logger, metrics),
		storage.NewFSStore(outDir),
		notifier,
		clock,
		logger,
		metrics,
		pipeline.Options{Concurrency: 1, CalendarContentType: ical.ContentType},
	)

	_, err := p.RunOnce(ctx)
	require.ErrorIs(t, err, jma.ErrUnexpectedStatus)
	assert.Error(t, p.CheckReadiness(ctx))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
