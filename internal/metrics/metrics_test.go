package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("ingestion-key=abc, x-extra = 1 ,broken")
	assert.Equal(t, map[string]string{"ingestion-key": "abc", "x-extra": "1"}, got)
	assert.Empty(t, parseHeaders(""))
}

func TestRecordDBQueryExports(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"), "storefront-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordDBQuery(ctx, "SELECT", "variants", "SELECT 1", time.Now(), true)
	m.RecordDBQuery(ctx, "UPDATE", "variants", "UPDATE x", time.Now(), false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "db.client.queries.count" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestNewNoop(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)
	m.OrdersCreated.Add(context.Background(), 1, m.Attrs())
}
