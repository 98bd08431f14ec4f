// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordRequestWithoutProviderIsNoop(t *testing.T) {
	MeterProvider = nil
	RecordRequest(context.Background(), "GET", 200, time.Second)
}

func TestMetrics(t *testing.T) {
	reader := metric.NewManualReader()
	require.NoError(t, initMetricsWithReader(reader))
	defer Shutdown(context.Background())

	RecordRequest(context.Background(), "GET", 200, 10*time.Millisecond)
	RecordRequest(context.Background(), "PUT", 503, 20*time.Millisecond)
	RecordRequest(context.Background(), "DELETE", 0, time.Millisecond)

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &collected))

	found := map[string]metricdata.Metrics{}
	for _, scope := range collected.ScopeMetrics {
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}

	histogram, ok := found["fedora_request_duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var observations uint64
	for _, point := range histogram.DataPoints {
		observations += point.Count
	}
	require.Equal(t, uint64(3), observations)

	failures, ok := found["fedora_failed_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, point := range failures.DataPoints {
		total += point.Value
	}
	require.Equal(t, int64(2), total)
}
