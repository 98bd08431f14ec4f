// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	metricInterfaces "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

var MeterProvider *metric.MeterProvider
var RequestHistogram metricInterfaces.Float64Histogram
var FailureCounter metricInterfaces.Int64Counter

const meterName = "fcrepo"

// InitMetrics exports request metrics to an otlp collector over grpc
func InitMetrics(endpoint string) error {
	metricExporter, err := otlpmetricgrpc.New(
		context.Background(),
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return err
	}
	return initMetricsWithReader(metric.NewPeriodicReader(metricExporter,
		metric.WithInterval(10*time.Second)))
}

func initMetricsWithReader(reader metric.Reader) error {
	MeterProvider = metric.NewMeterProvider(metric.WithReader(reader))

	// Register as global meter provider so that it can be used via otel.Meter
	// and accessed using otel.GetMeterProvider.
	otel.SetMeterProvider(MeterProvider)

	var err error
	RequestHistogram, err = MeterProvider.Meter(meterName).Float64Histogram("fedora_request_duration",
		metricInterfaces.WithDescription("Seconds taken by a repository request"),
		metricInterfaces.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	FailureCounter, err = MeterProvider.Meter(meterName).Int64Counter("fedora_failed_requests",
		metricInterfaces.WithDescription("Repository requests that got no response or a 5xx"),
	)
	return err
}

// RecordRequest records how long a request took; status 0 means the
// request got no response at all
func RecordRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	if MeterProvider == nil {
		return
	}

	attrs := metricInterfaces.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	)
	RequestHistogram.Record(ctx, elapsed.Seconds(), attrs)
	if status == 0 || status >= 500 {
		FailureCounter.Add(ctx, 1, attrs)
	}
}
