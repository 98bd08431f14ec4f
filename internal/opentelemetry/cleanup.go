// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Shutdown any providers and flush any remaining spans
// This should be called when the top level application is shutting down
func Shutdown(ctx context.Context) {
	if TracerProvider != nil {
		err := TracerProvider.ForceFlush(ctx)
		if err != nil {
			log.Errorf("Error flushing traces; is the collector for traces running?; %v", err)
		}
		err = TracerProvider.Shutdown(ctx)
		if err != nil {
			log.Errorf("Error shutting down tracer provider: %v", err)
		}
		TracerProvider = nil
		Tracer = nil
	}

	if MeterProvider != nil {
		err := MeterProvider.ForceFlush(ctx)
		if err != nil {
			log.Errorf("Error flushing metrics; Is the collector for metrics running?; %v", err)
		}
		err = MeterProvider.Shutdown(ctx)
		if err != nil {
			log.Errorf("Error shutting down meter provider: %v", err)
		}
		MeterProvider = nil
	}
}
