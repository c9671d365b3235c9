// Package inspector drives a full pass over the kernel module table,
// with structured logging and OTEL instrumentation around the stream.
package inspector

import (
	"context"
	"fmt"
	"time"

	"github.com/pop-os/proc-modules/pkg/modules"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds inspector configuration
type Config struct {
	// ProcPath is the module table to read. Defaults to the live
	// /proc/modules pseudo-file.
	ProcPath string
	Logger   *zap.Logger
}

// DefaultConfig returns an inspector config for the live module table
func DefaultConfig() *Config {
	return &Config{
		ProcPath: modules.DefaultPath,
	}
}

// Inspector snapshots the module table. Decode failures are logged and
// counted but never abort a snapshot; only I/O failures do.
type Inspector struct {
	config *Config
	logger *zap.Logger

	tracer         trace.Tracer
	recordsDecoded metric.Int64Counter
	decodeErrors   metric.Int64Counter
	readDuration   metric.Float64Histogram
}

// New creates an inspector over the configured module table
func New(config *Config) (*Inspector, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.ProcPath == "" {
		config.ProcPath = modules.DefaultPath
	}

	if config.Logger == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		config.Logger = logger
	}

	meter := otel.Meter("procmodules-inspector")

	recordsDecoded, err := meter.Int64Counter(
		"procmodules_records_decoded_total",
		metric.WithDescription("Total module table lines decoded into records"),
	)
	if err != nil {
		config.Logger.Warn("Failed to create records counter", zap.Error(err))
	}

	decodeErrors, err := meter.Int64Counter(
		"procmodules_decode_errors_total",
		metric.WithDescription("Total module table lines that failed to decode"),
	)
	if err != nil {
		config.Logger.Warn("Failed to create decode errors counter", zap.Error(err))
	}

	readDuration, err := meter.Float64Histogram(
		"procmodules_snapshot_duration_ms",
		metric.WithDescription("Full module table pass duration in milliseconds"),
	)
	if err != nil {
		config.Logger.Warn("Failed to create snapshot duration histogram", zap.Error(err))
	}

	return &Inspector{
		config:         config,
		logger:         config.Logger,
		tracer:         otel.Tracer("procmodules-inspector"),
		recordsDecoded: recordsDecoded,
		decodeErrors:   decodeErrors,
		readDuration:   readDuration,
	}, nil
}

// Snapshot is one full pass over the module table at a point in time.
// Records and the per-line failures are kept apart so callers can use
// the readable part of the table regardless.
type Snapshot struct {
	Records      []modules.Record
	DecodeErrors []*modules.DecodeError
	Taken        time.Time
}

// Snapshot reads the whole module table once. Malformed lines are
// logged, counted, and collected; a failure to open or read the table
// is returned as the error.
func (i *Inspector) Snapshot(ctx context.Context) (*Snapshot, error) {
	ctx, span := i.tracer.Start(ctx, "inspector.snapshot")
	defer span.End()

	start := time.Now()

	stream, err := modules.OpenPath(i.config.ProcPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return nil, fmt.Errorf("opening module table %s: %w", i.config.ProcPath, err)
	}
	defer stream.Close()

	snapshot := &Snapshot{Taken: start}
	for record, err := range stream.Records() {
		if err != nil {
			decodeErr, ok := modules.AsDecodeError(err)
			if !ok {
				span.RecordError(err)
				span.SetStatus(codes.Error, "read failed")
				return nil, err
			}
			i.logger.Warn("Skipping malformed module table line",
				zap.String("line", decodeErr.Line),
				zap.Error(decodeErr))
			if i.decodeErrors != nil {
				i.decodeErrors.Add(ctx, 1)
			}
			snapshot.DecodeErrors = append(snapshot.DecodeErrors, decodeErr)
			continue
		}
		snapshot.Records = append(snapshot.Records, record)
	}

	if i.recordsDecoded != nil {
		i.recordsDecoded.Add(ctx, int64(len(snapshot.Records)))
	}
	if i.readDuration != nil {
		i.readDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}

	span.SetAttributes(
		attribute.Int("records", len(snapshot.Records)),
		attribute.Int("decode_errors", len(snapshot.DecodeErrors)),
	)

	i.logger.Debug("Module table snapshot complete",
		zap.Int("records", len(snapshot.Records)),
		zap.Int("decode_errors", len(snapshot.DecodeErrors)),
		zap.Duration("duration", time.Since(start)))

	return snapshot, nil
}
