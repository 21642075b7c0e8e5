package coordinator

import (
	"context"

	"github.com/nerrad567/nexhome-core/internal/device"
)

// Recorder receives every record that differs from the previous one.
// Recorders must not block for long; they run on the refresh path.
type Recorder interface {
	RecordRefresh(ctx context.Context, address, deviceTypeID string, rec *device.Record)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, address, deviceTypeID string, rec *device.Record)

// RecordRefresh calls f.
func (f RecorderFunc) RecordRefresh(ctx context.Context, address, deviceTypeID string, rec *device.Record) {
	f(ctx, address, deviceTypeID, rec)
}

// HistoryRecorder stores changed records in the local state history.
type HistoryRecorder struct {
	repo   device.StateHistoryRepository
	logger Logger
}

// NewHistoryRecorder creates a recorder writing to repo. logger may be nil.
func NewHistoryRecorder(repo device.StateHistoryRepository, logger Logger) *HistoryRecorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &HistoryRecorder{repo: repo, logger: logger}
}

// RecordRefresh stores rec with source "poll". Failures are logged.
func (h *HistoryRecorder) RecordRefresh(ctx context.Context, address, _ string, rec *device.Record) {
	if err := h.repo.RecordStateChange(ctx, address, rec, device.StateHistorySourcePoll); err != nil {
		h.logger.Warn("recording state history", "address", address, "error", err)
	}
}

// PointWriter is the subset of *influxdb.Client used for telemetry.
type PointWriter interface {
	WriteDeviceState(address, deviceTypeID string, values map[string]string)
}

// TelemetryRecorder writes changed records as time-series points.
type TelemetryRecorder struct {
	writer PointWriter
}

// NewTelemetryRecorder creates a recorder writing to w.
func NewTelemetryRecorder(w PointWriter) *TelemetryRecorder {
	return &TelemetryRecorder{writer: w}
}

// RecordRefresh queues a device_state point. Writes are non-blocking.
func (t *TelemetryRecorder) RecordRefresh(_ context.Context, address, deviceTypeID string, rec *device.Record) {
	t.writer.WriteDeviceState(address, deviceTypeID, rec.Values())
}
