package recorder

import "StrokeSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordStroke(_ string, _ *model.Stroke) error       { return nil }
func (n *NoopRecorder) MarkSuperseded(_ string, _ *model.Stroke) error     { return nil }
func (n *NoopRecorder) RecordSignals(_ string, _ model.SignalVector) error { return nil }
func (n *NoopRecorder) Close() error                                       { return nil }
