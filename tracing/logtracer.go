package tracing

import "go.uber.org/zap"

// LogTracer writes a line per transit. Deliveries are logged at info level,
// drops at warn level and everything else at debug level.
type LogTracer struct {
	logger *zap.SugaredLogger
}

// NewLogTracer creates a LogTracer.
func NewLogTracer(logger *zap.SugaredLogger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Trace logs the transit.
func (t *LogTracer) Trace(tr Transit) {
	kv := []any{
		"time", tr.Time,
		"device", tr.Device,
		"port", tr.Port,
	}

	if tr.PacketID != "" {
		kv = append(kv,
			"packet", tr.PacketID,
			"src", tr.Source.String(),
			"dst", tr.Destination.String(),
		)
	}

	if tr.Peer != "" {
		kv = append(kv, "peer", tr.Peer)
	}

	if tr.Detail != "" {
		kv = append(kv, "detail", tr.Detail)
	}

	switch tr.Kind {
	case KindDeliver:
		t.logger.Infow(string(tr.Kind), kv...)
	case KindDrop:
		t.logger.Warnw(string(tr.Kind), kv...)
	default:
		t.logger.Debugw(string(tr.Kind), kv...)
	}
}
