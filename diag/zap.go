package diag

import "go.uber.org/zap"

// ZapSink forwards diagnostic events to a zap logger at warn level.
type ZapSink struct {
	logger *zap.SugaredLogger
}

var _ Sink = (*ZapSink)(nil)

// NewZapSink wraps logger. A nil logger yields a no-op zap logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ZapSink{logger: logger.Sugar()}
}

// Warn logs the event with the code as message and the key/value pairs as fields.
func (s *ZapSink) Warn(code Code, keysAndValues ...any) {
	s.logger.Warnw(string(code), keysAndValues...)
}
