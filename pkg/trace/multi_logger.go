package trace

// MultiLogger fans events out to several loggers, in order.
type MultiLogger []Logger

// NewMultiLogger drops nil and NoopLogger entries and flattens nested
// MultiLoggers. With nothing left it still returns a usable, empty logger.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	var m MultiLogger
	for _, l := range loggers {
		switch l := l.(type) {
		case nil, NoopLogger:
		case MultiLogger:
			m = append(m, l...)
		default:
			m = append(m, l)
		}
	}
	return m
}

// Log forwards event to every logger.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

var _ Logger = MultiLogger(nil)
