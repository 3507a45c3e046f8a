package badgerkv

import "go.uber.org/zap"

// engineLogger adapts zap to badger's logger interface.
type engineLogger struct {
	z *zap.SugaredLogger
}

func (l engineLogger) Errorf(format string, args ...interface{}) {
	l.z.Errorf(format, args...)
}

func (l engineLogger) Warningf(format string, args ...interface{}) {
	l.z.Warnf(format, args...)
}

func (l engineLogger) Infof(format string, args ...interface{}) {
	l.z.Debugf(format, args...)
}

func (l engineLogger) Debugf(format string, args ...interface{}) {
	l.z.Debugf(format, args...)
}
