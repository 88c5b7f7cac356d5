package views

import "github.com/sirupsen/logrus"

// Notifier receives transient user-visible notifications. Views report
// every action outcome through it; no error is allowed to escape and
// crash a view.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// LogNotifier is the default sink for headless use; a UI front end
// swaps in its own toast implementation.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Success(title, message string) {
	n.log.WithField("notification", title).Info(message)
}

func (n *LogNotifier) Error(title, message string) {
	n.log.WithField("notification", title).Warn(message)
}
