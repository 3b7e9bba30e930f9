package notifysvc

import "github.com/trezcool/bursar/core"

type consoleNotifier struct {
	logger core.Logger
}

var _ core.Notifier = (*consoleNotifier)(nil)

// NewConsoleNotifier writes notifications to the log: errors as warnings, the rest as info.
func NewConsoleNotifier(logger core.Logger) core.Notifier {
	return &consoleNotifier{logger: logger}
}

func (n consoleNotifier) Notify(message, color string) {
	extras := map[string]interface{}{"color": color}
	if color == core.ColorError {
		n.logger.Warn("notification: "+message, extras)
		return
	}
	n.logger.Info("notification: "+message, extras)
}

type multiNotifier []core.Notifier

// Multi fans a notification out to every notifier, in order.
func Multi(notifiers ...core.Notifier) core.Notifier {
	m := make(multiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multiNotifier) Notify(message, color string) {
	for _, n := range m {
		n.Notify(message, color)
	}
}
