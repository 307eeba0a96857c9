package looper

import "time"

type (
	// Alert is a message to be shown to the user, e.g. when an operation
	// triggered by a control input fails. Alerts with the same Name replace
	// each other in the UI.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
		Duration time.Duration
	}

	AlertPriority int
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

func (p AlertPriority) String() string {
	switch p {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Alert logs the alert and passes it on to the observers.
func (m *Model) Alert(a Alert) {
	if a.Duration == 0 {
		a.Duration = defaultAlertDuration
	}
	entry := m.log.WithField("alert", a.Name)
	switch a.Priority {
	case Error:
		entry.Error(a.Message)
	case Warning:
		entry.Warn(a.Message)
	default:
		entry.Info(a.Message)
	}
	m.notify(Event{Kind: EventAlert, Data: a})
}

func (m *Model) alertf(name string, priority AlertPriority, err error) {
	m.Alert(Alert{Name: name, Message: err.Error(), Priority: priority})
}
