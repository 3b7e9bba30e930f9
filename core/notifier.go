package core

// Notification colors, as rendered by the front end toasts.
const (
	ColorSuccess = "#4CAF50"
	ColorError   = "#ff0000"
)

// Notifier surfaces a short, user-visible message (a "toast").
// Rendering is up to the implementation.
type Notifier interface {
	Notify(message, color string)
}
