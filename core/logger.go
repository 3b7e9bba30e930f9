package core

// Logger is any service that can log messages.
// args may hold errors and map[string]interface{} extras.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the signed-in operator in error reports.
type Person struct {
	ID       string
	Username string
	Email    string
}
