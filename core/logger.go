package core

// Logger logs messages with optional extra args.
// expected args: error, map[string]interface{}, user.User (the user performing the request)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
