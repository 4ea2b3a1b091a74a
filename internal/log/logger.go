// Package log is the package-level logging facade used across netrpc.
// Application code can redirect output by calling SetLogger; nothing in
// the framework imports a concrete logging library directly.
package log

// Logger lets application code redirect framework log output.
type Logger interface {
	Info(args ...any)
	Error(args ...any)
	Fatal(args ...any)
}

func init() {
	SetLogger(NewConsoleLogger())
}

var (
	Info  func(args ...any)
	Error func(args ...any)
	Fatal func(args ...any)
)

// SetLogger rewrites the default logger
func SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	Info = logger.Info
	Error = logger.Error
	Fatal = logger.Fatal
}
