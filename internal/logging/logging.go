package logging

import (
	"io"
	"log"
)

// Debug controls whether debug logs are printed.
var Debug bool

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		log.Printf("DEBUG: "+format, v...)
	}
}

// Warnf logs a formatted message for dropped or malformed events.
func Warnf(format string, v ...any) {
	log.Printf("WARN: "+format, v...)
}

// SetOutput redirects the standard logger, mostly so tests can stay quiet.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
