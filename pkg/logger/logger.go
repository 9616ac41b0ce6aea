package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu          sync.Mutex
	verboseMode bool
	quietMode   bool
	infoLogger  *log.Logger
	debugLogger *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
)

func init() {
	SetOutput(os.Stdout, os.Stderr)
}

// SetOutput redirects informational output to out and errors to errOut.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	infoLogger = log.New(out, "", 0)
	debugLogger = log.New(out, "", 0)
	warnLogger = log.New(out, "WARNING: ", 0)
	errorLogger = log.New(errOut, "ERROR: ", 0)
}

// SetVerbose enables or disables debug logging.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = verbose
}

// SetQuiet suppresses info and warning output. Machine-readable report formats
// turn this on so nothing but the report reaches stdout. Errors and debug
// output are unaffected.
func SetQuiet(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

func getTimestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// Debugf logs a formatted debug message with a timestamp if verbose mode is
// enabled.
func Debugf(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if verboseMode {
		debugLogger.Printf("[%s] DEBUG: %s", getTimestamp(), fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted informational message.
func Infof(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !quietMode {
		infoLogger.Printf(format, v...)
	}
}

// Warnf logs a formatted warning.
func Warnf(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !quietMode {
		warnLogger.Printf(format, v...)
	}
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	errorLogger.Printf(format, v...)
}
