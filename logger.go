package tgscreenshots

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	ColorReset  = "\033[0m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorGray   = "\033[90m"
)

// Verbose enables LogDebug output.
var Verbose bool

var (
	logMu   sync.Mutex
	logFile *os.File
	logOut  io.Writer = os.Stdout
)

func InitLogFile(path string) error {
	logMu.Lock()
	defer logMu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return nil
}

func CloseLogFile() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func logLine(prefix, color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("15:04:05")

	logMu.Lock()
	defer logMu.Unlock()
	if os.Getenv("TGSCREENSHOTS_QUIET") == "" {
		fmt.Fprintf(logOut, "[%s] %s%s%s %s\n", ts, color, prefix, ColorReset, msg)
	}
	if logFile != nil {
		fmt.Fprintf(logFile, "%s %s %s\n", time.Now().Format(time.RFC3339), prefix, msg)
	}
}

func LogInfo(format string, args ...any) {
	logLine("INFO", ColorCyan, format, args...)
}

func LogOK(format string, args ...any) {
	logLine(" OK ", ColorGreen, format, args...)
}

func LogWarn(format string, args ...any) {
	logLine("WARN", ColorYellow, format, args...)
}

func LogError(format string, args ...any) {
	logLine(" ERR", ColorRed, format, args...)
}

func LogDebug(format string, args ...any) {
	if !Verbose {
		return
	}
	logLine(" DBG", ColorGray, format, args...)
}
