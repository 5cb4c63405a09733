package term

import (
	"fmt"

	"github.com/pterm/pterm"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var lvl = LevelInfo

func SetLevel(level Level) {
	lvl = level
}

func GetLevel() Level {
	return lvl
}

func Debug(a ...interface{}) {
	if lvl > LevelDebug {
		return
	}
	pterm.FgLightCyan.Println(a...)
}

func Debugf(format string, a ...interface{}) {
	if lvl > LevelDebug {
		return
	}
	pterm.FgLightCyan.Printfln(format, a...)
}

func Info(a ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	pterm.FgLightGreen.Println(a...)
}

func Infof(format string, a ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	pterm.FgLightGreen.Printfln(format, a...)
}

func Warn(a ...interface{}) {
	if lvl > LevelWarn {
		return
	}
	pterm.FgYellow.Println(a...)
}

func Warnf(format string, a ...interface{}) {
	if lvl > LevelWarn {
		return
	}
	pterm.FgYellow.Printfln(format, a...)
}

func Error(a ...interface{}) {
	pterm.FgLightRed.Println(a...)
}

func Errorf(format string, a ...interface{}) {
	pterm.FgLightRed.Printfln(format, a...)
}

// Table renders rows under a header, unless the output is quiet.
func Table(header []string, rows [][]string) {
	if lvl > LevelInfo {
		return
	}
	data := pterm.TableData{header}
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithBoxed(true).WithHasHeader().WithData(data).Render()
}

// DebugLogger prints at debug level
type DebugLogger struct{}

// Logger returns a logger printing debug messages in the terminal.
func Logger() *DebugLogger {
	return &DebugLogger{}
}

func (l *DebugLogger) Print(a ...interface{}) {
	Debug(fmt.Sprint(a...))
}

func (l *DebugLogger) Println(a ...interface{}) {
	Debug(a...)
}

func (l *DebugLogger) Printf(format string, a ...interface{}) {
	Debugf(format, a...)
}
