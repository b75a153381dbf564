// Package xlog provides the leveled logger used throughout the control
// plane, modeled on wireguard-go's device.Logger: a small interface over
// the standard library's log.Logger, with per-level output gating rather
// than a dependency on a structured-logging framework the rest of the
// corpus doesn't use for this kind of small daemon.
package xlog

import (
	"io"
	"log"
	"os"
)

const (
	LevelSilent = iota
	LevelError
	LevelInfo
	LevelDebug
)

// Logger is the interface every package in this module logs through.
type Logger interface {
	Debug(v ...interface{})
	Debugf(f string, v ...interface{})
	Info(v ...interface{})
	Infof(f string, v ...interface{})
	Error(v ...interface{})
	Errorf(f string, v ...interface{})
}

type basicLogger struct {
	debug *log.Logger
	info  *log.Logger
	err   *log.Logger
}

// New creates a Logger that writes to stdout, gated by level. LevelDebug
// enables all three streams; LevelInfo silences Debug; LevelError silences
// Debug and Info; LevelSilent silences everything.
func New(level int, prefix string) Logger {
	out := os.Stdout

	debugOut, infoOut, errOut := func() (io.Writer, io.Writer, io.Writer) {
		switch {
		case level >= LevelDebug:
			return out, out, out
		case level >= LevelInfo:
			return io.Discard, out, out
		case level >= LevelError:
			return io.Discard, io.Discard, out
		default:
			return io.Discard, io.Discard, io.Discard
		}
	}()

	return &basicLogger{
		debug: log.New(debugOut, "DEBUG: "+prefix, log.Ldate|log.Ltime),
		info:  log.New(infoOut, "INFO: "+prefix, log.Ldate|log.Ltime),
		err:   log.New(errOut, "ERROR: "+prefix, log.Ldate|log.Ltime),
	}
}

func (l *basicLogger) Debug(v ...interface{})            { l.debug.Println(v...) }
func (l *basicLogger) Debugf(f string, v ...interface{}) { l.debug.Printf(f, v...) }
func (l *basicLogger) Info(v ...interface{})             { l.info.Println(v...) }
func (l *basicLogger) Infof(f string, v ...interface{})  { l.info.Printf(f, v...) }
func (l *basicLogger) Error(v ...interface{})            { l.err.Println(v...) }
func (l *basicLogger) Errorf(f string, v ...interface{}) { l.err.Printf(f, v...) }
