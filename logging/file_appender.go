package logging

import (
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileAppender writes console formatted lines to a size rotated log file.
type FileAppender struct {
	mu      sync.Mutex
	console ConsoleAppender
	file    *lumberjack.Logger
}

// NewFileAppender appends to path, rotating it once it reaches maxSizeMB megabytes and keeping
// maxBackups compressed old files.
func NewFileAppender(path string, maxSizeMB, maxBackups int) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &FileAppender{console: NewWriterAppender(file), file: file}
}

// Write formats the entry like ConsoleAppender.
func (fa *FileAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.console.Write(entry, fields)
}

// Sync is a no-op; lumberjack does not buffer.
func (fa *FileAppender) Sync() error {
	return nil
}

// Close closes the current log file.
func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.file.Close()
}
