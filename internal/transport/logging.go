// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "bass/internal/log"
)

// LoggingTransport writes every frame and event to the debug log. It is
// used when no network transport is enabled and debug logging is on.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs data as JSON. Marshal errors are logged with the raw value.
func (lt *LoggingTransport) Send(data any) error {
	if !applog.Enabled(applog.LevelDebug) {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		applog.Debugf("Transport: Received (%T): %+v (JSON marshal error: %v)", data, data, err)
		return nil
	}
	applog.Debugf("Transport: %s", jsonData)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: LoggingTransport closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
