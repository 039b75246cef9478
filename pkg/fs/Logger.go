// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
}

type discardLogger struct{}

func (discardLogger) Debug(msg string, fields ...map[string]interface{}) {}
func (discardLogger) Info(msg string, fields ...map[string]interface{})  {}
func (discardLogger) Warn(msg string, fields ...map[string]interface{})  {}
func (discardLogger) Error(msg string, fields ...map[string]interface{}) {}

func loggerOrDiscard(logger Logger) Logger {
	if logger == nil {
		return discardLogger{}
	}
	return logger
}

// LogTree logs the lines of the rendered tree at info level.
func LogTree(logger Logger, lines []string) {
	for _, line := range lines {
		logger.Info(line)
	}
}
