// Package logger provides the project-wide logger.
package logger

import (
	"github.com/gruntwork-io/go-commons/logging"
	"github.com/sirupsen/logrus"
)

const projectName = "pulse"

var projectLogger = logging.GetLogger(projectName)

// GetProjectLogger returns the logger every component shares.
func GetProjectLogger() *logrus.Logger {
	return projectLogger
}

// SetLevel adjusts verbosity for the whole project.
func SetLevel(level logrus.Level) {
	projectLogger.SetLevel(level)
}
