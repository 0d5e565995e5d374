package services

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/rollbar/rollbar-go"
)

// Reporter escalates payment problems that need a human, such as a charge
// for the wrong amount.
type Reporter interface {
	Critical(msg string, extras map[string]interface{})
	Error(err error, extras map[string]interface{})
	Close()
}

// RollbarReporter sends reports to Rollbar and mirrors them to the log.
type RollbarReporter struct{}

// NewRollbarReporter configures the Rollbar client.
func NewRollbarReporter(token, environment, codeVersion string) *RollbarReporter {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	rollbar.SetCodeVersion(codeVersion)
	return &RollbarReporter{}
}

func (RollbarReporter) Critical(msg string, extras map[string]interface{}) {
	log.Errorf("%s %v", msg, extras)
	rollbar.Critical(msg, extras)
}

func (RollbarReporter) Error(err error, extras map[string]interface{}) {
	log.Errorf("%v %v", err, extras)
	rollbar.Error(err, extras)
}

// Close flushes queued reports.
func (RollbarReporter) Close() {
	rollbar.Wait()
}

// LogReporter only logs. Used when no Rollbar token is configured.
type LogReporter struct{}

func (LogReporter) Critical(msg string, extras map[string]interface{}) {
	log.Errorf("CRITICAL %s %v", msg, extras)
}

func (LogReporter) Error(err error, extras map[string]interface{}) {
	log.Errorf("%v %v", err, extras)
}

func (LogReporter) Close() {}
