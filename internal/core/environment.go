package core

import "strings"

// Environment is the deployment stage named by APP_ENV.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// Deployed is true for stages that ship logs to a collector.
func (e Environment) Deployed() bool {
	return e == Production || e == Staging
}

// Verbose is true for stages that log at debug level by default.
func (e Environment) Verbose() bool {
	return e == Development || e == Testing
}

// ParseEnvironment accepts any casing and the short forms dev/prod/stg/test.
// Anything else is Development.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stg":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
