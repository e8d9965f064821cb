package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production": Production,
		" PROD ":     Production,
		"staging":    Staging,
		"stg":        Staging,
		"Testing":    Testing,
		"test":       Testing,
		"":           Development,
		"qa":         Development,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseEnvironment(in), "input %q", in)
	}
}

func TestEnvironmentFlags(t *testing.T) {
	assert.True(t, Production.Deployed())
	assert.True(t, Staging.Deployed())
	assert.False(t, Development.Deployed())

	assert.True(t, Testing.Verbose())
	assert.False(t, Production.Verbose())
}
