package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSeverity_Text(t *testing.T) {
	t.Parallel()
	tests := []struct {
		severity Severity
		text     string
		str      string
	}{
		{SeverityError, "error", "ERROR"},
		{SeverityWarning, "warning", "WARNING"},
		{SeverityInfo, "info", "INFO"},
		{SeverityOff, "off", "OFF"},
	}

	for _, tc := range tests {
		text, err := tc.severity.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, tc.text, string(text))
		assert.Equal(t, tc.str, tc.severity.String())

		var s Severity
		require.NoError(t, s.UnmarshalText([]byte(tc.text)))
		assert.Equal(t, tc.severity, s)
	}
}

func TestSeverity_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Severity(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN(42)", Severity(42).String())

	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}

func TestConfigRule_YAML(t *testing.T) {
	t.Parallel()

	var rules map[string]ConfigRule
	require.NoError(t, yaml.Unmarshal([]byte("a:\n  severity: info\nb:\n  severity: off\n"), &rules))
	assert.Equal(t, SeverityInfo, rules["a"].Severity)
	assert.Equal(t, SeverityOff, rules["b"].Severity)

	out, err := yaml.Marshal(ConfigRule{Severity: SeverityWarning})
	require.NoError(t, err)
	assert.Equal(t, "severity: warning\n", string(out))
}
