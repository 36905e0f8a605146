package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationField(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"empty means zero", "", 0, false},
		{"whitespace means zero", "  ", 0, false},
		{"millis", "250ms", 250 * time.Millisecond, false},
		{"composite", "1m30s", 90 * time.Second, false},
		{"negative rejected", "-1s", 0, true},
		{"bare number rejected", "5", 0, true},
		{"garbage rejected", "soon", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ParseDurationField("runner.retry_base", tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "runner.retry_base")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("x", "", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = ParseDurationOrDefault("x", "2s", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	_, err = ParseDurationOrDefault("x", "bogus", 5*time.Second)
	require.Error(t, err)
}
