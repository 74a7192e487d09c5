package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339",
			input: `"2026-01-15T10:30:00Z"`,
			want:  time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 with offset",
			input: `"2026-01-15T10:30:00+03:00"`,
			want:  time.Date(2026, 1, 15, 10, 30, 0, 0, time.FixedZone("", 3*3600)),
		},
		{
			name:  "legacy space-separated layout",
			input: `"2026-01-15 10:30:00+00"`,
			want:  time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "null",
			input: `null`,
			want:  time.Time{},
		},
		{
			name:  "empty string",
			input: `""`,
			want:  time.Time{},
		},
		{
			name:    "date only is rejected",
			input:   `"2026-01-15"`,
			wantErr: true,
		},
		{
			name:    "garbage is rejected",
			input:   `"not-a-date"`,
			wantErr: true,
		},
		{
			name:    "number is rejected",
			input:   `1736937000`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexTime
			err := json.Unmarshal([]byte(tt.input), &ft)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ft.Time), "got %v, want %v", ft.Time, tt.want)
		})
	}
}

func TestFlexTime_MarshalJSON(t *testing.T) {
	ft := FlexTime{Time: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)}
	data, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-15T10:30:00Z"`, string(data))

	data, err = json.Marshal(FlexTime{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}
