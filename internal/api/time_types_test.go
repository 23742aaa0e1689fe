package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelDate_UnmarshalJSON_Date(t *testing.T) {
	var d LabelDate
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-14"`), &d))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), d.Time)
}

func TestLabelDate_UnmarshalJSON_RFC3339KeepsLocalDate(t *testing.T) {
	// Late evening in Buenos Aires is already the next day in UTC.
	var d LabelDate
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-14T23:30:00-03:00"`), &d))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), d.Time)
}

func TestLabelDate_UnmarshalJSON_Invalid(t *testing.T) {
	var d LabelDate
	assert.Error(t, json.Unmarshal([]byte(`"14/03/2026"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`1705314600000`), &d))
}

func TestLabelDate_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(LabelDate{Time: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-14"`, string(data))
}

func TestTimeOrZero(t *testing.T) {
	assert.True(t, timeOrZero(nil).IsZero())
	d := &LabelDate{Time: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, d.Time, timeOrZero(d))
}
