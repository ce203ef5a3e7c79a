package alerts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

func TestSerializeEvent(t *testing.T) {
	d := "2024-05-01"
	rec := Record{ID: 7, UserID: "u1", AsteroidID: "A1", AsteroidName: "(2010 PK9)", CloseApproachDate: &d, RiskLevel: risk.High}
	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	msg, err := serializeEvent(rec, at)
	require.NoError(t, err)

	assert.Equal(t, "u1|A1|2024-05-01", string(msg.Key))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, EventType, ev.Type)
	assert.Equal(t, at, ev.PublishedAt)
	assert.Equal(t, int64(7), ev.Alert.ID)
	assert.Equal(t, risk.High, ev.Alert.RiskLevel)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventType, headers["event_type"])
	assert.Equal(t, "HIGH", headers["risk_level"])
	assert.Equal(t, "2024-05-02T08:00:00Z", headers["published_at"])
}
