package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessagePayloadRoundtrip(t *testing.T) {
	msg, err := NewMessage("run-1", TypeIndexDocument, &IndexDocumentMessage{
		RunID:      "run-1",
		DocumentID: 42,
		Force:      true,
	})
	require.NoError(t, err)

	var payload IndexDocumentMessage
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, int64(42), payload.DocumentID)
	assert.True(t, payload.Force)
}

func TestMessageMetadata(t *testing.T) {
	msg := &Message{}

	msg.SetMetadata("document_id", "42")

	assert.Equal(t, "42", msg.GetMetadata("document_id"))
	assert.Empty(t, msg.GetMetadata("missing"))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	// 超过上限后封顶
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(10))
}

func TestDLQStreamName(t *testing.T) {
	assert.Equal(t, "dlq:stream:index:jobs", StreamIndexJobs.DLQStream())
}
