package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWithoutIndexerConfigured(t *testing.T) {
	t.Setenv("INDEX_URL", "")
	require.NoError(t, Emit("event-created", Index{EntityType: "event", EntityId: "e1", Action: "POST"}))
}

func TestIndexerURLResolvedPerCall(t *testing.T) {
	t.Setenv("INDEX_URL", "")
	assert.Empty(t, indexerURL())

	// A value loaded after package init (godotenv in main) must be seen.
	t.Setenv("INDEX_URL", "https://indexer.internal:4040")
	assert.Equal(t, "https://indexer.internal:4040", indexerURL())
}
