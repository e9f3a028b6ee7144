package autocom

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEventTitle(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectZAdd(eventsKey, redis.Z{Score: 0, Member: "Jazz Night"}).SetVal(1)
	require.NoError(t, AddEventTitle(context.Background(), client, "Jazz Night"))

	// Empty titles are ignored without touching Redis.
	require.NoError(t, AddEventTitle(context.Background(), client, ""))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveEventTitle(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectZRem(eventsKey, "Jazz Night").SetVal(1)
	require.NoError(t, RemoveEventTitle(context.Background(), client, "Jazz Night"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestEventTitles(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectZRangeByLex(eventsKey, &redis.ZRangeBy{
		Min:    "[Jaz",
		Max:    "[Jaz\xff",
		Offset: 0,
		Count:  10,
	}).SetVal([]string{"Jazz Brunch", "Jazz Night"})

	titles, err := SuggestEventTitles(context.Background(), client, "Jaz", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jazz Brunch", "Jazz Night"}, titles)

	assert.NoError(t, mock.ExpectationsWereMet())
}
