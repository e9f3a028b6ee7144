// Package autocom maintains the event-title autocomplete index in Redis.
package autocom

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const eventsKey = "autocomplete:events"

// AddEventTitle registers a title for prefix search.
func AddEventTitle(ctx context.Context, client *redis.Client, title string) error {
	if title == "" {
		return nil
	}
	_, err := client.ZAdd(ctx, eventsKey, redis.Z{Score: 0, Member: title}).Result()
	if err != nil {
		return fmt.Errorf("failed to add event title to autocomplete: %w", err)
	}
	return nil
}

// RemoveEventTitle drops a title when its event is deleted.
func RemoveEventTitle(ctx context.Context, client *redis.Client, title string) error {
	_, err := client.ZRem(ctx, eventsKey, title).Result()
	if err != nil {
		return fmt.Errorf("failed to remove event title from autocomplete: %w", err)
	}
	return nil
}

// SuggestEventTitles returns titles starting with the query prefix.
func SuggestEventTitles(ctx context.Context, client *redis.Client, query string, limit int64) ([]string, error) {
	results, err := client.ZRangeByLex(ctx, eventsKey, &redis.ZRangeBy{
		Min:    "[" + query,
		Max:    "[" + query + "\xff",
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search event titles: %w", err)
	}
	return results, nil
}
