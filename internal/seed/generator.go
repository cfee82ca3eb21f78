package seed

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/okian/vidtag/pkg/logger"
)

// randomInt returns a uniform value in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}

// pick returns a random element of items.
func pick(items []string) string {
	return items[randomInt(int64(len(items)))]
}

// generateEvents creates the configured number of events concurrently.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, error) {
	logger.Get().Info(ctx, "generating events", logger.Int("numEvents", config.NumEvents))

	events := make([]Event, config.NumEvents)
	if config.NumEvents == 0 {
		return events, nil
	}

	type eventResult struct {
		index int
		event Event
		err   error
	}

	resultChan := make(chan eventResult, config.NumEvents)

	workerCount := max(min(config.Workers, config.NumEvents), 1)
	eventsPerWorker := config.NumEvents / workerCount

	for worker := range workerCount {
		start := worker * eventsPerWorker
		end := start + eventsPerWorker
		if worker == workerCount-1 {
			end = config.NumEvents
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- eventResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- eventResult{index: i, event: generateSingleEvent(config)}
				}
			}
		}(start, end)
	}

	for range config.NumEvents {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate event %d: %w", result.index, result.err)
			}
			events[result.index] = result.event
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))
	return events, nil
}

// generateSingleEvent draws labels from the vocabularies and a random position.
// Roughly half of the events carry a click coordinate.
func generateSingleEvent(config *Config) Event {
	eventLabels := config.Events
	if len(eventLabels) == 0 {
		eventLabels = defaultEvents
	}
	teams := config.Teams
	if len(teams) == 0 {
		teams = defaultTeams
	}
	maxMS := config.MaxVideoMS
	if maxMS <= 0 {
		maxMS = defaultMaxVideoMS
	}

	ev := Event{
		Event:   pick(eventLabels),
		Team:    pick(teams),
		VideoMS: randomInt(maxMS),
	}
	if randomInt(coordChance) == 0 {
		x := int(randomInt(maxCoord))
		y := int(randomInt(maxCoord))
		ev.X, ev.Y = &x, &y
	}
	return ev
}
