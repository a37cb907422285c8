package letterboxd

import (
	"context"
	"log/slog"

	"github.com/use-agent/reelscout/models"
	"github.com/use-agent/reelscout/webhook"
)

// ProgressFunc is invoked after each user in a batch completes, with
// the number done so far and the total.
type ProgressFunc func(username string, done, total int, err error)

// BatchScrapeUsers scrapes several users sequentially, reusing the
// shared pool and rate limiter. One user's failure never aborts the
// batch; cancellation of ctx stops it after the in-flight user.
func (c *Client) BatchScrapeUsers(ctx context.Context, req models.BatchScrapeRequest, progress ProgressFunc) map[string]models.BatchResult {
	req.Defaults()
	results := make(map[string]models.BatchResult, len(req.Usernames))

	for i, username := range req.Usernames {
		if ctx.Err() != nil {
			results[username] = models.BatchResult{
				Success: false,
				Error:   models.ErrCodeCancelled + ": batch cancelled",
			}
			continue
		}

		out, err := c.ScrapeUser(ctx, models.ScrapeUserRequest{
			Username: username,
			Paginate: req.Paginate,
			MaxPages: req.MaxPages,
		})
		if err != nil {
			slog.Warn("batch: user scrape failed", "username", username, "error", err)
			results[username] = models.BatchResult{Success: false, Error: err.Error()}
		} else {
			results[username] = models.BatchResult{Success: true, Data: out.Data}
		}

		if progress != nil {
			progress(username, i+1, len(req.Usernames), err)
		}
	}

	if c.webhooks != nil {
		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		c.webhooks.Notify(webhook.EventBatchCompleted, "batch", map[string]int{
			"total":     len(req.Usernames),
			"succeeded": succeeded,
			"failed":    len(req.Usernames) - succeeded,
		})
	}
	return results
}
