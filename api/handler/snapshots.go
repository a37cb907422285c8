package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/models"
	"github.com/use-agent/reelscout/snapshot"
)

// ListSnapshots returns a handler for GET /api/v1/snapshots/:username.
func ListSnapshots(store *snapshot.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps, err := store.List(c.Param("username"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(snaps), "snapshots": snaps})
	}
}

// LatestSnapshot returns a handler for GET /api/v1/snapshots/:username/latest.
func LatestSnapshot(store *snapshot.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := store.LoadLatest(c.Param("username"))
		if err != nil {
			respondError(c, err)
			return
		}
		if snap == nil {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound,
				"no snapshots for subject", nil))
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// DiffSnapshots returns a handler for GET /api/v1/snapshots/:username/diff.
// It diffs the two most recent snapshots for the subject.
func DiffSnapshots(store *snapshot.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps, err := store.List(c.Param("username"))
		if err != nil {
			respondError(c, err)
			return
		}
		if len(snaps) < 2 {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound,
				"need at least two snapshots to diff", nil))
			return
		}

		// List is newest-first: snaps[1] is the older capture.
		diff, err := snapshot.Diff(&snaps[1], &snaps[0])
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"subject":  c.Param("username"),
			"old_time": snaps[1].Timestamp,
			"new_time": snaps[0].Timestamp,
			"diff":     diff,
		})
	}
}
