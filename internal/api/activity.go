package api

import (
	"fmt"
	"time"

	"github.com/staabm/platformsh-cli/internal/errors"
)

// defaultPollInterval is the pause between activity state reads.
const defaultPollInterval = 2 * time.Second

// Waiter polls activity handles until each completes or fails. Handles are
// consumed strictly in submission order, so reported progress matches the
// order the mutations were issued in.
type Waiter struct {
	client   *Client
	interval time.Duration

	// Progress, when set, is called with the latest state of the activity
	// currently being waited on (including its terminal state).
	Progress func(a *Activity)
}

// NewWaiter creates a waiter with the default poll interval.
func NewWaiter(client *Client) *Waiter {
	return &Waiter{client: client, interval: defaultPollInterval}
}

// SetInterval overrides the poll interval (used by tests).
func (w *Waiter) SetInterval(d time.Duration) {
	w.interval = d
}

// Wait blocks until every activity finishes. The first failed or cancelled
// activity aborts the wait with an ACTIVITY error; activities after it are
// not polled.
func (w *Waiter) Wait(projectID string, activities []*Activity) error {
	for _, a := range activities {
		final, err := w.waitOne(projectID, a)
		if err != nil {
			return err
		}
		if !final.Succeeded() {
			detail := final.Description
			if detail == "" {
				detail = final.ID
			}
			return errors.New(errors.ErrActivity,
				fmt.Sprintf("Activity failed: %s (%s)", final.Type, detail),
				"Check the activity log in the web console for details")
		}
	}
	return nil
}

func (w *Waiter) waitOne(projectID string, a *Activity) (*Activity, error) {
	current := a
	for {
		if w.Progress != nil {
			w.Progress(current)
		}
		if current.Finished() {
			return current, nil
		}

		time.Sleep(w.interval)

		refreshed, err := w.client.GetActivity(projectID, a.ID)
		if err != nil {
			return nil, err
		}
		current = refreshed
	}
}
