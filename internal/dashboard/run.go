package dashboard

import (
	"context"
	"time"
)

// pollInterval bounds how long one loop iteration waits for input.
const pollInterval = 250 * time.Millisecond

// Run drives the dashboard until the user quits or ctx is done: draw the
// state, wait briefly for a key, then take one step. Frames are only
// redrawn after a change or a resize.
func Run(ctx context.Context, d *Dashboard, screen Screen) error {
	dirty := true
	lastWidth, lastHeight := 0, 0
	for !d.Done() {
		if ctx.Err() != nil {
			return nil
		}

		width, height := screen.Size()
		if width != lastWidth || height != lastHeight {
			lastWidth, lastHeight = width, height
			dirty = true
		}
		if dirty {
			if err := Render(screen, d, width, height); err != nil {
				return err
			}
		}

		timeout := pollInterval
		if d.Pending() > 0 {
			timeout = 0
		}
		collecting := d.Collecting()
		if key, ok := screen.PollKey(timeout); ok {
			dirty = d.Step(ctx, &key)
		} else {
			dirty = d.Step(ctx, nil)
		}
		if collecting && !d.Collecting() {
			discardInput(screen)
		}
	}
	return nil
}

// discardInput drops keys typed while the loop was blocked on a collection.
func discardInput(screen Screen) {
	for {
		if _, ok := screen.PollKey(0); !ok {
			return
		}
	}
}
