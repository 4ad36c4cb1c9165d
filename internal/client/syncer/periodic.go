package syncer

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartPeriodic runs fn on a cron schedule such as "@every 5m" until the
// returned cron is stopped. Runs never overlap.
func StartPeriodic(spec string, fn func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
