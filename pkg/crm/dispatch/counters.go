package dispatch

import "time"

type batchCounters struct {
	Success   int
	Failed    int
	Duration  int64
	startedAt time.Time
}

func initBatchCounters() *batchCounters {
	return &batchCounters{
		startedAt: time.Now(),
	}
}

func (c *batchCounters) IncreaseCounter(success bool) {
	if success {
		c.Success++
	} else {
		c.Failed++
	}
}

func (c *batchCounters) Stop() {
	c.Duration = int64(time.Since(c.startedAt).Seconds())
}
