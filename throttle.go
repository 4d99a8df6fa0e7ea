package main

import (
	"sync"
	"time"
)

const (
	defaultRateLimit      = 30
	cooldown              = time.Minute
	maxConcurrentRequests = 2
)

// throttle allows at most rate requests per cooldown window and at most
// a fixed number of requests in flight.
type throttle struct {
	rate   int
	ticker *time.Ticker

	attemptsLock sync.Mutex
	attempts     []time.Time

	concurrentReqs chan struct{}
}

func newThrottle(rate, concurrency int) *throttle {
	if rate <= 0 {
		rate = defaultRateLimit
	}
	if concurrency <= 0 {
		concurrency = maxConcurrentRequests
	}
	t := &throttle{
		rate:           rate,
		ticker:         time.NewTicker(cooldown / time.Duration(rate)),
		concurrentReqs: make(chan struct{}, concurrency),
	}
	for i := 0; i < concurrency; i++ {
		t.concurrentReqs <- struct{}{}
	}
	return t
}

func (t *throttle) GetToken() func() {
	<-t.concurrentReqs
	return func() {
		t.concurrentReqs <- struct{}{}
	}
}

func (t *throttle) Throttle() {
	for range t.ticker.C {
		if t.allow(time.Now()) {
			return
		}
	}
}

// allow records an attempt at now unless the window is already full.
func (t *throttle) allow(now time.Time) bool {
	t.attemptsLock.Lock()
	defer t.attemptsLock.Unlock()
	att := t.attempts
	if len(att) < t.rate || now.Sub(att[0]) > cooldown {
		att = append(att, now)
		if len(att) > t.rate {
			att = att[1:]
		}
		t.attempts = att
		return true
	}
	return false
}

func (t *throttle) Stop() {
	t.ticker.Stop()
}
