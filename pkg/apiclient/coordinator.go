package apiclient

import (
	"sync"
	"time"
)

// settledWindow is how long a successful refresh answers late callers that
// still hold the token it replaced.
const settledWindow = time.Minute

// refreshResult settles one refresh flight. refreshToken is set when the
// API rotated it.
type refreshResult struct {
	token        string
	refreshToken string
	err          error
}

type flight struct {
	waiters []chan refreshResult
}

type settledResult struct {
	res refreshResult
	at  time.Time
}

// coordinator tracks in-flight refresh exchanges, one per refresh token.
// The in-flight flag, the waiter queue and the last settled token only
// change under mu.
type coordinator struct {
	mu      sync.Mutex
	flights map[string]*flight
	settled map[string]settledResult
	now     func() time.Time
}

func newCoordinator() *coordinator {
	return &coordinator{
		flights: make(map[string]*flight),
		settled: make(map[string]settledResult),
		now:     time.Now,
	}
}

// begin decides, in one critical section, how a caller whose request was
// rejected with stale recovers:
//   - a flight for key is running: queue behind it and wait on the channel;
//   - a flight for key just succeeded with a different token: reuse it;
//   - otherwise: lead a new flight (leader=true, it must call settle).
func (c *coordinator) begin(key, stale string) (wait <-chan refreshResult, recent *refreshResult, leader bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.flights[key]; ok {
		ch := make(chan refreshResult, 1)
		f.waiters = append(f.waiters, ch)
		return ch, nil, false
	}

	if s, ok := c.settled[key]; ok && c.now().Sub(s.at) < settledWindow && s.res.token != stale {
		res := s.res
		return nil, &res, false
	}

	c.flights[key] = &flight{}
	return nil, nil, true
}

// settle ends the flight for key and hands res to every waiter exactly once.
// It returns how many waiters were released.
func (c *coordinator) settle(key string, res refreshResult) int {
	c.mu.Lock()
	f := c.flights[key]
	delete(c.flights, key)

	now := c.now()
	if res.err == nil && key != "" {
		c.settled[key] = settledResult{res: res, at: now}
	} else {
		delete(c.settled, key)
	}
	for k, s := range c.settled {
		if now.Sub(s.at) >= settledWindow {
			delete(c.settled, k)
		}
	}
	c.mu.Unlock()

	if f == nil {
		return 0
	}
	for _, ch := range f.waiters {
		ch <- res // buffered, never blocks
	}
	return len(f.waiters)
}

// inFlight reports whether an exchange is running for key.
func (c *coordinator) inFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flights[key]
	return ok
}

// queued reports how many callers wait on key.
func (c *coordinator) queued(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key]; ok {
		return len(f.waiters)
	}
	return 0
}
