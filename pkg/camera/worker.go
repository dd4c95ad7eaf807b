package camera

import "sync"

// worker is a long-lived conversion goroutine with a frame-ticket
// rendezvous. Submit hands it one job and bumps the submit sequence; the
// loop re-checks liveness and the pending ticket on every wake, so a
// signal arriving during shutdown or a spurious wake never triggers a
// stale conversion. Wait blocks on done-sequence equality for the exact
// frame rather than on a bare notification.
type worker struct {
	mu   sync.Mutex
	cond *sync.Cond

	alive     bool
	submitted uint64
	consumed  uint64
	done      uint64
	job       func()
}

func newWorker() *worker {
	w := &worker{alive: true}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// run is the worker loop: Idle → Converting → Idle, or Terminated once
// the liveness flag drops.
func (w *worker) run() {
	w.mu.Lock()
	for {
		for w.alive && w.submitted == w.consumed {
			w.cond.Wait()
		}
		if !w.alive {
			w.mu.Unlock()
			return
		}
		w.consumed = w.submitted
		ticket := w.consumed
		job := w.job
		w.job = nil
		w.mu.Unlock()

		job()

		w.mu.Lock()
		w.done = ticket
		w.cond.Broadcast()
	}
}

// submit places one conversion job and returns its frame ticket. Must not
// be called while a previous ticket is still unconsumed; the driver
// serializes submits within a tick.
func (w *worker) submit(job func()) uint64 {
	w.mu.Lock()
	w.submitted++
	ticket := w.submitted
	w.job = job
	w.cond.Broadcast()
	w.mu.Unlock()
	return ticket
}

// wait blocks until the worker has completed the given ticket. Returns
// false if the worker terminated first.
func (w *worker) wait(ticket uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.alive && w.done < ticket {
		w.cond.Wait()
	}
	return w.done >= ticket
}

// stop flips the liveness flag and wakes the loop. The caller joins the
// goroutine separately.
func (w *worker) stop() {
	w.mu.Lock()
	w.alive = false
	w.cond.Broadcast()
	w.mu.Unlock()
}
