// Package semaphore provides a counting semaphore with scoped acquisition.
package semaphore

// Semaphore limits the number of goroutines running a section concurrently.
type Semaphore struct {
	c chan struct{}
}

// New returns a Semaphore with n slots.
func New(n int) *Semaphore {
	return &Semaphore{
		c: make(chan struct{}, n),
	}
}

// Wait blocks until a slot is available and takes it.
func (s *Semaphore) Wait() {
	s.c <- struct{}{}
}

// Signal releases a slot taken by Wait.
func (s *Semaphore) Signal() {
	<-s.c
}

// Do runs f while holding a slot. The slot is released when f returns.
func (s *Semaphore) Do(f func() error) error {
	s.Wait()
	defer s.Signal()
	return f()
}
