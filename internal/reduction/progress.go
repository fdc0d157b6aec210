package reduction

import "sync"

// ProgressUpdate carries the progress of one reducer to the user interface.
type ProgressUpdate struct {
	// ReducerIndex identifies the reducer among those running concurrently.
	ReducerIndex int
	// Value is the fraction of layers completed, from 0.0 to 1.0.
	Value float64
}

// ProgressObserver receives progress notifications.
type ProgressObserver interface {
	// Update is called at every layer barrier of a reduction.
	//
	// Parameters:
	//   - reducerIndex: The reducer instance identifier.
	//   - progress: The fraction of layers completed.
	Update(reducerIndex int, progress float64)
}

// ProgressSubject fans progress notifications out to registered observers.
// It is safe for concurrent use.
type ProgressSubject struct {
	observers []registration
	nextID    Registration
	mu        sync.RWMutex
}

// Registration identifies one Register call. Observers are removed by their
// registration rather than by value, so any observer type can be registered,
// including funcs, maps and slices, which do not support ==.
type Registration uint64

type registration struct {
	id       Registration
	observer ProgressObserver
}

// NewProgressSubject creates a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer and returns the handle that removes it. Nil
// observers are ignored and get the zero Registration.
func (s *ProgressSubject) Register(observer ProgressObserver) Registration {
	if observer == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers = append(s.observers, registration{id: s.nextID, observer: observer})
	return s.nextID
}

// Unregister removes the observer added under id. Unknown ids, including
// the zero Registration, are ignored.
func (s *ProgressSubject) Unregister(id Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.observers {
		if r.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify calls every observer in registration order.
func (s *ProgressSubject) Notify(reducerIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.observers {
		r.observer.Update(reducerIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Reporter returns a callback suitable for backend.Request.Progress that
// notifies the observers on behalf of reducerIndex.
func (s *ProgressSubject) Reporter(reducerIndex int) func(progress float64) {
	return func(progress float64) {
		s.Notify(reducerIndex, progress)
	}
}
