package hookwrap

import (
	"errors"
	"sync"
)

// errorTracker accumulates errors from concurrent workers.
type errorTracker struct {
	m    sync.Mutex
	errs []error
}

func (et *errorTracker) log(err error) {
	if err == nil {
		return
	}
	et.m.Lock()
	et.errs = append(et.errs, err)
	et.m.Unlock()
}

// err returns nil, the only error, or all of them joined.
func (et *errorTracker) err() error {
	et.m.Lock()
	defer et.m.Unlock()
	switch len(et.errs) {
	case 0:
		return nil
	case 1:
		return et.errs[0]
	default:
		return errors.Join(et.errs...)
	}
}
