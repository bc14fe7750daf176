package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/headnod/internal/log"
)

// DefaultTimeoutMs bounds a single hook run.
const DefaultTimeoutMs = 5000

// Dispatcher sends events to every subscribed plugin.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	log      *logrus.Entry
	wg       sync.WaitGroup
}

// NewDispatcher returns a Dispatcher for the plugins known to manager.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		log:      log.WithComponent("plugin"),
	}
}

// Dispatch runs all subscribers of req.Event one after another and
// returns the failures. A plugin answering success=false counts as a
// failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) []error {
	var errs []error
	for _, p := range d.manager.Subscribers(req.Event) {
		fields := logrus.Fields{"plugin": p.Manifest.Name, "event": req.Event, "session": req.SessionID}

		resp, err := d.executor.Execute(ctx, p, req)
		if err == nil && !resp.Success {
			err = fmt.Errorf("plugin %s: %s", p.Manifest.Name, resp.Error)
		}
		if err != nil {
			d.log.WithFields(fields).WithError(err).Warn("answer hook failed")
			errs = append(errs, err)
			continue
		}
		d.log.WithFields(fields).Debug("answer hook ran")
	}
	return errs
}

// Go dispatches req in the background.
func (d *Dispatcher) Go(ctx context.Context, req Request) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(ctx, &req)
	}()
}

// Wait blocks until every dispatch started with Go has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
