package tcs34725

import (
	"context"
	"errors"
	"sync"
)

// StateListener receives host lifecycle signals. The boolean result reports
// whether the listener wants to be removed from the notification list after
// handling the signal.
type StateListener interface {
	OnStop(ctx context.Context) (deregister bool, err error)
	OnShutdown(ctx context.Context) (deregister bool, err error)
}

var _ StateListener = &Driver{}

// OnStop handles a user-level stop signal: the driver disengages its
// transport and asks to be deregistered.
func (d *Driver) OnStop(ctx context.Context) (bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return true, d.disengage(ctx)
}

// OnShutdown handles a full shutdown. A stop signal normally disengages and
// deregisters the driver well before shutdown; closing here is the safety
// net for a shutdown arriving without one.
func (d *Driver) OnShutdown(ctx context.Context) (bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state == stateClosed {
		return true, nil
	}
	d.state = stateClosed
	return true, d.transport.Close(ctx)
}

// ListenerList dispatches host lifecycle signals to registered listeners,
// dropping the ones that report deregistration. The zero value is ready to
// use.
type ListenerList struct {
	mx        sync.Mutex
	listeners []StateListener
}

func (l *ListenerList) Register(s StateListener) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.listeners = append(l.listeners, s)
}

// Len reports the number of registered listeners.
func (l *ListenerList) Len() int {
	l.mx.Lock()
	defer l.mx.Unlock()
	return len(l.listeners)
}

// NotifyStop delivers a stop signal to every listener and returns the
// collected errors. Listeners keep receiving the signal even after one of
// them fails.
func (l *ListenerList) NotifyStop(ctx context.Context) error {
	return l.notify(ctx, StateListener.OnStop)
}

// NotifyShutdown delivers a shutdown signal to every listener and returns
// the collected errors.
func (l *ListenerList) NotifyShutdown(ctx context.Context) error {
	return l.notify(ctx, StateListener.OnShutdown)
}

func (l *ListenerList) notify(ctx context.Context, signal func(StateListener, context.Context) (bool, error)) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	var errs []error
	kept := l.listeners[:0]
	for _, s := range l.listeners {
		deregister, err := signal(s, ctx)
		if err != nil {
			errs = append(errs, err)
		}
		if !deregister {
			kept = append(kept, s)
		}
	}
	l.listeners = kept
	return errors.Join(errs...)
}
