// Package chatmerge reconciles chat transcript logs duplicated across several
// viewer installation directories. Every run discovers the union of log files
// over all readable locations, merges each file's copies into one canonical
// chronologically sorted body, and writes the result to every writable
// location whose copy differs.
package chatmerge

import (
	"context"

	"github.com/firekeep/chatmerge/pkg/reconcile"
)

// Chatmerge reconciles chat logs across configured locations.
type Chatmerge interface {
	// Reconcile runs one reconciliation pass over all locations.
	Reconcile(ctx context.Context, opts ...reconcile.Option) (*reconcile.Report, error)

	// Locations returns the configured locations.
	Locations() []reconcile.Location
}

// chatmerge is the internal implementation of the Chatmerge interface.
type chatmerge struct {
	config     *config
	reconciler *reconcile.Reconciler
}

// New creates a new Chatmerge instance with the given options. At least one
// location must be configured.
func New(opts ...Option) (Chatmerge, error) {
	cm := &chatmerge{config: defaultConfig()}

	for _, opt := range opts {
		if err := opt(cm.config); err != nil {
			return nil, err
		}
	}

	rec, err := reconcile.New(cm.config.fs, cm.config.locations, cm.config.reporter, cm.config.logger)
	if err != nil {
		return nil, err
	}
	cm.reconciler = rec

	return cm, nil
}

// Reconcile runs one reconciliation pass over all locations.
func (c *chatmerge) Reconcile(ctx context.Context, opts ...reconcile.Option) (*reconcile.Report, error) {
	return c.reconciler.Reconcile(ctx, opts...)
}

// Locations returns the configured locations.
func (c *chatmerge) Locations() []reconcile.Location {
	return c.reconciler.Locations()
}
