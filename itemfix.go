// Package itemfix reconstructs invoice line-item tables from positioned
// text tokens. Given a page's tokens and one or more candidate grids from a
// table-detection engine, it anchors the items region, ranks the
// candidates, repairs row and column structure, and cross-checks the
// result arithmetically, driven entirely by declarative per-vendor
// configuration.
//
// Basic usage:
//
//	cfg, cp, err := config.Load("vendor.json")
//	if err != nil {
//	    // handle error
//	}
//	res, err := itemfix.New(cfg, cp).
//	    WithCache(cache.NewFileStore("vendor.cache.json")).
//	    Process(ctx, doc)
//
// Engines implementing candidates.Engine can be added with WithEngine; by
// default the built-in geometric engine is used.
package itemfix

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tablekit/itemfix/cache"
	"github.com/tablekit/itemfix/candidates"
	"github.com/tablekit/itemfix/config"
)

// Runner is the configured line-item extraction pipeline. Configure it with
// the With* methods, then call Process once per document. A Runner is safe
// to reuse across documents; only the injected cache store crosses document
// boundaries.
type Runner struct {
	cfg     *config.Config
	cp      *config.Compiled
	engines []candidates.Engine
	store   cache.Store
	log     *logrus.Logger
	timeout time.Duration
}

// New creates a runner from a validated config and its compiled patterns.
// The default engine set is the package registry; the default logger
// discards everything.
func New(cfg *config.Config, cp *config.Compiled) *Runner {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Runner{
		cfg:     cfg,
		cp:      cp,
		engines: candidates.DefaultRegistry().Engines(),
		log:     log,
	}
}

// WithEngine replaces the engine set with the given engines
func (r *Runner) WithEngine(engines ...candidates.Engine) *Runner {
	r.engines = engines
	return r
}

// WithCache injects the template cache store
func (r *Runner) WithCache(store cache.Store) *Runner {
	r.store = store
	return r
}

// WithLogger injects a logger for page-level processing fields
func (r *Runner) WithLogger(log *logrus.Logger) *Runner {
	if log != nil {
		r.log = log
	}
	return r
}

// WithEngineTimeout guards every external engine call with a deadline.
// Zero disables the guard.
func (r *Runner) WithEngineTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}
