// Package classify turns assembled entity text into archetype results, either
// with the local keyword engine or through a remote classifier.
package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/model"
)

// Classifier maps one entity to a classification result. Implementations
// report per-entity failures as error-variant results; a returned error means
// the classifier itself could not run.
type Classifier interface {
	Classify(ctx context.Context, e model.Entity) (model.Result, error)
}

// Health reports whether a remote path should be used and records outcomes.
// *resilience.CircuitBreaker satisfies it.
type Health interface {
	Allow() error
	Record(err error)
}

// Mode names the dispatch path.
type Mode string

// Dispatch modes.
const (
	ModeKeyword Mode = "keyword"
	ModeAI      Mode = "ai"
)

// Dispatcher routes entities to the remote classifier when one is configured
// and healthy, and to the keyword classifier otherwise.
type Dispatcher struct {
	keyword    *Keyword
	remote     Classifier
	health     Health
	fallbackOn bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRemote enables AI mode with the given remote classifier.
func WithRemote(c Classifier) DispatcherOption {
	return func(d *Dispatcher) { d.remote = c }
}

// WithHealth gates remote calls on h.
func WithHealth(h Health) DispatcherOption {
	return func(d *Dispatcher) { d.health = h }
}

// WithFallbackOnError replaces API Error results with keyword results.
func WithFallbackOnError(on bool) DispatcherOption {
	return func(d *Dispatcher) { d.fallbackOn = on }
}

// NewDispatcher creates a dispatcher over the keyword classifier.
func NewDispatcher(kw *Keyword, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{keyword: kw}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mode returns ModeAI when a remote classifier is configured.
func (d *Dispatcher) Mode() Mode {
	if d.remote != nil {
		return ModeAI
	}
	return ModeKeyword
}

// Classify implements Classifier. It never returns an error.
func (d *Dispatcher) Classify(ctx context.Context, e model.Entity) (model.Result, error) {
	if d.remote == nil {
		return d.keyword.ClassifyText(e.Text), nil
	}

	if d.health != nil {
		if err := d.health.Allow(); err != nil {
			zap.L().Debug("classify: remote unhealthy, using keywords",
				zap.String("company", e.Name), zap.Error(err))
			return d.fallback(e), nil
		}
	}

	res, err := d.remote.Classify(ctx, e)
	if err != nil {
		d.record(err)
		zap.L().Warn("classify: remote classifier unavailable, using keywords",
			zap.String("company", e.Name), zap.Error(err))
		return d.fallback(e), nil
	}

	if res.Failed() {
		d.record(errRemoteFailed{res})
		if d.fallbackOn {
			zap.L().Info("classify: remote failed, using keywords",
				zap.String("company", e.Name),
				zap.String("archetype", string(res.Archetype)),
				zap.String("evidence", res.Evidence))
			return d.fallback(e), nil
		}
		return res, nil
	}

	d.record(nil)
	return res, nil
}

func (d *Dispatcher) record(err error) {
	if d.health != nil {
		d.health.Record(err)
	}
}

func (d *Dispatcher) fallback(e model.Entity) model.Result {
	res := d.keyword.ClassifyText(e.Text)
	res.Source = model.SourceFallback
	return res
}

type errRemoteFailed struct{ res model.Result }

func (e errRemoteFailed) Error() string {
	return string(e.res.Archetype) + ": " + e.res.Evidence
}
