// Package invalidation tracks which cached resources must be refetched after
// a mutation. Readers subscribe to resource tags; writers invalidate them.
package invalidation

import (
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

// Tag names a family of remote resources.
type Tag string

const (
	TagTenants       Tag = "tenants"
	TagTenantDetails Tag = "tenant-details"
	TagFAQLinks      Tag = "faq-links"
	TagProducts      Tag = "products"
	TagSessions      Tag = "sessions"
)

// AllTags lists every known tag.
var AllTags = []Tag{TagTenants, TagTenantDetails, TagFAQLinks, TagProducts, TagSessions}

// Publisher forwards local invalidations to other console instances.
type Publisher interface {
	PublishInvalidation(tag Tag) error
}

// Registry fans invalidations out to subscribers.
type Registry struct {
	mu        sync.RWMutex
	subs      map[Tag]map[uint64]func(Tag)
	next      uint64
	publisher Publisher
	logger    *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		subs:   make(map[Tag]map[uint64]func(Tag)),
		logger: log.Component("invalidation"),
	}
}

// SetPublisher attaches a remote publisher. Passing nil detaches it.
func (r *Registry) SetPublisher(p Publisher) {
	r.mu.Lock()
	r.publisher = p
	r.mu.Unlock()
}

// Subscribe registers fn for tag and returns a function that removes it.
func (r *Registry) Subscribe(tag Tag, fn func(Tag)) (cancel func()) {
	r.mu.Lock()
	r.next++
	id := r.next
	if r.subs[tag] == nil {
		r.subs[tag] = make(map[uint64]func(Tag))
	}
	r.subs[tag][id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs[tag], id)
			r.mu.Unlock()
		})
	}
}

// Invalidate notifies local subscribers of each tag and forwards the tags to
// the publisher, if any.
func (r *Registry) Invalidate(tags ...Tag) {
	r.mu.RLock()
	publisher := r.publisher
	r.mu.RUnlock()

	for _, tag := range tags {
		r.fanOut(tag, "local")
		if publisher == nil {
			continue
		}
		if err := publisher.PublishInvalidation(tag); err != nil {
			r.logger.Warn("failed to publish invalidation", zap.String("tag", string(tag)), zap.Error(err))
		}
	}
}

// Receive applies an invalidation that originated elsewhere. It is never
// forwarded again.
func (r *Registry) Receive(tag Tag) {
	r.fanOut(tag, "remote")
}

func (r *Registry) fanOut(tag Tag, origin string) {
	r.mu.RLock()
	fns := make([]func(Tag), 0, len(r.subs[tag]))
	for _, fn := range r.subs[tag] {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	metrics.InvalidationsTotal.WithLabelValues(string(tag), origin).Inc()
	r.logger.Debug("invalidating", zap.String("tag", string(tag)), zap.String("origin", origin), zap.Int("subscribers", len(fns)))

	for _, fn := range fns {
		fn(tag)
	}
}
