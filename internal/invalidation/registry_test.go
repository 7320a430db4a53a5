package invalidation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/bot-console/pkg/logger"
)

type fakePublisher struct {
	tags []Tag
	err  error
}

func (p *fakePublisher) PublishInvalidation(tag Tag) error {
	p.tags = append(p.tags, tag)
	return p.err
}

func TestInvalidateNotifiesSubscribersOfTag(t *testing.T) {
	reg := NewRegistry(logger.NewNop())
	var tenants, products int
	reg.Subscribe(TagTenants, func(Tag) { tenants++ })
	reg.Subscribe(TagProducts, func(Tag) { products++ })

	reg.Invalidate(TagTenants, TagTenantDetails)

	assert.Equal(t, 1, tenants)
	assert.Zero(t, products)
}

func TestSubscribeCancel(t *testing.T) {
	reg := NewRegistry(logger.NewNop())
	calls := 0
	cancel := reg.Subscribe(TagFAQLinks, func(Tag) { calls++ })

	cancel()
	cancel()
	reg.Invalidate(TagFAQLinks)

	assert.Zero(t, calls)
}

func TestInvalidateForwardsToPublisher(t *testing.T) {
	reg := NewRegistry(logger.NewNop())
	pub := &fakePublisher{err: errors.New("nats down")}
	reg.SetPublisher(pub)
	calls := 0
	reg.Subscribe(TagSessions, func(Tag) { calls++ })

	reg.Invalidate(TagSessions)

	assert.Equal(t, []Tag{TagSessions}, pub.tags)
	assert.Equal(t, 1, calls, "publisher errors do not block local delivery")
}

func TestReceiveIsNotForwarded(t *testing.T) {
	reg := NewRegistry(logger.NewNop())
	pub := &fakePublisher{}
	reg.SetPublisher(pub)
	var got []Tag
	reg.Subscribe(TagProducts, func(tag Tag) { got = append(got, tag) })

	reg.Receive(TagProducts)

	assert.Equal(t, []Tag{TagProducts}, got)
	assert.Empty(t, pub.tags)
}
