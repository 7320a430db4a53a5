package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	for _, raw := range []string{
		`"2024-03-09T14:05:07Z"`,
		`"2024-03-09T14:05:07"`,
		`"2024-03-09 14:05:07"`,
		`"2024-03-09T16:05:07+02:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), raw)
	}
}

func TestTimestampNull(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestPriceAcceptsNumberOrString(t *testing.T) {
	var p struct {
		A Price `json:"a"`
		B Price `json:"b"`
		C Price `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 19.5, "b": "$24.00", "c": null}`), &p))

	assert.Equal(t, Price("19.5"), p.A)
	assert.Equal(t, Price("$24.00"), p.B)
	assert.Equal(t, Price(""), p.C)
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://cdn.shopify.com/s/files/shoe.jpg", "https://cdn.shopify.com/s/files/shoe_250x250.jpg"},
		{"https://cdn.shopify.com/s/files/shoe.png?v=123", "https://cdn.shopify.com/s/files/shoe_250x250.png?v=123"},
		{"https://images.example.com/shoe.jpg", "https://images.example.com/shoe.jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Thumbnail(tt.in), tt.in)
	}
}

func TestConversationName(t *testing.T) {
	assert.Equal(t, DefaultConversationName, ConversationName("   "))
	assert.Equal(t, "Do you ship abroad?", ConversationName("Do you ship abroad?"))
	assert.Equal(t, "What is your return...", ConversationName("What is your return policy for shoes?"))
}

func TestShortSessionID(t *testing.T) {
	assert.Equal(t, "abc", Conversation{SessionID: "abc"}.ShortSessionID())
	assert.Equal(t, "12345678...", Conversation{SessionID: "1234567890ab"}.ShortSessionID())
}

func TestConversationCloneIsDeep(t *testing.T) {
	c := Conversation{Messages: []Message{{ID: "m1", Products: []ProductSummary{{ProductID: "p1"}}}}}

	clone := c.Clone()
	clone.Messages[0].Text = "changed"
	clone.Messages[0].Products[0].Name = "changed"

	assert.Empty(t, c.Messages[0].Text)
	assert.Empty(t, c.Messages[0].Products[0].Name)
}

func TestSessionMessageExpand(t *testing.T) {
	created := NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	sm := SessionMessage{
		ID:        "pair-1",
		UserQuery: "Any boots?",
		Response:  "Here are some boots.",
		Products:  []ProductSummary{{ProductID: "p1", Name: "Boot"}},
		CreatedAt: created,
	}

	query, reply := sm.Expand()

	assert.Equal(t, Message{ID: "pair-1", Type: MessageOutgoing, Text: "Any boots?", Timestamp: created.Time}, query)
	assert.Equal(t, "pair-1:response", reply.ID)
	assert.Equal(t, MessageIncoming, reply.Type)
	assert.Equal(t, "Here are some boots.", reply.Text)
	assert.Len(t, reply.Products, 1)
}

func TestTenantFieldsRoundTrip(t *testing.T) {
	tenant := Tenant{TenantID: "t1", StoreName: "Acme", StoreURL: "https://acme.example.com"}

	fields := tenant.Input().Fields()

	assert.Equal(t, "Acme", fields["store_name"])
	assert.Equal(t, "https://acme.example.com", fields["store_url"])
	assert.Equal(t, "", fields["description"])
	assert.Len(t, fields, 4)
}

func TestPageDecodesDataKey(t *testing.T) {
	var page Page[FAQ]
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"id":"f1","question":"Q","answer":"A"}],"meta":{"total_items":7}}`), &page))

	assert.Len(t, page.Items, 1)
	assert.Equal(t, 7, page.Meta.TotalItems)
}
