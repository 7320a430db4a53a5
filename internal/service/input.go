package service

// TypeSearch feeds keystrokes into a list's search box. Product search is
// debounced; other lists apply the text right away.
func (c *Console) TypeSearch(tenantID, list, text string) error {
	w := c.Workspace(tenantID)
	switch list {
	case ListProducts:
		w.TypeProductSearch(text)
		return nil
	case ListFAQLinks:
		w.faqLinks.SetSearch(text)
		w.announceSearch(list, text)
		return nil
	default:
		return ErrUnknownList
	}
}

// SubmitSearch applies a list's search text immediately.
func (c *Console) SubmitSearch(tenantID, list, text string) error {
	w := c.Workspace(tenantID)
	switch list {
	case ListProducts:
		w.SubmitProductSearch(text)
		return nil
	case ListFAQLinks:
		w.faqLinks.SetSearch(text)
		w.announceSearch(list, text)
		return nil
	default:
		return ErrUnknownList
	}
}

// SelectConversation selects a conversation of a tenant.
func (c *Console) SelectConversation(tenantID, conversationID string) error {
	return c.Workspace(tenantID).Chat().SelectConversation(conversationID)
}
