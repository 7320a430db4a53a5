package model

// FAQLink is a source URL whose ingested content yields FAQ entries.
type FAQLink struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   Timestamp `json:"created_at"`
}

// FAQLinkInput is the create FAQ link form.
type FAQLinkInput struct {
	Name        string `json:"name" validate:"required,max=256"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description"`
}

// FAQ is a single question/answer pair.
type FAQ struct {
	ID             string  `json:"id"`
	FAQLinkID      string  `json:"faq_link_id,omitempty"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}
