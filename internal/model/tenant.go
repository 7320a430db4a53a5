package model

// Tenant is a client/store account.
type Tenant struct {
	TenantID    string    `json:"tenant_id"`
	StoreName   string    `json:"store_name"`
	StoreType   string    `json:"store_type,omitempty"`
	StoreURL    string    `json:"store_url,omitempty"`
	Description string    `json:"description,omitempty"`
	IndexID     string    `json:"index_id,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

// TenantInput is the create/update tenant form.
type TenantInput struct {
	StoreName   string `json:"store_name" validate:"required,max=256"`
	Description string `json:"description"`
	StoreURL    string `json:"store_url" validate:"omitempty,url"`
	StoreType   string `json:"store_type" validate:"max=128"`
}

// Fields returns the form as a field map, the shape dialog diffing works on.
func (in TenantInput) Fields() map[string]any {
	return map[string]any{
		"store_name":  in.StoreName,
		"description": in.Description,
		"store_url":   in.StoreURL,
		"store_type":  in.StoreType,
	}
}

// Input returns the editable fields of a tenant.
func (t Tenant) Input() TenantInput {
	return TenantInput{
		StoreName:   t.StoreName,
		Description: t.Description,
		StoreURL:    t.StoreURL,
		StoreType:   t.StoreType,
	}
}
