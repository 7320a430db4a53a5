package service

import (
	"context"
	"sync"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// fakeAPI is an in-memory remote API recording the calls it receives.
type fakeAPI struct {
	mu sync.Mutex

	tenants  []model.Tenant
	links    []model.FAQLink
	faqs     map[string][]model.FAQ
	products []model.Product
	sessions []model.Session
	history  map[string][]model.SessionMessage

	calls     map[string]int
	params    map[string][]model.ListParams
	updates   []map[string]any
	feeds     []model.ProductFeedRequest
	createErr error
	deleteErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		faqs:    make(map[string][]model.FAQ),
		history: make(map[string][]model.SessionMessage),
		calls:   make(map[string]int),
		params:  make(map[string][]model.ListParams),
	}
}

func (f *fakeAPI) record(op string, p *model.ListParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if p != nil {
		f.params[op] = append(f.params[op], *p)
	}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) lastParams(op string) model.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	ps := f.params[op]
	if len(ps) == 0 {
		return model.ListParams{}
	}
	return ps[len(ps)-1]
}

func paginate[T any](all []T, p model.ListParams) *model.Page[T] {
	start := (p.Page - 1) * p.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	return &model.Page[T]{Items: append([]T{}, all[start:end]...), Meta: model.Meta{TotalItems: len(all)}}
}

func (f *fakeAPI) ListTenants(_ context.Context, p model.ListParams) (*model.Page[model.Tenant], error) {
	f.record("list_tenants", &p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.tenants, p), nil
}

func (f *fakeAPI) GetTenant(_ context.Context, tenantID string) (*model.Tenant, error) {
	f.record("get_tenant", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.TenantID == tenantID {
			return &t, nil
		}
	}
	return &model.Tenant{TenantID: tenantID}, nil
}

func (f *fakeAPI) CreateTenant(_ context.Context, in model.TenantInput) (*model.Ack, error) {
	f.record("create_tenant", nil)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	f.tenants = append(f.tenants, model.Tenant{TenantID: in.StoreName, StoreName: in.StoreName})
	f.mu.Unlock()
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) UpdateTenant(_ context.Context, tenantID string, changes map[string]any) (*model.Ack, error) {
	f.record("update_tenant", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, changes)
	for i := range f.tenants {
		if f.tenants[i].TenantID != tenantID {
			continue
		}
		if v, ok := changes["store_name"].(string); ok {
			f.tenants[i].StoreName = v
		}
	}
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) DeleteTenant(_ context.Context, tenantID string) (*model.Ack, error) {
	f.record("delete_tenant", nil)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) ListFAQLinks(_ context.Context, _ string, p model.ListParams) (*model.Page[model.FAQLink], error) {
	f.record("list_faq_links", &p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.links, p), nil
}

func (f *fakeAPI) CreateFAQLink(_ context.Context, tenantID string, in model.FAQLinkInput) (*model.Ack, error) {
	f.record("create_faq_link", nil)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	f.links = append(f.links, model.FAQLink{ID: in.Name, TenantID: tenantID, Name: in.Name, URL: in.URL})
	f.mu.Unlock()
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) DeleteFAQLink(context.Context, string) (*model.Ack, error) {
	f.record("delete_faq_link", nil)
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) ListFAQs(_ context.Context, linkID string, p model.ListParams) (*model.Page[model.FAQ], error) {
	f.record("list_faqs", &p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.faqs[linkID], p), nil
}

func (f *fakeAPI) SearchFAQs(context.Context, string, string) ([]model.FAQ, error) {
	f.record("search_faqs", nil)
	return []model.FAQ{{ID: "f1", Question: "Returns?", Answer: "30 days"}}, nil
}

func (f *fakeAPI) ListProducts(_ context.Context, _ string, p model.ListParams) (*model.Page[model.Product], error) {
	f.record("list_products", &p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.products, p), nil
}

func (f *fakeAPI) FetchProductFeed(_ context.Context, _ string, feed model.ProductFeedRequest) (*model.Ack, error) {
	f.record("fetch_product_feed", nil)
	f.mu.Lock()
	f.feeds = append(f.feeds, feed)
	f.mu.Unlock()
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) DeleteProducts(context.Context, string) (*model.Ack, error) {
	f.record("delete_products", nil)
	return &model.Ack{Success: true}, nil
}

func (f *fakeAPI) SearchProducts(context.Context, string, string) ([]model.Product, error) {
	f.record("search_products", nil)
	return []model.Product{{ProductID: "p1", Name: "Boot"}}, nil
}

func (f *fakeAPI) ListSessions(_ context.Context, _ string, page, pageSize int) (*model.Page[model.Session], error) {
	p := model.ListParams{Page: page, PageSize: pageSize}
	f.record("list_sessions", &p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.sessions, p), nil
}

func (f *fakeAPI) CreateMessage(_ context.Context, req model.ChatRequest, sessionID string) (*model.ChatReply, error) {
	f.record("create_message", nil)
	if sessionID == "" {
		sessionID = "S-new"
	}
	return &model.ChatReply{SessionID: sessionID, MessageID: "m1", UserQuery: req.UserQuery, Response: "ok"}, nil
}

func (f *fakeAPI) SessionMessages(_ context.Context, sessionID string, page, pageSize int) (*model.Page[model.SessionMessage], error) {
	p := model.ListParams{Page: page, PageSize: pageSize}
	f.record("session_messages", &p)
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.history[sessionID], p), nil
}
