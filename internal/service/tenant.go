package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/dialog"
	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
	"github.com/capitalize-ai/bot-console/internal/pagination"
	"github.com/capitalize-ai/bot-console/internal/query"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// TenantService handles the tenant list and the tenant dialogs.
type TenantService struct {
	api      TenantAPI
	cache    *query.Cache
	registry *invalidation.Registry
	notifier notify.Notifier
	logger   *logger.Logger
	onDelete func(tenantID string)

	list   *pagination.Controller
	create *dialog.CreateFlow[model.TenantInput]
	delete *dialog.DeleteFlow

	mu      sync.Mutex
	updates map[string]*dialog.UpdateFlow
}

func newTenantService(api TenantAPI, cache *query.Cache, reg *invalidation.Registry, notifier notify.Notifier, pageSize int, log *logger.Logger) *TenantService {
	s := &TenantService{
		api:      api,
		cache:    cache,
		registry: reg,
		notifier: notifier,
		logger:   log.Component("tenants"),
		list:     pagination.New(pageSize),
		updates:  make(map[string]*dialog.UpdateFlow),
	}

	s.create = dialog.NewCreateFlow(dialog.CreateOptions[model.TenantInput]{
		Notifier: notifier,
		Messages: dialog.Messages{
			Success: "Client created successfully",
			Failure: "Failed to create client",
		},
		Submit: func(ctx context.Context, in model.TenantInput) (*model.Ack, error) {
			ack, err := api.CreateTenant(ctx, in)
			if err == nil {
				reg.Invalidate(invalidation.TagTenants)
			}
			return ack, err
		},
	})

	s.delete = dialog.NewDeleteFlow(dialog.DeleteOptions{
		Notifier: notifier,
		Messages: dialog.Messages{
			Success: "Tenant deleted successfully",
			Failure: "Failed to delete tenant",
		},
		Delete: func(ctx context.Context, tenantID string) (*model.Ack, error) {
			ack, err := api.DeleteTenant(ctx, tenantID)
			if err != nil {
				return nil, err
			}
			s.forget(tenantID)
			reg.Invalidate(invalidation.TagTenants, invalidation.TagTenantDetails)
			return ack, nil
		},
	})

	return s
}

// List returns a page of tenants.
func (s *TenantService) List(ctx context.Context, q ListQuery) (*ListView[model.Tenant], error) {
	return fetchList(ctx, s.cache, "tenants", nil, invalidation.TagTenants, s.list, q, s.api.ListTenants)
}

// Pagination returns the tenant list state.
func (s *TenantService) Pagination() pagination.State {
	return s.list.State()
}

// Details returns one tenant.
func (s *TenantService) Details(ctx context.Context, tenantID string) (*model.Tenant, error) {
	key := query.Key("tenant", url.Values{"tenant_id": {tenantID}})
	return query.Fetch(ctx, s.cache, key, []invalidation.Tag{invalidation.TagTenantDetails},
		func(ctx context.Context) (*model.Tenant, error) {
			return s.api.GetTenant(ctx, tenantID)
		})
}

// Create runs the create-client dialog with in as the form.
func (s *TenantService) Create(ctx context.Context, in model.TenantInput) (dialog.Outcome, model.TenantInput) {
	s.create.Open()
	s.create.SetForm(in)
	outcome := s.create.Submit(ctx)
	return outcome, s.create.Form()
}

// Update sends the fields of form that differ from the tenant's saved state.
func (s *TenantService) Update(ctx context.Context, tenantID string, form map[string]any) (dialog.Outcome, error) {
	tenant, err := s.Details(ctx, tenantID)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}

	flow := s.updateFlow(tenantID)
	flow.Load(tenant.Input().Fields())
	flow.Open()
	flow.SetForm(form)

	outcome := flow.Submit(ctx)
	if outcome.OK() {
		s.logger.Info("tenant updated", zap.String("tenant_id", tenantID))
	}
	return outcome, nil
}

func (s *TenantService) updateFlow(tenantID string) *dialog.UpdateFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.updates[tenantID]; ok {
		return f
	}
	f := dialog.NewUpdateFlow(dialog.UpdateOptions{
		TenantID: tenantID,
		Notifier: s.notifier,
		Messages: dialog.Messages{
			Success: "Tenant updated successfully",
			Failure: "Failed to update tenant",
		},
		Submit: func(ctx context.Context, changes map[string]any) (*model.Ack, error) {
			ack, err := s.api.UpdateTenant(ctx, tenantID, changes)
			if err == nil {
				s.registry.Invalidate(invalidation.TagTenants, invalidation.TagTenantDetails)
			}
			return ack, err
		},
	})
	s.updates[tenantID] = f
	return f
}

// RequestDelete opens the delete confirmation for tenantID.
func (s *TenantService) RequestDelete(tenantID string) {
	s.delete.Request(tenantID)
}

// CancelDelete closes the delete confirmation.
func (s *TenantService) CancelDelete() {
	s.delete.Cancel()
}

// ConfirmDelete deletes tenantID if its deletion was requested.
func (s *TenantService) ConfirmDelete(ctx context.Context, tenantID string) dialog.Outcome {
	return s.delete.Confirm(ctx, tenantID)
}

// PendingDelete returns the tenant awaiting delete confirmation.
func (s *TenantService) PendingDelete() (string, bool) {
	return s.delete.Pending()
}

func (s *TenantService) forget(tenantID string) {
	s.mu.Lock()
	delete(s.updates, tenantID)
	s.mu.Unlock()
	if s.onDelete != nil {
		s.onDelete(tenantID)
	}
}
