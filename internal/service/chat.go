package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/query"
)

// Sessions returns a page of the tenant's server-side chat sessions. Every
// listed session becomes selectable in the conversation list; its history is
// loaded when it is selected.
func (w *Workspace) Sessions(ctx context.Context, page int) (*model.Page[model.Session], error) {
	if page < 1 {
		page = 1
	}
	params := model.ListParams{Page: page, PageSize: w.sessionPageSize}
	key := query.Key("sessions", mergeValues(w.scope, "page", strconv.Itoa(page)))
	res, err := query.Fetch(ctx, w.cache, key, []invalidation.Tag{invalidation.TagSessions},
		func(ctx context.Context) (*model.Page[model.Session], error) {
			return w.api.ListSessions(ctx, w.tenantID, params.Page, params.PageSize)
		})
	if err != nil {
		return nil, err
	}
	for _, s := range res.Items {
		if _, err := w.chat.TrackSession(s); err != nil {
			w.logger.Warn("skipping session without id", zap.Error(err))
		}
	}
	return res, nil
}

// OpenSession lists a server session and selects it. The returned
// conversation has Loaded unset until the history load triggered by the
// selection completes.
func (w *Workspace) OpenSession(sessionID string) (model.Conversation, error) {
	conv, err := w.chat.TrackSession(model.Session{SessionID: sessionID})
	if err != nil {
		return model.Conversation{}, fmt.Errorf("open session: %w", err)
	}
	if err := w.chat.SelectConversation(conv.ID); err != nil {
		return model.Conversation{}, fmt.Errorf("open session: %w", err)
	}
	return conv, nil
}
