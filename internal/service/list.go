package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/pagination"
	"github.com/capitalize-ai/bot-console/internal/query"
)

// ErrUnknownList is returned for a list name the console does not keep.
var ErrUnknownList = errors.New("unknown list")

// ListView is one page of a list together with its pagination state.
type ListView[T any] struct {
	Items      []T              `json:"items"`
	Pagination pagination.State `json:"pagination"`
}

// ListQuery is a navigation request against a list. A changed Search wins
// over Page, since changing the search resets the page.
type ListQuery struct {
	Page   int
	Search *string
}

// Apply moves ctrl according to q.
func (q ListQuery) Apply(ctrl *pagination.Controller) error {
	if q.Search != nil && *q.Search != ctrl.Search() {
		ctrl.SetSearch(*q.Search)
		return nil
	}
	if q.Page > 0 {
		return ctrl.SetPage(q.Page)
	}
	return nil
}

// fetchList reads the controller's current page through the cache and
// records the reported total on the controller.
func fetchList[T any](
	ctx context.Context,
	cache *query.Cache,
	operation string,
	scope url.Values,
	tag invalidation.Tag,
	ctrl *pagination.Controller,
	q ListQuery,
	fn func(context.Context, model.ListParams) (*model.Page[T], error),
) (*ListView[T], error) {
	if err := q.Apply(ctrl); err != nil {
		return nil, err
	}
	params := ctrl.Params()

	key := mergeValues(scope, "page", strconv.Itoa(params.Page), "page_size", strconv.Itoa(params.PageSize))
	if params.Search != "" {
		key.Set("search", params.Search)
	}

	page, err := query.Fetch(ctx, cache, query.Key(operation, key), []invalidation.Tag{tag},
		func(ctx context.Context) (*model.Page[T], error) {
			return fn(ctx, params)
		})
	if err != nil {
		return nil, err
	}

	ctrl.SetTotal(page.Meta.TotalItems)
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return &ListView[T]{Items: items, Pagination: ctrl.State()}, nil
}

// mergeValues copies base and sets the given key/value pairs on the copy.
func mergeValues(base url.Values, kv ...string) url.Values {
	out := make(url.Values, len(base)+len(kv)/2)
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out.Set(kv[i], kv[i+1])
	}
	return out
}
