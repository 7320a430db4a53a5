package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/chat"
	"github.com/capitalize-ai/bot-console/internal/dialog"
	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/pagination"
	"github.com/capitalize-ai/bot-console/internal/service"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// parseListQuery reads ?page and ?search.
func parseListQuery(r *http.Request) (service.ListQuery, error) {
	var q service.ListQuery
	values := r.URL.Query()
	if p := values.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return q, errors.New("page must be a positive integer")
		}
		q.Page = n
	}
	if values.Has("search") {
		search := values.Get("search")
		if err := middleware.ValidateSearch(search); err != nil {
			return q, err
		}
		q.Search = &search
	}
	return q, nil
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	var apiErr *apiclient.Error
	switch {
	case errors.Is(err, pagination.ErrPageOutOfRange), errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrConversationNotFound), errors.Is(err, service.ErrUnknownList):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrSendInFlight):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		if apiErr.Kind == apiclient.KindBusiness && apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageOf returns the text shown to the operator for err.
func messageOf(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiclient.MessageOf(err, fallback)
	}
	return err.Error()
}

// dialogResponse reports a dialog submission and the dialog state after it.
type dialogResponse struct {
	Outcome dialog.Outcome `json:"outcome"`
	Form    interface{}    `json:"form,omitempty"`
}

// outcomeStatus maps a dialog outcome to an HTTP status.
func outcomeStatus(o dialog.Outcome, success int) int {
	switch o.Status {
	case dialog.StatusSucceeded:
		return success
	case dialog.StatusNoChanges:
		return http.StatusOK
	case dialog.StatusInvalid:
		return http.StatusUnprocessableEntity
	case dialog.StatusRejected:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// deleteState reports the state of a delete confirmation dialog.
type deleteState struct {
	Pending string `json:"pending,omitempty"`
	Open    bool   `json:"open"`
}
