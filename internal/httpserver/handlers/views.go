package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/presenter"
)

type badgeResponse struct {
	Count int    `json:"count"`
	Text  string `json:"text"`
}

func newPresenter(ctx context.Context, d deps.Deps) (*presenter.Presenter, error) {
	opts, err := d.Store.Options(ctx)
	if err != nil {
		return nil, err
	}
	p := presenter.New(opts, d.Location)
	p.Browser = d.BrowserName
	return p, nil
}

// Choices lists the quick-snooze choices for the current time.
func Choices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := newPresenter(r.Context(), d)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Choices(d.Clock.Now()))
	}
}

// Menu returns the context menu built from the contextMenu option.
func Menu(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := d.Store.Options(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		p := presenter.New(opts, d.Location)
		entries := p.ContextMenu(opts.ContextMenu, d.Clock.Now())
		if entries == nil {
			entries = []presenter.MenuEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// Badge returns the toolbar badge count; the text is empty when it is zero.
func Badge(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := newPresenter(r.Context(), d)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		items, err := d.Store.List(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		resp := badgeResponse{Count: p.Badge(items, d.Clock.Now())}
		if resp.Count > 0 {
			resp.Text = strconv.Itoa(resp.Count)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
