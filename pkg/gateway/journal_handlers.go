package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/httputil"
	"github.com/DeBrosOfficial/noforma/pkg/journal"
)

func (g *Gateway) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	if g.deps.Journal == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "submission journal disabled")
		return
	}
	entries, err := g.deps.Journal.List(r.Context(), httputil.QueryParamInt(r, "limit", journal.DefaultListLimit))
	if err != nil {
		g.writeReadFailure(w, "transactions", "list", err)
		return
	}
	httputil.WriteSuccess(w, entries)
}

func (g *Gateway) getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	if g.deps.Journal == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "submission journal disabled")
		return
	}
	entry, err := g.deps.Journal.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeReadFailure(w, "transactions", "get", err)
		return
	}
	httputil.WriteSuccess(w, entry)
}

// txLookupHandler reports whether a transaction was mined, alongside the
// journal entry that produced it when there is one.
func (g *Gateway) txLookupHandler(w http.ResponseWriter, r *http.Request) {
	if g.deps.Lookup == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "transaction lookup unavailable")
		return
	}
	hash := chi.URLParam(r, "hash")
	status, err := g.deps.Lookup.Lookup(r.Context(), hash)
	if err != nil {
		g.writeReadFailure(w, "tx", "lookup", err)
		return
	}

	data := map[string]any{"receipt": status}
	if g.deps.Journal != nil {
		entry, err := g.deps.Journal.FindByTxHash(r.Context(), hash)
		switch {
		case err == nil:
			data["submission"] = entry
		case !apperrors.IsNotFound(err):
			g.writeReadFailure(w, "tx", "journal", err)
			return
		}
	}
	httputil.WriteSuccess(w, data)
}
