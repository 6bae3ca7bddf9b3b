package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	"github.com/DeBrosOfficial/noforma/pkg/entities"
	"github.com/DeBrosOfficial/noforma/pkg/httputil"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// entityRoutes mounts the CRUD routes of one entity service. Ids are
// constrained to digits so anything else is a route miss.
func entityRoutes[T any, I entities.Input](g *Gateway, svc *entities.Service[T, I]) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in I
			if err := httputil.DecodeJSON(r, &in); err != nil {
				httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			receipt, err := svc.Create(r.Context(), in)
			g.writeReceipt(w, svc.Name(), "create", receipt, err)
		})
		r.Get("/", g.withTimeout(func(w http.ResponseWriter, r *http.Request) {
			list, err := svc.List(r.Context())
			if err != nil {
				g.writeReadFailure(w, svc.Name(), "list", err)
				return
			}
			httputil.WriteSuccess(w, list)
		}))
		r.Get("/ids", g.withTimeout(func(w http.ResponseWriter, r *http.Request) {
			ids, err := svc.IDs(r.Context())
			if err != nil {
				g.writeReadFailure(w, svc.Name(), "ids", err)
				return
			}
			httputil.WriteSuccess(w, ids)
		}))

		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", g.withTimeout(func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r)
				if !ok {
					return
				}
				rec, err := svc.Get(r.Context(), id)
				if err != nil {
					g.writeReadFailure(w, svc.Name(), "get", err)
					return
				}
				httputil.WriteSuccess(w, rec)
			}))
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r)
				if !ok {
					return
				}
				var in I
				if err := httputil.DecodeJSON(r, &in); err != nil {
					httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
					return
				}
				receipt, err := svc.Update(r.Context(), id, in)
				g.writeReceipt(w, svc.Name(), "update", receipt, err)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r)
				if !ok {
					return
				}
				receipt, err := svc.Delete(r.Context(), id)
				g.writeReceipt(w, svc.Name(), "delete", receipt, err)
			})
		})
	}
}

// pathID parses the {id} parameter. The route pattern only admits digits,
// so a failure here means the value overflows uint64.
func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func (g *Gateway) writeReceipt(w http.ResponseWriter, entity, op string, receipt *contracts.Receipt, err error) {
	if err != nil {
		g.logger.ComponentWarn(logging.ComponentGateway, "Write failed",
			zap.String("entity", entity), zap.String("op", op), zap.Error(err))
		writeFailure(w, err)
		return
	}
	httputil.WriteSuccessWithFields(w, map[string]any{
		"transaction_hash": receipt.TransactionHash,
		"block_number":     receipt.BlockNumber,
		"gas_used":         receipt.GasUsed,
	})
}

func (g *Gateway) writeReadFailure(w http.ResponseWriter, entity, op string, err error) {
	g.logger.ComponentWarn(logging.ComponentGateway, "Read failed",
		zap.String("entity", entity), zap.String("op", op), zap.Error(err))
	writeFailure(w, err)
}
