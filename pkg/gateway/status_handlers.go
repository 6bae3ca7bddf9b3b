package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/chain"
	"github.com/DeBrosOfficial/noforma/pkg/entities"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/httputil"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// statusHandler re-probes the active endpoint and reports connectivity and
// contract state. It never fails: an unreachable endpoint is reported as
// web3_connected=false.
func (g *Gateway) statusHandler(w http.ResponseWriter, r *http.Request) {
	ep := g.deps.Selector.Probe(r.Context())
	binding := g.deps.Registry.Current()

	networkInfo := map[string]any{}
	if ep.Live {
		if ep.Error != "" {
			networkInfo["error"] = ep.Error
		} else {
			networkInfo["network_id"] = strconv.FormatUint(ep.NetworkID, 10)
			networkInfo["latest_block"] = ep.LatestBlock
			networkInfo["gas_price"] = ep.GasPrice
			networkInfo["chain_id"] = ep.ChainID
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"web3_connected":       ep.Live,
		"active_provider":      ep.URL,
		"contract_initialized": binding.Initialized(),
		"contract_address":     binding.ContractAddress(),
		"network_info":         networkInfo,
	})
}

// healthHandler reports process liveness without touching the network.
func (g *Gateway) healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"started_at": g.startedAt,
		"uptime":     time.Since(g.startedAt).String(),
	})
}

func (g *Gateway) contractInfoHandler(w http.ResponseWriter, r *http.Request) {
	ep := g.deps.Selector.Probe(r.Context())
	binding := g.deps.Registry.Current()

	data := map[string]any{
		"contract_address":     binding.ContractAddress(),
		"from_address":         binding.FromAddress(),
		"web3_connected":       ep.Live,
		"contract_initialized": binding.Initialized(),
		"active_provider":      ep.URL,
		"network_id":           nil,
		"latest_block":         nil,
		"signer_configured":    binding.Signer != nil,
	}
	if ep.Live {
		data["network_id"] = strconv.FormatUint(ep.NetworkID, 10)
		data["latest_block"] = ep.LatestBlock
	}
	if binding.Initialized() {
		data["functions"] = chain.Functions(binding.Contract.ABI)
	}
	httputil.WriteSuccess(w, data)
}

func (g *Gateway) countsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := entities.Counts(r.Context(), g.deps.Caller)
	if err != nil {
		g.writeReadFailure(w, "counts", "get", err)
		return
	}
	httputil.WriteSuccess(w, counts)
}

// configHandler rebinds the contract from the posted fields. Absent fields
// keep their current value; nothing is persisted.
func (g *Gateway) configHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &body); err != nil || body == nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var update chain.Update
	var changed []string
	for _, field := range []struct {
		key string
		dst **string
	}{
		{"contract_address", &update.ContractAddress},
		{"private_key", &update.PrivateKey},
		{"from_address", &update.FromAddress},
	} {
		raw, ok := body[field.key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			writeFailure(w, apperrors.NewValidationError(field.key, field.key+" must be a string", nil))
			return
		}
		*field.dst = &s
		changed = append(changed, field.key)
	}
	if raw, ok := body["contract_abi"]; ok {
		abiJSON, err := chain.NormalizeABI(raw)
		if err != nil {
			writeFailure(w, apperrors.NewValidationError("contract_abi", err.Error(), nil))
			return
		}
		update.ABI = &abiJSON
		changed = append(changed, "contract_abi")
	}

	if err := g.deps.Registry.Rebind(r.Context(), update); err != nil {
		writeFailure(w, err)
		return
	}
	g.logger.ComponentInfo(logging.ComponentConfig, "Configuration updated",
		zap.Strings("fields", changed),
		zap.Bool("contract_initialized", g.deps.Registry.Current().Initialized()))
	httputil.WriteSuccessWithFields(w, map[string]any{"message": "Configuration updated"})
}
