package chain

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// RecordContractABI describes the record contract the gateway fronts.
// Single getters return positional tuples; list getters return one array
// per field, index-aligned.
const RecordContractABI = `[
{"type":"function","name":"createKnowledgeBase","stateMutability":"nonpayable","inputs":[{"name":"_title","type":"string"},{"name":"_group","type":"string"},{"name":"_content","type":"string"}],"outputs":[]},
{"type":"function","name":"updateKnowledgeBase","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"},{"name":"_title","type":"string"},{"name":"_group","type":"string"},{"name":"_content","type":"string"}],"outputs":[]},
{"type":"function","name":"deleteKnowledgeBase","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
{"type":"function","name":"getKnowledgeBase","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"string"},{"name":"","type":"string"},{"name":"","type":"string"}]},
{"type":"function","name":"getAllKnowledgeBase","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"}]},
{"type":"function","name":"getAllKnowledgeBaseIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
{"type":"function","name":"createCustomer","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_email","type":"string"},{"name":"_phone","type":"string"}],"outputs":[]},
{"type":"function","name":"updateCustomer","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"},{"name":"_name","type":"string"},{"name":"_email","type":"string"},{"name":"_phone","type":"string"}],"outputs":[]},
{"type":"function","name":"deleteCustomer","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
{"type":"function","name":"getCustomer","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"string"},{"name":"","type":"string"},{"name":"","type":"string"}]},
{"type":"function","name":"getAllCustomers","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"}]},
{"type":"function","name":"getAllCustomerIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
{"type":"function","name":"createProject","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_customer","type":"string"},{"name":"_status","type":"string"},{"name":"_details","type":"string"}],"outputs":[]},
{"type":"function","name":"updateProject","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"},{"name":"_name","type":"string"},{"name":"_customer","type":"string"},{"name":"_status","type":"string"},{"name":"_details","type":"string"}],"outputs":[]},
{"type":"function","name":"deleteProject","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
{"type":"function","name":"getProject","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"string"},{"name":"","type":"string"},{"name":"","type":"string"},{"name":"","type":"string"}]},
{"type":"function","name":"getAllProjectsWithCustomerInformation","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"},{"name":"","type":"string[]"}]},
{"type":"function","name":"getAllProjectIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
{"type":"function","name":"getCounts","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"uint256"}]}
]`

// ParseABI parses a JSON interface description.
func ParseABI(raw string) (abi.ABI, error) {
	if strings.TrimSpace(raw) == "" {
		return abi.ABI{}, fmt.Errorf("empty ABI")
	}
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("invalid ABI: %w", err)
	}
	return parsed, nil
}

// LoadABI returns the ABI text from path, or the built-in record contract ABI
// when path is empty.
func LoadABI(path string) (string, error) {
	if path == "" {
		return RecordContractABI, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read ABI file %s: %w", path, err)
	}
	return NormalizeABI(data)
}

// NormalizeABI accepts an ABI either as a JSON array or as a JSON string
// containing the array, and returns the array text. Truffle/Hardhat
// artifacts ({"abi": [...]}) are unwrapped too.
func NormalizeABI(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, "["):
		return trimmed, nil
	case strings.HasPrefix(trimmed, `"`):
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return "", fmt.Errorf("invalid ABI string: %w", err)
		}
		return NormalizeABI(json.RawMessage(inner))
	case strings.HasPrefix(trimmed, "{"):
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(raw, &artifact); err != nil || len(artifact.ABI) == 0 {
			return "", fmt.Errorf("ABI object has no \"abi\" field")
		}
		return NormalizeABI(artifact.ABI)
	default:
		return "", fmt.Errorf("ABI must be a JSON array or string")
	}
}

// FunctionKind classifies a contract function.
type FunctionKind string

const (
	KindCall        FunctionKind = "call"
	KindTransaction FunctionKind = "transaction"
)

// FunctionInfo summarises one function of a parsed ABI.
type FunctionInfo struct {
	Name      string       `json:"name"`
	Signature string       `json:"signature"`
	Kind      FunctionKind `json:"kind"`
}

// Functions lists the functions of parsed, read-only ones first, each group
// in name order.
func Functions(parsed abi.ABI) []FunctionInfo {
	out := make([]FunctionInfo, 0, len(parsed.Methods))
	for _, m := range parsed.Methods {
		kind := KindTransaction
		if m.IsConstant() {
			kind = KindCall
		}
		out = append(out, FunctionInfo{Name: m.Name, Signature: m.Sig, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == KindCall
		}
		return out[i].Name < out[j].Name
	})
	return out
}
