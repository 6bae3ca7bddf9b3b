// Package contracts defines the small interfaces shared between the chain
// client, the entity services, the journal and the HTTP gateway.
//
// Interfaces:
//   - Backend: the JSON-RPC surface used to talk to an Ethereum endpoint
//   - Submitter: turns a write intent into a confirmed transaction
//   - Caller: executes read-only contract functions
//   - Recorder: persists the lifecycle of every submission
//
// Concrete implementations live in pkg/chain and pkg/journal; tests
// substitute in-memory fakes.
package contracts
