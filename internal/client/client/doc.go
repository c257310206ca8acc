// Package client is the CLI side of the diary transport.
//
// # Overview
//
// GRPCClient talks to the diary server over gRPC with the JSON codec. It
// attaches the stored access token to every call, maps gRPC status codes
// back to the sentinel errors in internal/common and turns server streams
// into channels of models.Result. It satisfies editor.Gateway, so an edit
// session runs against the remote store unchanged.
//
// InitDatabase opens the local SQLite database that holds the session token
// and the pending-operation ledgers, applying embedded goose migrations.
//
// # Error Handling
//
// Besides the common sentinels, ErrUnavailable reports that the server
// could not be reached.
package client
