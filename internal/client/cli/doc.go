// Package cli is the diary command-line client.
//
// It wires configuration, the local SQLite database, the session token,
// S3 image storage and the gRPC client into cobra commands. Every command
// that changes an entry goes through an editor session, so images are
// uploaded and retired the same way for all of them.
//
// Commands:
//   - register, login, logout, ping
//   - list [--date], watch [--date]
//   - write, edit <id>, show <id>, delete <id>, delete-all
//   - retry (finish pending image transfers)
package cli
