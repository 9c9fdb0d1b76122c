// Package models defines the persistent entities of the hifi gateway.
//
// The gateway itself is stateless: catalog responses are never stored. The only
// record kept is the [LoginRun] journal, one row per execution of the
// interactive login task, whether started from the websocket bridge or the CLI.
//
// All persistent entities implement the [Model] interface providing an ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
