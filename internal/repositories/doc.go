// Package repositories implements SQLite persistence for the login run journal.
//
// Key Implementations:
//   - [LoginRunRepository] : one row per login task execution, newest first in listings
//
// The repository also satisfies the journal interface the login bridge records runs through,
// via [LoginRunRepository.Start] and [LoginRunRepository.Finish].
package repositories
