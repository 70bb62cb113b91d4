// Package radarr implements the catalog client: after a successful transform
// the operation handlers use it to repoint the movie record and trigger a
// remote rescan. Failures here never roll back a locally verified transfer.
package radarr
