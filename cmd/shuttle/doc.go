// Command shuttle is the operator CLI. It talks to a running shuttled over
// its HTTP API for queue and status operations, and runs integrity scans
// directly against the configured library root.
package main
