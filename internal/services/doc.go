// Package services holds the error taxonomy shared by operation handlers and
// the clients for external collaborators (Radarr catalog, ffmpeg-family
// processes) in its subpackages.
package services
