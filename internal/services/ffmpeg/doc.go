// Package ffmpeg wraps the external transcoder and remuxer processes. The
// core's only dependencies on them are their exit status, the existence of the
// declared output file, and (for the transcoder) a textual progress stream
// carrying time= markers.
package ffmpeg
