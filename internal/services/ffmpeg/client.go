package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the external transcoder (ffmpeg) and remuxer (mkvmerge).
type Client struct {
	tools   config.Tools
	convert config.Convert
	exec    Executor
	logger  *slog.Logger
}

// New constructs a client using the configured tool names and convert policy.
func New(tools config.Tools, convert config.Convert, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		tools:   tools,
		convert: convert,
		exec:    commandExecutor{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TranscodeAudio extracts the audio track at streamIndex (ffprobe's global
// stream index, mapped explicitly so ffmpeg's "best audio" selection never
// picks a different track) and re-encodes it into the target codec and
// channel layout at output. durationSeconds scales the parsed ffmpeg progress
// stream into a percentage. A non-zero exit or a missing output file is a
// hard failure.
func (c *Client) TranscodeAudio(ctx context.Context, input, output string, streamIndex int, durationSeconds float64, background bool, progress func(string)) error {
	args := []string{
		"-y", "-i", input,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn",
		"-c:a", c.convert.TargetCodec,
		"-compression_level", strconv.Itoa(c.convert.CompressionLevel),
		"-channel_layout", c.convert.TargetLayout,
		"-ac", strconv.Itoa(channelsForLayout(c.convert.TargetLayout)),
	}
	if filter := upmixFilter(c.convert.SourceLayout, c.convert.TargetLayout); filter != "" {
		args = append(args, "-af", filter)
	}
	args = append(args, "-loglevel", "warning", "-stats", output)

	binary, argv := c.withPriority(background, c.tools.FFmpeg, args)

	var stderrTail []string
	code, err := c.exec.Run(ctx, binary, argv, func(line string) {
		if percent, ok := ParseProgress(line, durationSeconds); ok {
			if progress != nil {
				progress(fmt.Sprintf("Converting: %.1f%%", percent))
			}
			return
		}
		stderrTail = appendTail(stderrTail, line)
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcode", "", err)
	}
	if code != 0 {
		return services.Wrap(services.ErrExternalTool, "transcode",
			fmt.Sprintf("ffmpeg exited with status %d", code), errors.New(strings.Join(stderrTail, "; ")))
	}
	if _, err := os.Stat(output); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcode", "output file was not created", err)
	}
	return nil
}

// Remux splices the encoded audio file into the original container at output.
// keepAudioTracks lists the original container's audio track IDs to carry
// over; tracks of the target codec family are expected to be excluded by the
// caller. The IDs are mkvmerge track IDs: mkvmerge numbers tracks in
// container order, which for Matroska input matches ffprobe's global stream
// indexes, so callers may pass probed indexes directly. The new track comes
// first and is flagged as the default audio track. mkvmerge exit status 1
// means warnings and is treated as success.
func (c *Client) Remux(ctx context.Context, original, audioTrack, output string, keepAudioTracks []int, background bool) error {
	args := []string{
		"-o", output,
		"--default-track-flag", "0:yes",
		"--track-name", "0:" + c.convert.TrackTitle,
		"--language", "0:" + c.convert.TrackLanguage,
		audioTrack,
	}
	if len(keepAudioTracks) == 0 {
		args = append(args, "--no-audio")
	} else {
		ids := make([]string, len(keepAudioTracks))
		for i, id := range keepAudioTracks {
			ids[i] = strconv.Itoa(id)
		}
		args = append(args, "--audio-tracks", strings.Join(ids, ","))
	}
	args = append(args, original)

	binary, argv := c.withPriority(background, c.tools.MKVMerge, args)

	var tail []string
	code, err := c.exec.Run(ctx, binary, argv, func(line string) {
		tail = appendTail(tail, line)
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "remux", "", err)
	}
	switch code {
	case 0:
	case 1:
		c.logger.Warn("mkvmerge finished with warnings",
			logging.String("output", output),
			logging.String("detail", strings.Join(tail, "; ")),
		)
	default:
		return services.Wrap(services.ErrExternalTool, "remux",
			fmt.Sprintf("mkvmerge exited with status %d", code), errors.New(strings.Join(tail, "; ")))
	}
	if _, err := os.Stat(output); err != nil {
		return services.Wrap(services.ErrExternalTool, "remux", "output file was not created", err)
	}
	return nil
}

func (c *Client) withPriority(background bool, binary string, args []string) (string, []string) {
	if !background {
		return binary, args
	}
	argv := []string{"-c3", c.tools.Nice, "-n19", binary}
	return c.tools.Ionice, append(argv, args...)
}

// channelsForLayout maps the channel layouts this tool is asked to produce to
// their channel counts.
func channelsForLayout(layout string) int {
	switch layout {
	case "7.1":
		return 8
	case "5.1", "5.1(side)":
		return 6
	case "stereo":
		return 2
	default:
		return 8
	}
}

// upmixFilter returns the pan filter for the supported layout conversions.
// The 5.1(side) to 7.1 upmix duplicates the side channels into the back pair.
func upmixFilter(source, target string) string {
	if source == "5.1(side)" && target == "7.1" {
		return "pan=7.1|FL=FL|FR=FR|FC=FC|LFE=LFE|BL=SL|BR=SR|SL=SL|SR=SR"
	}
	return ""
}

func appendTail(tail []string, line string) []string {
	const limit = 5
	tail = append(tail, line)
	if len(tail) > limit {
		tail = tail[len(tail)-limit:]
	}
	return tail
}
