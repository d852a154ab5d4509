package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/gavinvoiceai/meetflow-saas/client/capture"
)

// FFmpegMicrophone captures the default input device as a WebM/Opus
// stream on ffmpeg's stdout. Clusters are kept to a second so that a slice
// boundary never waits long for one to finish.
type FFmpegMicrophone struct {
	Input  string // ffmpeg input format, e.g. pulse, alsa, avfoundation
	Device string
}

func (m FFmpegMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found", capture.ErrMicrophoneDenied)
	}

	cmd := exec.Command("ffmpeg",
		"-loglevel", "error",
		"-f", m.Input,
		"-i", m.Device,
		"-ac", "1",
		"-ar", "48000",
		"-c:a", "libopus",
		"-cluster_time_limit", "1000",
		"-f", "webm",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrMicrophoneDenied, err)
	}
	return &process{ReadCloser: stdout, cmd: cmd}, nil
}

type process struct {
	io.ReadCloser
	cmd *exec.Cmd
}

// Close stops ffmpeg and reaps it.
func (p *process) Close() error {
	_ = p.cmd.Process.Kill()
	_ = p.ReadCloser.Close()
	_ = p.cmd.Wait()
	return nil
}
