package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gavinvoiceai/meetflow-saas/client/caption"
	"github.com/gavinvoiceai/meetflow-saas/client/capture"
	"github.com/gavinvoiceai/meetflow-saas/client/feed"
	"github.com/gavinvoiceai/meetflow-saas/client/surface"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/audio"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/output"
)

const historyLimit = 20

func NewJoinCmd(deps *Dependencies) *cobra.Command {
	var audioSrc string

	cmd := &cobra.Command{
		Use:   "join <meetingId>",
		Short: "Join a meeting with live chat and captions",
		Long: `Join a meeting. Chat messages and captions stream to the terminal and
each typed line is sent as a chat message.

Audio sources for --audio:
  ffmpeg   capture the default microphone through ffmpeg
  -        read a WebM audio stream from stdin (chat input is disabled)
  <path>   read audio from a file

Examples:
  meetctl join V1StGXR8_Z
  meetctl join V1StGXR8_Z --audio ffmpeg
  ffmpeg -f pulse -i default -c:a libopus -f webm - | meetctl join V1StGXR8_Z --audio -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJoin(ctx, stop, deps, args[0], audioSrc)
		},
	}

	cmd.Flags().StringVar(&audioSrc, "audio", "", "Audio source: ffmpeg, - for stdin, or a file path")

	return cmd
}

func runJoin(ctx context.Context, stop context.CancelFunc, deps *Dependencies, meetingID, audioSrc string) error {
	a := deps.App
	out := formatter(deps)

	d := a.Gate.Check(ctx)
	if !d.Allowed() {
		return errNotSignedIn
	}
	self := d.Session.User.ID

	m, err := a.Meetings.FetchMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	history, err := a.Chat.History(ctx, m.MeetingID, historyLimit)
	if err != nil {
		out.Warning("chat history unavailable")
	}

	var view *surface.MeetingView
	overlay := caption.New(caption.WithHold(a.Config.CaptionHold), caption.OnChange(out.Caption))
	sub := feed.NewSubscriber(a.Config.ChatURL, a.Session,
		feed.OnInsert(func(table string, rec feed.Record) {
			if table == feed.TableChatMessages {
				out.ChatMessage(rec, self)
			}
			view.HandleInsert(table, rec)
		}),
		feed.OnStale(func(stale bool) { view.HandleStale(stale) }),
	)

	var pipeline *capture.Pipeline
	viewDeps := surface.Deps{Feed: sub, Captions: overlay, Chat: a.Chat}
	if audioSrc != "" {
		pipeline = capture.NewPipeline(microphone(deps, audioSrc), a.Transcriber, a.Session, m.MeetingID,
			capture.WithSliceInterval(a.Config.SliceInterval),
			capture.WithFramer(capture.NewWebMFramer()),
			capture.OnResult(func(r capture.Result) { view.HandleResult(r) }),
		)
		viewDeps.Recorder = pipeline
	}
	view = surface.NewMeetingView(m.MeetingID, viewDeps)

	out.MeetingJoined(m)
	for _, msg := range history {
		out.ChatMessage(feed.Record(msg), self)
	}

	if err := view.Join(ctx); err != nil {
		return err
	}
	defer func() {
		view.Leave()
		if pipeline != nil {
			pipeline.Wait()
		}
	}()

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for {
			select {
			case <-ctx.Done():
				drainNotices(view, out)
				return
			case n := <-view.Notices():
				out.Notice(n)
			}
		}
	}()

	if pipeline != nil {
		_ = view.ToggleMute(ctx)
	}

	if audioSrc != "-" {
		go readChat(ctx, stop, deps.In, view)
	}

	<-ctx.Done()
	<-printed
	return nil
}

// drainNotices prints notices raised before leaving, such as the result of
// a /mute typed just ahead of /quit.
func drainNotices(view *surface.MeetingView, out *output.Formatter) {
	for {
		select {
		case n := <-view.Notices():
			out.Notice(n)
		default:
			return
		}
	}
}

// readChat sends each typed line. /mute toggles capture and /quit leaves.
func readChat(ctx context.Context, stop context.CancelFunc, in io.Reader, view *surface.MeetingView) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			stop()
			return
		case "/mute":
			_ = view.ToggleMute(ctx)
			continue
		}
		if err := view.SendMessage(ctx, line); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
	stop()
}

func microphone(deps *Dependencies, src string) capture.Microphone {
	switch src {
	case "-":
		return capture.ReaderMicrophone{R: io.NopCloser(deps.In)}
	case "ffmpeg":
		return audio.FFmpegMicrophone{Input: deps.App.Config.FFmpegInput, Device: deps.App.Config.FFmpegDevice}
	default:
		return capture.MicrophoneFunc(func(context.Context) (io.ReadCloser, error) {
			f, err := os.Open(src)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", capture.ErrMicrophoneDenied, err)
			}
			return f, nil
		})
	}
}
