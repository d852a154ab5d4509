// Package surface composes the meeting room: change feed, audio capture,
// captions and the control bar.
package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gavinvoiceai/meetflow-saas/client/capture"
	"github.com/gavinvoiceai/meetflow-saas/client/chat"
	"github.com/gavinvoiceai/meetflow-saas/client/feed"
)

const noticeBuffer = 16

var ErrEmptyMessage = errors.New("message is empty")

// Feed is the subset of *feed.Subscriber the view drives.
type Feed interface {
	Open(ctx context.Context, meetingID string) error
	Close()
	Records(table string) []feed.Record
	Stale() bool
}

// Recorder is the subset of *capture.Pipeline the view drives.
type Recorder interface {
	Start(ctx context.Context) error
	Stop()
	State() capture.State
}

type Captions interface {
	Show(text string)
	Text() string
}

type Messenger interface {
	Send(ctx context.Context, meetingID, content string) (*chat.Message, error)
}

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a toast-style message for the user.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Controls is the control bar state.
type Controls struct {
	Recording    bool
	CameraOn     bool
	ChatOpen     bool
	SettingsOpen bool
}

type Deps struct {
	Feed     Feed
	Recorder Recorder
	Captions Captions
	Chat     Messenger
}

// MeetingView is one participant's meeting room. Feed inserts reach it
// through HandleInsert and HandleStale, typically wired as the feed's
// OnInsert and OnStale callbacks.
type MeetingView struct {
	meetingID string
	deps      Deps
	notices   chan Notice

	mu       sync.Mutex
	controls Controls
	joined   bool
}

func NewMeetingView(meetingID string, deps Deps) *MeetingView {
	return &MeetingView{
		meetingID: meetingID,
		deps:      deps,
		notices:   make(chan Notice, noticeBuffer),
		controls:  Controls{CameraOn: true, ChatOpen: true},
	}
}

func (v *MeetingView) MeetingID() string { return v.meetingID }

// Notices delivers toasts. When nobody reads, older notices are kept and
// newer ones dropped.
func (v *MeetingView) Notices() <-chan Notice { return v.notices }

// Join opens the change feed for the meeting.
func (v *MeetingView) Join(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.joined {
		return nil
	}
	if err := v.deps.Feed.Open(ctx, v.meetingID); err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	v.joined = true
	return nil
}

// Leave stops recording and closes the feed.
func (v *MeetingView) Leave() {
	v.mu.Lock()
	joined := v.joined
	v.joined = false
	v.controls.Recording = false
	v.mu.Unlock()

	if v.deps.Recorder != nil {
		v.deps.Recorder.Stop()
	}
	if joined {
		v.deps.Feed.Close()
	}
}

func (v *MeetingView) Controls() Controls {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controls
}

// ToggleMute starts capture when idle and stops it when recording. A
// refused microphone leaves the view muted and raises a notice.
func (v *MeetingView) ToggleMute(ctx context.Context) error {
	if v.deps.Recorder == nil {
		v.notify(NoticeError, "audio capture is not available")
		return capture.ErrMicrophoneDenied
	}

	if v.deps.Recorder.State() == capture.StateRecording {
		v.deps.Recorder.Stop()
		v.setRecording(false)
		v.notify(NoticeInfo, "Recording stopped")
		return nil
	}

	if err := v.deps.Recorder.Start(ctx); err != nil {
		v.setRecording(false)
		v.notify(NoticeError, "Could not access microphone")
		return err
	}
	v.setRecording(true)
	v.notify(NoticeInfo, "Recording started")
	return nil
}

func (v *MeetingView) ToggleCamera() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.CameraOn = !v.controls.CameraOn
	return v.controls.CameraOn
}

func (v *MeetingView) ToggleChat() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.ChatOpen = !v.controls.ChatOpen
	return v.controls.ChatOpen
}

func (v *MeetingView) ToggleSettings() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.SettingsOpen = !v.controls.SettingsOpen
	return v.controls.SettingsOpen
}

// SendMessage posts a chat message. The message shows up in Messages once
// the feed delivers it back.
func (v *MeetingView) SendMessage(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if _, err := v.deps.Chat.Send(ctx, v.meetingID, content); err != nil {
		v.notify(NoticeError, "Failed to send message")
		return err
	}
	return nil
}

// Messages is the chat list in feed arrival order.
func (v *MeetingView) Messages() []feed.Record {
	return v.deps.Feed.Records(feed.TableChatMessages)
}

func (v *MeetingView) Transcripts() []feed.Record {
	return v.deps.Feed.Records(feed.TableTranscriptions)
}

func (v *MeetingView) Caption() string {
	if v.deps.Captions == nil {
		return ""
	}
	return v.deps.Captions.Text()
}

func (v *MeetingView) Stale() bool {
	return v.deps.Feed.Stale()
}

// HandleInsert routes transcription inserts to the caption overlay.
func (v *MeetingView) HandleInsert(table string, rec feed.Record) {
	if table != feed.TableTranscriptions || rec.MeetingID != v.meetingID {
		return
	}
	if v.deps.Captions != nil {
		v.deps.Captions.Show(rec.Content)
	}
}

func (v *MeetingView) HandleStale(stale bool) {
	if stale {
		v.notify(NoticeError, "Connection lost, reconnecting")
		return
	}
	v.notify(NoticeInfo, "Reconnected")
}

// HandleResult surfaces failed transcription submissions.
func (v *MeetingView) HandleResult(res capture.Result) {
	if res.Err != nil {
		v.notify(NoticeError, "Failed to process audio")
	}
}

func (v *MeetingView) setRecording(on bool) {
	v.mu.Lock()
	v.controls.Recording = on
	v.mu.Unlock()
}

func (v *MeetingView) notify(level NoticeLevel, msg string) {
	select {
	case v.notices <- Notice{Level: level, Message: msg}:
	default:
	}
}
