package surface

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinvoiceai/meetflow-saas/client/caption"
	"github.com/gavinvoiceai/meetflow-saas/client/capture"
	"github.com/gavinvoiceai/meetflow-saas/client/chat"
	"github.com/gavinvoiceai/meetflow-saas/client/feed"
)

type fakeFeed struct {
	opened  []string
	closed  int
	records map[string][]feed.Record
	stale   bool
}

func (f *fakeFeed) Open(_ context.Context, meetingID string) error {
	f.opened = append(f.opened, meetingID)
	return nil
}

func (f *fakeFeed) Close()                             { f.closed++ }
func (f *fakeFeed) Records(table string) []feed.Record { return f.records[table] }
func (f *fakeFeed) Stale() bool                        { return f.stale }

type fakeRecorder struct {
	state    capture.State
	startErr error
	starts   int
	stops    int
}

func (r *fakeRecorder) Start(context.Context) error {
	r.starts++
	if r.startErr != nil {
		return r.startErr
	}
	r.state = capture.StateRecording
	return nil
}

func (r *fakeRecorder) Stop() {
	r.stops++
	r.state = capture.StateIdle
}

func (r *fakeRecorder) State() capture.State { return r.state }

type fakeMessenger struct {
	sent []string
	err  error
}

func (m *fakeMessenger) Send(_ context.Context, meetingID, content string) (*chat.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, meetingID+":"+content)
	return &chat.Message{MeetingID: meetingID, Content: content}, nil
}

func drain(v *MeetingView) []Notice {
	var out []Notice
	for {
		select {
		case n := <-v.Notices():
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestToggleMuteStartsAndStopsCapture(t *testing.T) {
	rec := &fakeRecorder{}
	v := NewMeetingView("m1", Deps{Feed: &fakeFeed{}, Recorder: rec})

	assert.False(t, v.Controls().Recording)
	require.NoError(t, v.ToggleMute(context.Background()))
	assert.True(t, v.Controls().Recording)
	assert.Equal(t, 1, rec.starts)

	require.NoError(t, v.ToggleMute(context.Background()))
	assert.False(t, v.Controls().Recording)
	assert.Equal(t, 1, rec.stops)

	notices := drain(v)
	require.Len(t, notices, 2)
	assert.Equal(t, "Recording started", notices[0].Message)
	assert.Equal(t, "Recording stopped", notices[1].Message)
}

func TestToggleMuteDeniedMicrophone(t *testing.T) {
	rec := &fakeRecorder{startErr: capture.ErrMicrophoneDenied}
	v := NewMeetingView("m1", Deps{Feed: &fakeFeed{}, Recorder: rec})

	err := v.ToggleMute(context.Background())
	assert.ErrorIs(t, err, capture.ErrMicrophoneDenied)
	assert.False(t, v.Controls().Recording)

	notices := drain(v)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
}

func TestPanelToggles(t *testing.T) {
	v := NewMeetingView("m1", Deps{Feed: &fakeFeed{}})

	c := v.Controls()
	assert.True(t, c.CameraOn)
	assert.True(t, c.ChatOpen)
	assert.False(t, c.SettingsOpen)

	assert.False(t, v.ToggleCamera())
	assert.False(t, v.ToggleChat())
	assert.True(t, v.ToggleSettings())
	assert.True(t, v.ToggleCamera())
}

func TestTranscriptInsertDrivesCaption(t *testing.T) {
	overlay := caption.New(caption.WithHold(time.Hour))
	v := NewMeetingView("m1", Deps{Feed: &fakeFeed{}, Captions: overlay})

	v.HandleInsert(feed.TableChatMessages, feed.Record{MeetingID: "m1", Content: "chat"})
	assert.Empty(t, v.Caption())

	v.HandleInsert(feed.TableTranscriptions, feed.Record{MeetingID: "other", Content: "nope"})
	assert.Empty(t, v.Caption())

	v.HandleInsert(feed.TableTranscriptions, feed.Record{MeetingID: "m1", Content: "hello all"})
	assert.Equal(t, "hello all", v.Caption())
}

func TestJoinLeaveAndMessages(t *testing.T) {
	f := &fakeFeed{records: map[string][]feed.Record{
		feed.TableChatMessages: {{ID: "1", Content: "a"}, {ID: "2", Content: "b"}},
	}}
	rec := &fakeRecorder{}
	v := NewMeetingView("m1", Deps{Feed: f, Recorder: rec})

	require.NoError(t, v.Join(context.Background()))
	require.NoError(t, v.Join(context.Background()))
	assert.Equal(t, []string{"m1"}, f.opened)

	msgs := v.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Content)
	assert.Empty(t, v.Transcripts())

	v.Leave()
	assert.Equal(t, 1, f.closed)
	assert.Equal(t, 1, rec.stops)
}

func TestSendMessage(t *testing.T) {
	m := &fakeMessenger{}
	v := NewMeetingView("m1", Deps{Feed: &fakeFeed{}, Chat: m})

	assert.ErrorIs(t, v.SendMessage(context.Background(), "   "), ErrEmptyMessage)
	require.NoError(t, v.SendMessage(context.Background(), " hi "))
	assert.Equal(t, []string{"m1:hi"}, m.sent)

	m.err = errors.New("down")
	require.Error(t, v.SendMessage(context.Background(), "again"))
	notices := drain(v)
	require.Len(t, notices, 1)
	assert.Equal(t, "Failed to send message", notices[0].Message)
}

func TestStaleAndResultNotices(t *testing.T) {
	f := &fakeFeed{stale: true}
	v := NewMeetingView("m1", Deps{Feed: f})
	assert.True(t, v.Stale())

	v.HandleStale(true)
	v.HandleStale(false)
	v.HandleResult(capture.Result{Seq: 1, Text: "ok"})
	v.HandleResult(capture.Result{Seq: 2, Err: errors.New("500")})

	notices := drain(v)
	require.Len(t, notices, 3)
	assert.Equal(t, "Connection lost, reconnecting", notices[0].Message)
	assert.Equal(t, "Reconnected", notices[1].Message)
	assert.Equal(t, "Failed to process audio", notices[2].Message)
}

func TestNoticesDropWhenFull(t *testing.T) {
	v := NewMeetingView("m1", Deps{Feed: &fakeFeed{}})
	for i := 0; i < noticeBuffer+5; i++ {
		v.HandleStale(true)
	}
	assert.Len(t, drain(v), noticeBuffer)
}
