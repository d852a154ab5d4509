package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/client/feed"
	"github.com/gavinvoiceai/meetflow-saas/client/registry"
	"github.com/gavinvoiceai/meetflow-saas/client/surface"
)

// Formatter writes terminal output. It is safe for concurrent use since
// feed and capture callbacks arrive on their own goroutines.
type Formatter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) printf(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, format, args...)
}

func (f *Formatter) Error(msg string) {
	f.printf("❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	f.printf("ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	f.printf("✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	f.printf("⚠️  %s\n", msg)
}

func (f *Formatter) SignedIn(email string) {
	f.printf("✅ Signed in as %s\n", email)
}

func (f *Formatter) MeetingStarted(m *registry.Meeting) {
	f.printf("📅 Meeting started: %s\n   Join with: meetctl join %s\n", m.DisplayTitle(), m.MeetingID)
}

func (f *Formatter) MeetingJoined(m *registry.Meeting) {
	f.printf("🎥 Joined %s (%s)\n   Type to chat, /mute to toggle audio, /quit to leave\n\n", m.DisplayTitle(), m.MeetingID)
}

func (f *Formatter) ChatMessage(rec feed.Record, self string) {
	who := rec.UserID
	if who == self {
		who = "you"
	} else if len(who) > 8 {
		who = who[:8]
	}
	f.printf("[%s] %s: %s\n", rec.CreatedAt.Local().Format(time.TimeOnly), who, rec.Content)
}

func (f *Formatter) Caption(text string) {
	if text == "" {
		return
	}
	f.printf("💬 %s\n", text)
}

func (f *Formatter) Notice(n surface.Notice) {
	if n.Level == surface.NoticeError {
		f.Warning(n.Message)
		return
	}
	f.Info(n.Message)
}
