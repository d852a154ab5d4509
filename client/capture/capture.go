// Package capture records microphone audio in fixed slices and submits
// each slice for transcription.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	DefaultSliceInterval = 3 * time.Second
	DefaultSubmitTimeout = 30 * time.Second

	readBufferSize = 32 << 10
)

var (
	ErrMicrophoneDenied = errors.New("microphone access denied")
	ErrNoUser           = errors.New("no signed-in user")
)

type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Microphone opens an audio stream. Implementations return an error
// wrapping ErrMicrophoneDenied when access is refused.
type Microphone interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Request is one slice submitted for transcription.
type Request struct {
	AudioData string `json:"audio_data"`
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, req *Request) (string, error)
}

// UserSource yields the current user's ID. It is consulted at submission
// time, not at Start.
type UserSource interface {
	UserID(ctx context.Context) (string, error)
}

// Result reports the outcome of one submission.
type Result struct {
	Seq   int
	Bytes int
	Text  string
	Err   error
}

// Ticker abstracts time.Ticker for tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

type Option func(*Pipeline)

func WithSliceInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		p.sliceInterval = d
	}
}

func WithSubmitTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.submitTimeout = d
	}
}

// OnResult receives every submission outcome, from the submission's own
// goroutine.
func OnResult(fn func(Result)) Option {
	return func(p *Pipeline) {
		p.onResult = fn
	}
}

// WithFramer sets how buffered bytes become a slice. The default submits
// everything buffered.
func WithFramer(f Framer) Option {
	return func(p *Pipeline) {
		p.framer = f
	}
}

func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(p *Pipeline) {
		p.newTicker = fn
	}
}

// Pipeline is Idle until Start and Recording until Stop. While recording it
// buffers microphone bytes and, every slice interval, submits and clears
// the buffer. Submissions are fire-and-forget and may finish in any order.
type Pipeline struct {
	mic           Microphone
	transcriber   Transcriber
	users         UserSource
	meetingID     string
	sliceInterval time.Duration
	submitTimeout time.Duration
	onResult      func(Result)
	newTicker     func(time.Duration) Ticker
	framer        Framer

	mu      sync.Mutex
	state   State
	buf     []byte
	seq     int
	gen     int
	stream  io.ReadCloser
	cancel  context.CancelFunc
	loops   sync.WaitGroup
	pending sync.WaitGroup
}

func NewPipeline(mic Microphone, t Transcriber, users UserSource, meetingID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		mic:           mic,
		transcriber:   t,
		users:         users,
		meetingID:     meetingID,
		sliceInterval: DefaultSliceInterval,
		submitTimeout: DefaultSubmitTimeout,
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{time.NewTicker(d)}
		},
		framer: rawFramer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start opens the microphone and begins slicing. It is a no-op while
// already recording. A refused microphone leaves the pipeline Idle.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRecording {
		return nil
	}

	stream, err := p.mic.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrMicrophoneDenied) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrMicrophoneDenied, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.state = StateRecording
	p.stream = stream
	p.cancel = cancel
	p.buf = nil
	p.gen++
	p.framer.Reset()

	ticker := p.newTicker(p.sliceInterval)
	p.loops.Add(1)
	go p.readLoop(stream, p.gen)
	go p.sliceLoop(runCtx, ticker)
	return nil
}

// Stop halts recording, discards the unsent buffer and releases the
// microphone. It is a no-op while Idle. In-flight submissions continue.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.state == StateIdle {
		p.mu.Unlock()
		return
	}
	p.state = StateIdle
	p.cancel()
	stream := p.stream
	p.stream = nil
	p.buf = nil
	p.mu.Unlock()

	// The reader goroutine is not awaited: a stream that ignores Close
	// would block forever. Bytes it reads after Stop are dropped.
	_ = stream.Close()
	p.loops.Wait()
}

// Wait blocks until every submission started so far has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

func (p *Pipeline) readLoop(stream io.Reader, gen int) {
	chunk := make([]byte, readBufferSize)
	for {
		n, err := stream.Read(chunk)
		if n > 0 {
			p.mu.Lock()
			if p.state == StateRecording && p.gen == gen {
				p.buf = append(p.buf, chunk[:n]...)
			}
			p.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (p *Pipeline) sliceLoop(ctx context.Context, ticker Ticker) {
	defer p.loops.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.flush()
		}
	}
}

// flush cuts the buffered slice, drops it from the buffer and submits it in
// the background. Bytes the framer holds back stay buffered.
func (p *Pipeline) flush() {
	p.mu.Lock()
	if p.state != StateRecording || len(p.buf) == 0 {
		p.mu.Unlock()
		return
	}
	audio, rest := p.framer.Cut(p.buf)
	p.buf = rest
	if len(audio) == 0 {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq
	p.pending.Add(1)
	p.mu.Unlock()

	go p.submit(seq, audio)
}

func (p *Pipeline) submit(seq int, audio []byte) {
	defer p.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), p.submitTimeout)
	defer cancel()

	res := Result{Seq: seq, Bytes: len(audio)}
	userID, err := p.users.UserID(ctx)
	switch {
	case err != nil:
		res.Err = fmt.Errorf("%w: %w", ErrNoUser, err)
	case userID == "":
		res.Err = ErrNoUser
	default:
		res.Text, res.Err = p.transcriber.Transcribe(ctx, &Request{
			AudioData: base64.StdEncoding.EncodeToString(audio),
			MeetingID: p.meetingID,
			UserID:    userID,
		})
	}

	if p.onResult != nil {
		p.onResult(res)
	}
}
