// Package call runs live call sessions: the timeline, the covert detection of
// distress and the code word, and the companion's timed replies.
package call

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/analysis/detection"
	"github.com/zhouzirui/z-guardian/backend/internal/analysis/reply"
	"github.com/zhouzirui/z-guardian/backend/internal/metrics"
	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
	"github.com/zhouzirui/z-guardian/backend/internal/service/alert"
	"github.com/zhouzirui/z-guardian/backend/internal/service/history"
	"github.com/zhouzirui/z-guardian/backend/internal/timer"
)

var (
	ErrNotActive      = errors.New("call is not active")
	ErrAlreadyStarted = errors.New("call already started")
)

const (
	DefaultAIName   = "Alex"
	DefaultCodeWord = "pineapple"

	// Greeting opens every call.
	Greeting = "Hey! Good to hear from you! How's everything going? What's up?"
)

// Config carries per-call identity and timing.
type Config struct {
	ID              string
	AIName          string
	CodeWord        string
	TickInterval    time.Duration
	DistressDelay   time.Duration
	ThinkingMin     time.Duration
	ThinkingMax     time.Duration
	MinSpeaking     time.Duration
	SpeakingPerChar time.Duration
}

// DefaultConfig returns the standard call timing.
func DefaultConfig() Config {
	return Config{
		AIName:          DefaultAIName,
		CodeWord:        DefaultCodeWord,
		TickInterval:    time.Second,
		DistressDelay:   1500 * time.Millisecond,
		ThinkingMin:     800 * time.Millisecond,
		ThinkingMax:     1500 * time.Millisecond,
		MinSpeaking:     2 * time.Second,
		SpeakingPerChar: 50 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if strings.TrimSpace(c.AIName) == "" {
		c.AIName = def.AIName
	}
	if strings.TrimSpace(c.CodeWord) == "" {
		c.CodeWord = def.CodeWord
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.DistressDelay <= 0 {
		c.DistressDelay = def.DistressDelay
	}
	if c.ThinkingMin <= 0 || c.ThinkingMax <= c.ThinkingMin {
		c.ThinkingMin, c.ThinkingMax = def.ThinkingMin, def.ThinkingMax
	}
	if c.MinSpeaking <= 0 {
		c.MinSpeaking = def.MinSpeaking
	}
	if c.SpeakingPerChar <= 0 {
		c.SpeakingPerChar = def.SpeakingPerChar
	}
	return c
}

// Responder drafts the companion's answer to a user message. It is called
// with the session locked, so it must be fast and must not call back into the
// session.
type Responder interface {
	Respond(ctx context.Context, text string) reply.Reply
}

// Rephraser rewrites a drafted reply. It runs in the background and is
// canceled when the thinking delay runs out; the draft is used then.
type Rephraser interface {
	Rephrase(ctx context.Context, aiName, userText string, draft reply.Reply) reply.Reply
}

// AlertDispatcher notifies emergency contacts.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, reason alert.Reason, sessionID string) alert.Alert
}

// Dependencies are the collaborators of a session. Nil fields get defaults.
type Dependencies struct {
	Scheduler timer.Scheduler
	Rand      reply.Rand
	Responder Responder
	Rephraser Rephraser
	Alerts    AlertDispatcher
	History   history.Recorder
	Listener  Listener
	// Entropy seeds message and history ids. Defaults to crypto/rand.
	Entropy io.Reader
	Logger  zerolog.Logger
}

// Session is one live call. All state changes happen under mu, including
// timer callbacks, so the session behaves as a single logical thread.
type Session struct {
	mu        sync.Mutex
	deliverMu sync.Mutex

	cfg       Config
	sched     timer.Scheduler
	rng       reply.Rand
	detector  *detection.Detector
	responder Responder
	rephraser Rephraser
	alerts    AlertDispatcher
	history   history.Recorder
	listener  Listener
	logger    zerolog.Logger
	entropy   *ulid.MonotonicEntropy

	ctx    context.Context
	cancel context.CancelFunc

	phase           model.Phase
	codeWord        string
	pendingCodeWord string
	draft           string
	messages        []model.Message
	callSeconds     int
	recSeconds      int
	isMuted         bool
	isVideoOn       bool
	isRecording     bool
	isTyping        bool
	isSpeaking      bool
	voiceMode       bool
	hasAlerts       bool
	startedAt       time.Time
	lastTime        time.Time

	tasks         map[timer.TaskID]struct{}
	durationTask  timer.TaskID
	recordingTask timer.TaskID
	thinkingTask  timer.TaskID
	speakingTask  timer.TaskID
	replySeq      uint64
	pending       *pendingReply

	eventSeq uint64
	outbox   []Event
}

// New builds a session in the not-started phase.
func New(cfg Config, deps Dependencies) *Session {
	cfg = cfg.withDefaults()

	sched := deps.Scheduler
	if sched == nil {
		sched = timer.NewRealtime()
	}
	var rng reply.Rand = deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	rng = newLockedRand(rng)
	responder := deps.Responder
	if responder == nil {
		responder = reply.NewGenerator(cfg.AIName, rng)
	}
	entropy := deps.Entropy
	if entropy == nil {
		entropy = crand.Reader
	}
	alerts := deps.Alerts
	if alerts == nil {
		alerts = alert.NewDispatcher(contact.NewMemoryStore(contact.Seed()), nil, nil, deps.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:             cfg,
		sched:           sched,
		rng:             rng,
		detector:        detection.New(),
		responder:       responder,
		rephraser:       deps.Rephraser,
		alerts:          alerts,
		history:         deps.History,
		listener:        deps.Listener,
		logger:          deps.Logger.With().Str("component", "call").Str("call_id", cfg.ID).Logger(),
		entropy:         ulid.Monotonic(entropy, 0),
		ctx:             ctx,
		cancel:          cancel,
		phase:           model.PhaseNotStarted,
		codeWord:        cfg.CodeWord,
		pendingCodeWord: cfg.CodeWord,
		voiceMode:       true,
		tasks:           make(map[timer.TaskID]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.cfg.ID
}

// Start opens the call with the scripted greeting and starts the duration counter.
func (s *Session) Start(_ context.Context) error {
	s.mu.Lock()
	if s.phase != model.PhaseNotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	s.phase = model.PhaseActive
	s.startedAt = s.clock()
	s.durationTask = s.every(s.cfg.TickInterval, s.onCallTick)
	s.emit(Event{Type: EventCallStarted, Flags: s.flags()})
	s.appendMessage(model.SenderAssistant, Greeting, true)
	s.unlockAndFlush()

	metrics.CallsStarted.Inc()
	metrics.ActiveCalls.Inc()
	s.logger.Info().Str("ai_name", s.cfg.AIName).Msg("call started")
	return nil
}

// SetDraft stages the text currently in the input box.
func (s *Session) SetDraft(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseActive {
		return ErrNotActive
	}
	s.draft = text
	return nil
}

// SendUserMessage appends the user's text and runs detection and the reply
// flow. Whitespace-only text is ignored and reports sent=false.
func (s *Session) SendUserMessage(ctx context.Context, text string) (model.Message, bool, error) {
	s.mu.Lock()
	if s.phase != model.PhaseActive {
		s.mu.Unlock()
		return model.Message{}, false, ErrNotActive
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return model.Message{}, false, nil
	}

	msg := s.appendMessage(model.SenderUser, text, s.voiceMode)
	s.draft = ""

	result := s.detector.Evaluate(text, s.codeWord)
	if result.Matched() {
		s.logger.Info().Str("kind", string(result.Kind)).Msg("detection hit")
	}
	switch result.Kind {
	case detection.CodeWord:
		// No typing cycle for this message.
		s.raiseAlert(ctx, alert.ReasonCodeWord)
	case detection.Distress:
		s.after(s.cfg.DistressDelay, func() {
			s.raiseAlert(s.ctx, alert.ReasonDistress)
		})
		s.beginReply(text)
	default:
		s.beginReply(text)
	}
	s.unlockAndFlush()
	return msg, true, nil
}

// SendDraft sends whatever SetDraft staged.
func (s *Session) SendDraft(ctx context.Context) (model.Message, bool, error) {
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()
	return s.SendUserMessage(ctx, draft)
}

// ToggleMute flips the mute flag and returns the new value.
func (s *Session) ToggleMute() (bool, error) {
	return s.toggle(func() *bool { return &s.isMuted })
}

// ToggleVideo flips the camera flag and returns the new value.
func (s *Session) ToggleVideo() (bool, error) {
	return s.toggle(func() *bool { return &s.isVideoOn })
}

// ToggleVoiceMode switches between voice and text input.
func (s *Session) ToggleVoiceMode() (bool, error) {
	return s.toggle(func() *bool { return &s.voiceMode })
}

func (s *Session) toggle(field func() *bool) (bool, error) {
	s.mu.Lock()
	if s.phase != model.PhaseActive {
		s.mu.Unlock()
		return false, ErrNotActive
	}
	flag := field()
	*flag = !*flag
	val := *flag
	s.emit(Event{Type: EventFlags, Flags: s.flags()})
	s.unlockAndFlush()
	return val, nil
}

// RecordingResult describes a recording toggle.
type RecordingResult struct {
	Recording bool `json:"recording"`
	// Seconds is the length of the recording just stopped, observed before the
	// counter resets. Zero when recording starts.
	Seconds int `json:"seconds"`
}

// ToggleRecording starts or stops the recording counter.
func (s *Session) ToggleRecording() (RecordingResult, error) {
	s.mu.Lock()
	if s.phase != model.PhaseActive {
		s.mu.Unlock()
		return RecordingResult{}, ErrNotActive
	}

	var res RecordingResult
	var notice Notice
	if !s.isRecording {
		s.isRecording = true
		s.recSeconds = 0
		s.recordingTask = s.every(s.cfg.TickInterval, s.onRecordingTick)
		res = RecordingResult{Recording: true}
		notice = Notice{Title: "Recording started", Description: "Your call is now being recorded"}
	} else {
		observed := s.recSeconds
		s.cancelTask(s.recordingTask)
		s.recordingTask = 0
		s.isRecording = false
		res = RecordingResult{Recording: false, Seconds: observed}
		notice = Notice{Title: "Recording saved", Description: "Recording duration: " + model.FormatDuration(observed)}
		s.recSeconds = 0
	}

	seconds := res.Seconds
	s.emit(Event{Type: EventRecording, Flags: s.flags(), Seconds: &seconds, Notices: []Notice{notice}})
	s.unlockAndFlush()
	return res, nil
}

// StageCodeWord holds an edited code word until SaveCodeWord.
func (s *Session) StageCodeWord(word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseActive {
		return ErrNotActive
	}
	s.pendingCodeWord = word
	return nil
}

// SaveCodeWord commits the staged code word. A blank staged value leaves the
// active word in place and reports saved=false.
func (s *Session) SaveCodeWord() (bool, error) {
	s.mu.Lock()
	if s.phase != model.PhaseActive {
		s.mu.Unlock()
		return false, ErrNotActive
	}

	word := strings.TrimSpace(s.pendingCodeWord)
	if word == "" {
		s.pendingCodeWord = s.codeWord
		s.mu.Unlock()
		return false, nil
	}

	s.codeWord = word
	s.pendingCodeWord = word
	s.emit(Event{Type: EventCodeWord, Notices: []Notice{{
		Title:       "Code word updated",
		Description: fmt.Sprintf("Your emergency code word is now: %q", word),
	}}})
	s.unlockAndFlush()
	return true, nil
}

// End cancels every pending timer, closes the call and records it in history.
func (s *Session) End(ctx context.Context) (model.Summary, error) {
	s.mu.Lock()
	if s.phase != model.PhaseActive {
		s.mu.Unlock()
		return model.Summary{}, ErrNotActive
	}

	for id := range s.tasks {
		s.sched.Cancel(id)
	}
	s.tasks = make(map[timer.TaskID]struct{})
	s.durationTask, s.recordingTask, s.thinkingTask, s.speakingTask = 0, 0, 0, 0
	s.dropPending()
	s.phase = model.PhaseEnded
	s.cancel()

	summary := model.Summary{
		DurationSeconds: s.callSeconds,
		MessageCount:    len(s.messages),
		HasAlerts:       s.hasAlerts,
	}
	endedAt := s.clock()
	entry := model.HistoryEntry{
		ID:        s.newID(endedAt),
		SessionID: s.cfg.ID,
		AIName:    s.cfg.AIName,
		StartedAt: s.startedAt,
		EndedAt:   endedAt,
		Summary:   summary,
	}
	sum := summary
	s.emit(Event{Type: EventCallEnded, Summary: &sum})
	recorder := s.history
	s.unlockAndFlush()

	metrics.ActiveCalls.Dec()
	metrics.CallsEnded.WithLabelValues(strconv.FormatBool(summary.HasAlerts)).Inc()
	metrics.CallDuration.Observe(float64(summary.DurationSeconds))

	if recorder != nil {
		if err := recorder.Record(ctx, entry); err != nil {
			s.logger.Error().Err(err).Msg("record call history")
		}
	}

	s.logger.Info().
		Int("duration_seconds", summary.DurationSeconds).
		Int("message_count", summary.MessageCount).
		Bool("has_alerts", summary.HasAlerts).
		Msg("call ended")
	return summary, nil
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.State{
		ID:                       s.cfg.ID,
		Phase:                    s.phase,
		AIName:                   s.cfg.AIName,
		CodeWord:                 s.codeWord,
		PendingCodeWord:          s.pendingCodeWord,
		Draft:                    s.draft,
		Messages:                 append([]model.Message(nil), s.messages...),
		CallDurationSeconds:      s.callSeconds,
		RecordingDurationSeconds: s.recSeconds,
		IsMuted:                  s.isMuted,
		IsVideoOn:                s.isVideoOn,
		IsRecording:              s.isRecording,
		IsTyping:                 s.isTyping,
		IsAssistantSpeaking:      s.isSpeaking,
		VoiceMode:                s.voiceMode,
		HasAlerts:                s.hasAlerts,
		StartedAt:                s.startedAt,
	}
}

// PendingTimers reports how many timers the session still owns.
func (s *Session) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// raiseAlert must be called with mu held.
func (s *Session) raiseAlert(ctx context.Context, reason alert.Reason) {
	result := s.alerts.Dispatch(ctx, reason, s.cfg.ID)
	s.hasAlerts = true

	notices := make([]Notice, 0, len(result.Notifications))
	for _, n := range result.Notifications {
		notices = append(notices, Notice{Title: n.Title, Description: n.Description})
	}
	s.emit(Event{Type: EventAlert, Flags: s.flags(), Notices: notices})
	s.appendMessage(model.SenderAssistant, result.Camouflage, true)
}

// pendingReply is a drafted answer waiting for the thinking delay to run out.
// done is closed once the rephraser has written rewritten.
type pendingReply struct {
	draft     reply.Reply
	rewritten reply.Reply
	done      chan struct{}
	cancel    context.CancelFunc
}

// answer returns the rewrite if it arrived in time, otherwise the draft.
func (p *pendingReply) answer() reply.Reply {
	select {
	case <-p.done:
		return p.rewritten
	default:
		p.cancel()
		return p.draft
	}
}

// beginReply must be called with mu held. A newer message supersedes any
// reply still thinking or speaking.
func (s *Session) beginReply(text string) {
	s.cancelTask(s.thinkingTask)
	s.cancelTask(s.speakingTask)
	s.thinkingTask, s.speakingTask = 0, 0
	s.dropPending()

	s.replySeq++
	seq := s.replySeq
	s.isTyping = true
	s.isSpeaking = false
	s.emit(Event{Type: EventTyping, Flags: s.flags()})

	delay := s.thinkingDelay()
	pending := &pendingReply{
		draft:  s.responder.Respond(s.ctx, text),
		done:   make(chan struct{}),
		cancel: func() {},
	}
	if s.rephraser != nil {
		ctx, cancel := context.WithTimeout(s.ctx, delay)
		pending.cancel = cancel
		go func(r Rephraser, aiName string) {
			defer cancel()
			pending.rewritten = r.Rephrase(ctx, aiName, text, pending.draft)
			close(pending.done)
		}(s.rephraser, s.cfg.AIName)
	}
	s.pending = pending

	s.thinkingTask = s.after(delay, func() { s.finishThinking(seq) })
}

// finishThinking must be called with mu held. It appends the reply and opens
// the speaking window.
func (s *Session) finishThinking(seq uint64) {
	s.thinkingTask = 0
	pending := s.pending
	s.pending = nil
	if pending == nil || seq != s.replySeq {
		return
	}

	answer := pending.answer()
	s.isTyping = false
	s.isSpeaking = true
	s.emit(Event{Type: EventSpeaking, Flags: s.flags()})
	s.appendMessage(model.SenderAssistant, answer.Text, true)
	metrics.ReplyCategories.WithLabelValues(answer.Category).Inc()

	s.speakingTask = s.after(s.speakingDuration(answer.Text), func() {
		s.speakingTask = 0
		s.isSpeaking = false
		s.emit(Event{Type: EventSpeaking, Flags: s.flags()})
	})
}

// dropPending cancels a rewrite nobody will wait for.
func (s *Session) dropPending() {
	if s.pending != nil {
		s.pending.cancel()
		s.pending = nil
	}
}

func (s *Session) onCallTick() {
	s.callSeconds++
	seconds := s.callSeconds
	s.emit(Event{Type: EventTick, Seconds: &seconds})
}

func (s *Session) onRecordingTick() {
	s.recSeconds++
	seconds := s.recSeconds
	s.emit(Event{Type: EventRecording, Flags: s.flags(), Seconds: &seconds})
}

func (s *Session) thinkingDelay() time.Duration {
	span := s.cfg.ThinkingMax - s.cfg.ThinkingMin
	return s.cfg.ThinkingMin + time.Duration(s.rng.IntN(int(span)))
}

func (s *Session) speakingDuration(text string) time.Duration {
	return max(s.cfg.MinSpeaking, s.cfg.SpeakingPerChar*time.Duration(utf8.RuneCountInString(text)))
}

// after schedules a one-shot callback that runs under mu, only while the
// session is active and still owns the task.
func (s *Session) after(d time.Duration, fn func()) timer.TaskID {
	id := new(timer.TaskID)
	*id = s.sched.After(d, func() { s.fire(id, false, fn) })
	s.tasks[*id] = struct{}{}
	return *id
}

func (s *Session) every(d time.Duration, fn func()) timer.TaskID {
	id := new(timer.TaskID)
	*id = s.sched.Every(d, func() { s.fire(id, true, fn) })
	s.tasks[*id] = struct{}{}
	return *id
}

func (s *Session) fire(idp *timer.TaskID, periodic bool, fn func()) {
	s.mu.Lock()
	id := *idp
	if !s.owns(id) {
		s.mu.Unlock()
		return
	}
	if !periodic {
		delete(s.tasks, id)
	}
	fn()
	s.unlockAndFlush()
}

func (s *Session) owns(id timer.TaskID) bool {
	if s.phase != model.PhaseActive {
		return false
	}
	_, ok := s.tasks[id]
	return ok
}

func (s *Session) cancelTask(id timer.TaskID) {
	if id == 0 {
		return
	}
	s.sched.Cancel(id)
	delete(s.tasks, id)
}

// clock returns scheduler time, never earlier than a previously returned value.
func (s *Session) clock() time.Time {
	now := s.sched.Now()
	if now.Before(s.lastTime) {
		now = s.lastTime
	}
	s.lastTime = now
	return now
}

func (s *Session) newID(ts time.Time) string {
	id, err := ulid.New(ulid.Timestamp(ts), s.entropy)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}

func (s *Session) appendMessage(sender model.Sender, text string, voice bool) model.Message {
	ts := s.clock()
	msg := model.Message{
		ID:        s.newID(ts),
		Sender:    sender,
		Text:      text,
		Timestamp: ts,
		IsVoice:   voice,
	}
	s.messages = append(s.messages, msg)
	metrics.MessagesAppended.WithLabelValues(string(sender)).Inc()

	copied := msg
	s.emit(Event{Type: EventMessage, Message: &copied})
	return msg
}

func (s *Session) flags() *Flags {
	return &Flags{
		IsMuted:             s.isMuted,
		IsVideoOn:           s.isVideoOn,
		IsRecording:         s.isRecording,
		IsTyping:            s.isTyping,
		IsAssistantSpeaking: s.isSpeaking,
		VoiceMode:           s.voiceMode,
		HasAlerts:           s.hasAlerts,
	}
}

func (s *Session) emit(ev Event) {
	s.eventSeq++
	ev.Seq = s.eventSeq
	ev.SessionID = s.cfg.ID
	ev.Time = s.clock()
	s.outbox = append(s.outbox, ev)
}

// unlockAndFlush releases mu and hands queued events to the listener in order.
func (s *Session) unlockAndFlush() {
	events := s.outbox
	s.outbox = nil
	s.deliverMu.Lock()
	s.mu.Unlock()
	defer s.deliverMu.Unlock()

	if s.listener == nil {
		return
	}
	for _, ev := range events {
		s.listener(ev)
	}
}

type lockedRand struct {
	mu sync.Mutex
	r  reply.Rand
}

func newLockedRand(r reply.Rand) *lockedRand {
	if l, ok := r.(*lockedRand); ok {
		return l
	}
	return &lockedRand{r: r}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
