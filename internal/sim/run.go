package sim

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
	"github.com/zhouzirui/z-guardian/backend/internal/service/alert"
	"github.com/zhouzirui/z-guardian/backend/internal/service/call"
	"github.com/zhouzirui/z-guardian/backend/internal/service/history"
	"github.com/zhouzirui/z-guardian/backend/internal/timer"
)

// Epoch is the simulated wall clock at call start.
var Epoch = time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)

// DefaultSettle is long enough for any reply cycle to finish.
const DefaultSettle = 10 * time.Second

// Options configures a replay.
type Options struct {
	Seed     uint64
	AIName   string
	CodeWord string
	// Settle is advanced after the last step so pending replies land before hang-up.
	Settle   time.Duration
	Contacts []contact.EmergencyContact
	Logger   zerolog.Logger
}

// Result is everything a replay observed.
type Result struct {
	SessionID     string               `json:"sessionId"`
	AIName        string               `json:"aiName"`
	StartedAt     time.Time            `json:"startedAt"`
	Timeline      []model.Message      `json:"timeline"`
	Events        []call.Event         `json:"events"`
	Notifications []alert.Notification `json:"notifications"`
	Summary       model.Summary        `json:"summary"`
	History       model.HistoryEntry   `json:"history"`
}

// Run replays steps on a fresh session and hangs up at the end.
func Run(ctx context.Context, steps []Step, opts Options) (*Result, error) {
	contacts := opts.Contacts
	if contacts == nil {
		contacts = contact.Seed()
	}

	var (
		mu  sync.Mutex
		res = &Result{}
	)
	notifier := alert.NotifierFunc(func(_ context.Context, n alert.Notification) error {
		mu.Lock()
		res.Notifications = append(res.Notifications, n)
		mu.Unlock()
		return nil
	})
	recorder := history.RecorderFunc(func(_ context.Context, e model.HistoryEntry) error {
		mu.Lock()
		res.History = e
		mu.Unlock()
		return nil
	})

	clock := timer.NewManual(Epoch)
	session := call.New(call.Config{
		ID:       fmt.Sprintf("sim-%d", opts.Seed),
		AIName:   opts.AIName,
		CodeWord: opts.CodeWord,
	}, call.Dependencies{
		Scheduler: clock,
		Rand:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		Entropy:   idEntropy(opts.Seed),
		Alerts:    alert.NewDispatcher(contact.NewMemoryStore(contacts), notifier, nil, opts.Logger),
		History:   recorder,
		Listener: func(ev call.Event) {
			mu.Lock()
			res.Events = append(res.Events, ev)
			mu.Unlock()
		},
		Logger: opts.Logger,
	})
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	hungUp := false
	for _, step := range steps {
		if hungUp {
			return nil, fmt.Errorf("line %d: call already ended", step.Line)
		}
		if step.Kind == StepEnd {
			hungUp = true
			continue
		}
		if err := apply(ctx, session, clock, step); err != nil {
			return nil, fmt.Errorf("line %d: %w", step.Line, err)
		}
	}

	// An explicit "end" hangs up at once; otherwise pending replies get to land.
	if !hungUp {
		clock.Advance(opts.Settle)
	}
	state := session.Snapshot()
	summary, err := session.End(ctx)
	if err != nil {
		return nil, err
	}

	res.SessionID = state.ID
	res.AIName = state.AIName
	res.StartedAt = state.StartedAt
	res.Timeline = state.Messages
	res.Summary = summary
	return res, nil
}

func apply(ctx context.Context, s *call.Session, clock *timer.Manual, step Step) error {
	var err error
	switch step.Kind {
	case StepSay:
		_, _, err = s.SendUserMessage(ctx, step.Arg)
	case StepWait:
		clock.Advance(step.Wait)
	case StepDraft:
		err = s.SetDraft(step.Arg)
	case StepCodeWord:
		if err = s.StageCodeWord(step.Arg); err == nil {
			_, err = s.SaveCodeWord()
		}
	case StepToggle:
		switch step.Arg {
		case "mute":
			_, err = s.ToggleMute()
		case "video":
			_, err = s.ToggleVideo()
		case "voice":
			_, err = s.ToggleVoiceMode()
		case "recording":
			_, err = s.ToggleRecording()
		}
	}
	return err
}

// idEntropy makes message and history ids repeat for the same seed.
func idEntropy(seed uint64) *rand.ChaCha8 {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return rand.NewChaCha8(key)
}
