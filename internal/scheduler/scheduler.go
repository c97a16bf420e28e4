package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"StrokeSentinel/internal/collector"
	"StrokeSentinel/internal/engine"
	"StrokeSentinel/internal/model"
	"StrokeSentinel/internal/notifier"
	"StrokeSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// strokeListLimit is how many strokes /strokes shows per timeframe.
const strokeListLimit = 8

// Scheduler polls bars on a cron schedule and keeps one engine per timeframe.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Sender
	Recorder  recorder.Recorder
	Ctx       context.Context

	// Timeframes are ordered from highest to lowest.
	Timeframes []string
	Options    engine.Options

	mu       sync.Mutex
	engines  map[string]*engine.Engine
	lastZone map[string]model.Label
}

// NewScheduler creates a new Scheduler. sender may be nil to disable notifications.
func NewScheduler(ctx context.Context, col *collector.Collector, sender notifier.Sender, rec recorder.Recorder, timeframes []string, opts engine.Options) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Notifier:   sender,
		Recorder:   rec,
		Ctx:        ctx,
		Timeframes: timeframes,
		Options:    opts,
		engines:    make(map[string]*engine.Engine),
		lastZone:   make(map[string]model.Label),
	}
}

// Register registers the poll task.
func (s *Scheduler) Register(pollCron string) error {
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunPollNow executes the poll task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunPollNow() {
	s.pollTask()
}

func (s *Scheduler) pollTask() {
	for _, freq := range s.Timeframes {
		msgs, err := s.poll(freq)
		if err != nil {
			log.Printf("[ERROR] poll %s: %v", freq, err)
			continue
		}
		for _, m := range msgs {
			s.trySend(m)
		}
	}
}

// poll feeds the latest bars of freq into its engine and returns the
// notifications the update produced.
func (s *Scheduler) poll(freq string) ([]string, error) {
	bars, err := s.Collector.Collect(freq)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.engines[freq]
	if !ok {
		e, err = engine.New(bars, freq, s.Options)
		if err != nil {
			return nil, fmt.Errorf("init engine: %w", err)
		}
		s.engines[freq] = e
		log.Printf("[INFO] %s %s: engine initialized with %d bars, %d strokes", e.Symbol(), freq, len(bars), len(e.Strokes()))
		for _, st := range e.Strokes() {
			s.recordStroke(freq, st)
		}
		s.recordSignals(freq, e.Signals())
		s.lastZone[freq] = e.Signals().Zone
		return nil, nil
	}

	nextID := e.NextStrokeID()
	before := e.Strokes()
	lastBar, _ := e.LastBar()

	// The engine's last bar may have been revised since, so it is fed again.
	fed := 0
	for _, b := range bars {
		if b.Time.Before(lastBar.Time) {
			continue
		}
		e.Update(b)
		fed++
	}
	if fed == 0 {
		return nil, nil
	}

	var retracted []*model.Stroke
	for _, st := range before {
		if st.Superseded {
			s.markSuperseded(freq, st)
			retracted = append(retracted, st)
		}
	}

	var msgs []string
	for _, st := range e.Strokes() {
		if st.ID < nextID {
			continue
		}
		s.recordStroke(freq, st)
		if reconfirms(st, retracted) {
			continue
		}
		msgs = append(msgs, notifier.FormatStroke(freq, st))
	}

	sig := e.Signals()
	s.recordSignals(freq, sig)
	if sig.Zone != model.LabelOther && sig.Zone != s.lastZone[freq] {
		msgs = append(msgs, notifier.FormatZoneAlert(freq, sig))
	}
	s.lastZone[freq] = sig.Zone
	return msgs, nil
}

// HandleCommand processes a user command and returns a reply.
// Commands accept an optional timeframe argument, e.g. "/strokes 5m".
func (s *Scheduler) HandleCommand(command string) string {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return help()
	}
	frames := s.Timeframes
	if len(parts) > 1 {
		frames = parts[1:]
	}

	switch parts[0] {
	case "/poll", "立即更新":
		s.pollTask()
		return ""
	case "/signals", "查看信号":
		return s.reply(frames, func(freq string, e *engine.Engine) string {
			return notifier.FormatSignalReport(freq, e.Signals())
		})
	case "/strokes", "查看笔":
		return s.reply(frames, func(freq string, e *engine.Engine) string {
			return notifier.FormatStrokeList(e.Symbol(), freq, e.Strokes(), strokeListLimit)
		})
	case "/align", "查看映射":
		return s.alignReport()
	default:
		return help()
	}
}

func help() string {
	return "可用命令:\n• /signals [周期] 查看信号\n• /strokes [周期] 查看笔\n• /align 查看多周期映射\n• /poll 立即更新"
}

func (s *Scheduler) reply(frames []string, format func(string, *engine.Engine) string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	for _, freq := range frames {
		e, ok := s.engines[freq]
		if !ok {
			parts = append(parts, fmt.Sprintf("%s: 暂无数据", freq))
			continue
		}
		parts = append(parts, format(freq, e))
	}
	return strings.Join(parts, "\n")
}

// alignReport maps each timeframe's last stroke onto the next lower timeframe.
func (s *Scheduler) alignReport() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	for i := 0; i+1 < len(s.Timeframes); i++ {
		hf, lf := s.Timeframes[i], s.Timeframes[i+1]
		higher, ok1 := s.engines[hf]
		lower, ok2 := s.engines[lf]
		if !ok1 || !ok2 {
			parts = append(parts, fmt.Sprintf("%s → %s: 暂无数据", hf, lf))
			continue
		}
		parts = append(parts, notifier.FormatAlignment(hf, lf, higher.LastStroke(), engine.Align(higher, lower)))
	}
	if len(parts) == 0 {
		return "至少需要两个周期才能映射"
	}
	return strings.Join(parts, "\n")
}

// Engine returns the engine of freq, if it has been initialized.
// The engine must not be used while a poll may be running.
func (s *Scheduler) Engine(freq string) (*engine.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[freq]
	return e, ok
}

func (s *Scheduler) recordStroke(freq string, st *model.Stroke) {
	if err := s.Recorder.RecordStroke(freq, st); err != nil {
		log.Printf("[ERROR] record stroke: %v", err)
	}
}

func (s *Scheduler) markSuperseded(freq string, st *model.Stroke) {
	if err := s.Recorder.MarkSuperseded(freq, st); err != nil {
		log.Printf("[ERROR] mark stroke superseded: %v", err)
	}
}

// reconfirms reports whether st repeats a retracted stroke with the same span.
func reconfirms(st *model.Stroke, retracted []*model.Stroke) bool {
	for _, r := range retracted {
		if r.Direction == st.Direction && r.Start().Equal(st.Start()) && r.End().Equal(st.End()) {
			return true
		}
	}
	return false
}

func (s *Scheduler) recordSignals(freq string, v model.SignalVector) {
	if err := s.Recorder.RecordSignals(freq, v); err != nil {
		log.Printf("[ERROR] record signals: %v", err)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] notification (telegram disabled):\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
