// SPDX-License-Identifier: MIT

// Package playback drives resilient playback over a ranked source list: it
// owns the session state machine, fails over to the next candidate on fatal
// errors, checkpoints watch progress and restores the last position.
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate/internal/log"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/progress"
	"github.com/streamgate/streamgate/internal/resolver"
)

// State is the playback session state.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StatePlaying     State = "playing"
	StateBuffering   State = "buffering"
	StateSourceError State = "source_error"
	StateExhausted   State = "exhausted"
)

const (
	// checkpointInterval is the minimum gap between progress saves. The gap
	// resets on every source switch so a failover never checkpoints a stale
	// position from the previous source.
	checkpointInterval = 10 * time.Second
	// minPlayedSeconds gates checkpoints until playback has actually started.
	minPlayedSeconds = 1.0
	// resumeTailGuard keeps a restored position clear of the seekable end.
	resumeTailGuard = 1.0
)

// Observer receives state machine transitions. Observers are notified
// synchronously with the engine lock held and must not call back into the
// engine.
type Observer interface {
	StateChanged(from, to State, sourceIndex int)
}

// EndedObserver is optionally implemented by observers that want to drive
// auto-advance when the current item finishes.
type EndedObserver interface {
	Ended()
}

// Config assembles an Engine.
type Config struct {
	// Sources is the ranked candidate list, best first. Must not be empty.
	Sources []resolver.StreamSource
	// Identity keys progress checkpoints for this content.
	Identity progress.Key
	// Factory builds a media client per direct source.
	Factory Factory
	// Progress enables checkpointing and resume when set.
	Progress *progress.Store
	// HDRProbe reports display HDR capability. Probed at most once per
	// engine; nil disables HDR variant selection.
	HDRProbe func(ctx context.Context) (bool, error)
	// FetchManifest retrieves a master playlist for HDR variant pinning.
	FetchManifest func(ctx context.Context, url string) (string, error)
}

// Presentation describes how the current source is rendered.
type Presentation struct {
	// Embed is true when the source is a third-party page for an embedded
	// frame instead of a manifest for the adaptive player.
	Embed bool   `json:"embed"`
	URL   string `json:"url"`
}

// Engine is a single-content playback session. One engine instance manages
// exactly one ranked source list; a new content selection needs a new engine.
type Engine struct {
	cfg Config
	lg  zerolog.Logger

	mu             sync.Mutex
	state          State
	index          int
	client         MediaClient
	gen            int
	resumed        bool
	interstitial   bool
	lastCheckpoint time.Time
	closed         bool
	observers      []Observer

	hdrOnce      sync.Once
	hdrSupported bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	clock func() time.Time
}

// NewEngine validates the configuration and returns an idle engine.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Sources) == 0 {
		return nil, errors.New("playback: no sources")
	}
	if cfg.Factory == nil {
		for _, src := range cfg.Sources {
			if src.Delivery != resolver.DeliveryEmbed {
				return nil, errors.New("playback: direct sources need a client factory")
			}
		}
	}
	return &Engine{
		cfg:   cfg,
		lg:    log.WithComponent("playback").With().Str(log.FieldContentID, cfg.Identity.ContentID).Logger(),
		state: StateIdle,
		clock: time.Now,
	}, nil
}

// Subscribe registers an observer. Must be called before Start.
func (e *Engine) Subscribe(o Observer) {
	e.mu.Lock()
	e.observers = append(e.observers, o)
	e.mu.Unlock()
}

// Start begins loading the first source. Valid only from Idle.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New("playback: engine closed")
	}
	if e.state != StateIdle {
		return errors.New("playback: already started")
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.lastCheckpoint = e.clock()

	if e.cfg.Progress != nil {
		e.wg.Add(1)
		go e.checkpointLoop()
	}

	e.transitionLocked(StateLoading)
	e.startLoadLocked()
	return nil
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SourceIndex returns the index of the source currently in use.
func (e *Engine) SourceIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Current describes the active source.
func (e *Engine) Current() Presentation {
	e.mu.Lock()
	defer e.mu.Unlock()
	src := e.cfg.Sources[e.index]
	return Presentation{
		Embed: src.Delivery == resolver.DeliveryEmbed,
		URL:   src.URL,
	}
}

// RetryAll restarts the source list from the top. Valid only from Exhausted;
// any other state ignores the call.
func (e *Engine) RetryAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.state != StateExhausted {
		return
	}
	e.index = 0
	e.gen++
	e.lastCheckpoint = e.clock()
	e.transitionLocked(StateLoading)
	e.startLoadLocked()
}

// PauseForInterstitial pauses playback for an overlay prompt. The pause holds
// until ResumeFromInterstitial, surviving source switches in between.
func (e *Engine) PauseForInterstitial() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.interstitial = true
	if e.client != nil {
		e.client.Pause()
	}
}

// ResumeFromInterstitial lifts the interstitial pause and resumes playback if
// the client is ready. A not-yet-ready client resumes on its canplay event
// instead.
func (e *Engine) ResumeFromInterstitial() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.interstitial {
		return
	}
	e.interstitial = false
	if e.client != nil && e.client.Ready() {
		e.client.Play()
	}
}

// Close tears the session down: the active client is closed synchronously,
// then all engine goroutines are waited out.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.gen++
	if e.client != nil {
		_ = e.client.Close()
		e.client = nil
	}
	e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	return nil
}

// startLoadLocked begins loading the source at the current index. Caller
// holds the lock and has already transitioned to Loading.
func (e *Engine) startLoadLocked() {
	src := e.cfg.Sources[e.index]
	if src.Delivery == resolver.DeliveryEmbed {
		// Embed sources bypass the adaptive player entirely.
		e.transitionLocked(StatePlaying)
		return
	}

	gen := e.gen
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.loadSource(gen, src)
	}()
}

func (e *Engine) loadSource(gen int, src resolver.StreamSource) {
	client, err := e.cfg.Factory(e.ctx, src)
	if err != nil {
		e.lg.Warn().Err(err).Int(log.FieldSourceIndex, e.SourceIndex()).
			Msg("source failed to load")
		e.failCurrent(gen, err)
		return
	}

	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		_ = client.Close()
		return
	}
	e.client = client
	e.wg.Add(1)
	e.mu.Unlock()

	go e.watch(client, gen)
	e.applyHDRPreference(client, src)
}

// watch consumes one client's event stream until it closes.
func (e *Engine) watch(client MediaClient, gen int) {
	defer e.wg.Done()
	for ev := range client.Events() {
		switch ev.Type {
		case EventCanPlay:
			e.onCanPlay(client, gen)
		case EventBuffering:
			e.onBuffering(gen)
		case EventTransientError:
			e.lg.Debug().Err(ev.Err).Msg("transient playback error")
		case EventFatalError:
			e.lg.Warn().Err(ev.Err).Int(log.FieldSourceIndex, e.SourceIndex()).
				Msg("fatal playback error")
			e.failCurrent(gen, ev.Err)
		case EventEnded:
			e.onEnded(gen)
		}
	}
}

func (e *Engine) onCanPlay(client MediaClient, gen int) {
	e.mu.Lock()
	if e.closed || gen != e.gen || e.client != client {
		e.mu.Unlock()
		return
	}
	e.transitionLocked(StatePlaying)

	target := -1.0
	if !e.resumed {
		// Position restoration runs at most once per engine, on the first
		// source that becomes playable.
		e.resumed = true
		if e.cfg.Progress != nil {
			if p, ok := e.cfg.Progress.Get(e.cfg.Identity); ok {
				target = p.PositionSeconds
				if end := client.SeekableEnd(); end > 0 && target > end-resumeTailGuard {
					target = end - resumeTailGuard
				}
			}
		}
	}
	paused := e.interstitial
	e.mu.Unlock()

	if target > 0 {
		e.lg.Info().Float64("position_seconds", target).Msg("restoring watch position")
		client.Seek(target)
	}
	if !paused {
		client.Play()
	}
}

func (e *Engine) onBuffering(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.gen || e.state != StatePlaying {
		return
	}
	e.transitionLocked(StateBuffering)
}

func (e *Engine) onEnded(gen int) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, o := range observers {
		if ended, ok := o.(EndedObserver); ok {
			ended.Ended()
		}
	}
}

// failCurrent tears the failing client down and either advances to the next
// candidate or exhausts the list. The teardown completes before any
// replacement client is constructed.
func (e *Engine) failCurrent(gen int, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		return
	}
	e.gen++
	if e.client != nil {
		_ = e.client.Close()
		e.client = nil
	}
	e.transitionLocked(StateSourceError)

	if e.index >= len(e.cfg.Sources)-1 {
		metrics.PlaybackExhausted.Inc()
		e.lg.Warn().Err(cause).Msg("all sources exhausted")
		e.transitionLocked(StateExhausted)
		return
	}

	metrics.PlaybackFailovers.Inc()
	e.index++
	e.lastCheckpoint = e.clock()
	e.lg.Info().Int(log.FieldSourceIndex, e.index).Msg("failing over to next source")
	e.transitionLocked(StateLoading)
	e.startLoadLocked()
}

// transitionLocked moves the state machine and notifies observers. Caller
// holds the lock.
func (e *Engine) transitionLocked(to State) {
	if e.state == to {
		return
	}
	from := e.state
	e.state = to
	metrics.IncPlaybackTransition(string(from), string(to))
	e.lg.Debug().
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Int(log.FieldSourceIndex, e.index).
		Msg("state transition")
	for _, o := range e.observers {
		o.StateChanged(from, to, e.index)
	}
}
