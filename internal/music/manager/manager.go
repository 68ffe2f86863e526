// Package manager owns every guild's playback session: its queue, voice link
// and player. All state transitions of one session run under that session's
// lock; the lock order is session before registry.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/keshon/guild-jukebox/internal/music/player"
	"github.com/keshon/guild-jukebox/internal/music/queue"
	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/keshon/guild-jukebox/internal/music/voice"
	"github.com/rs/zerolog"
)

var (
	ErrJoinFailed = errors.New("failed to join voice channel")
	// ErrClosedWhileJoining is wrapped by ErrJoinFailed when Stop or Shutdown
	// ended the session before its voice join completed.
	ErrClosedWhileJoining = errors.New("session closed while joining")
)

type PlayOutcome int

const (
	OutcomeNowPlaying PlayOutcome = iota
	OutcomeQueued
)

// PlayResult reports what a Play request did. Position is 1-based.
type PlayResult struct {
	Outcome  PlayOutcome
	Track    sources.Track
	Position int
}

type Options struct {
	Source sources.StreamSource
	Joiner voice.Joiner
	Player player.Options
	// EventBuffer sizes the Events channel. Events are dropped when it is full.
	EventBuffer int
	Logger      zerolog.Logger
}

type Manager struct {
	source     sources.StreamSource
	joiner     voice.Joiner
	playerOpts player.Options
	log        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session

	events chan Event
}

func New(opts Options) *Manager {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 32
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		source:     opts.Source,
		joiner:     opts.Joiner,
		playerOpts: opts.Player,
		log:        opts.Logger.With().Str("component", "manager").Logger(),
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[string]*session),
		events:     make(chan Event, opts.EventBuffer),
	}
}

// Events delivers best-effort playback notifications for all guilds.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Play joins channelID and starts track when the guild has no session,
// otherwise it appends track to the guild's queue.
func (m *Manager) Play(ctx context.Context, guildID, channelID string, track sources.Track) (PlayResult, error) {
	if track.IsZero() {
		return PlayResult{}, queue.ErrEmptyTrack
	}

	for {
		m.mu.Lock()
		s, ok := m.sessions[guildID]
		if !ok {
			s = newSession(guildID, channelID)
			// Nobody else can reach s yet, so locking it under the registry lock is safe.
			s.mu.Lock()
			m.sessions[guildID] = s
			m.mu.Unlock()
			return m.open(ctx, s, track)
		}
		m.mu.Unlock()

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			continue
		}
		if !s.isJoined() {
			joined := s.joined
			s.mu.Unlock()
			select {
			case <-joined:
			case <-ctx.Done():
				return PlayResult{}, ctx.Err()
			}
			continue
		}
		pos, err := s.queue.Enqueue(track)
		s.mu.Unlock()
		if err != nil {
			return PlayResult{}, err
		}
		s.log(m.log).Debug().Str("url", track.URL).Int("position", pos).Msg("track queued")
		return PlayResult{Outcome: OutcomeQueued, Track: track, Position: pos}, nil
	}
}

// open joins the voice channel for a new, locked session and starts its first
// track. The session lock is released for the join itself, so Stop and
// Shutdown can cancel it; other Play calls wait on s.joined.
func (m *Manager) open(ctx context.Context, s *session, track sources.Track) (PlayResult, error) {
	log := s.log(m.log)
	if _, err := s.queue.Enqueue(track); err != nil {
		m.closeLocked(s, "", nil)
		close(s.joined)
		s.mu.Unlock()
		return PlayResult{}, err
	}
	s.state = StateJoining
	attempt, jctx := s.nextAttempt(ctx)
	s.mu.Unlock()

	link, err := m.joiner.Join(jctx, s.guildID, s.channelID)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(s.joined)

	if s.closed || s.attempt != attempt {
		if link != nil {
			if terr := link.Teardown(); terr != nil {
				log.Warn().Err(terr).Msg("voice teardown failed")
			}
		}
		log.Info().Str("channel", s.channelID).Msg("session closed while joining")
		return PlayResult{}, fmt.Errorf("%w: %w", ErrJoinFailed, ErrClosedWhileJoining)
	}
	if err != nil {
		m.closeLocked(s, "", nil)
		log.Warn().Err(err).Str("channel", s.channelID).Msg("voice join failed")
		return PlayResult{}, fmt.Errorf("%w: %v", ErrJoinFailed, err)
	}

	popts := m.playerOpts
	popts.Logger = *log
	s.link = link
	s.player = player.New(m.source, link, popts)

	log.Info().Str("url", track.URL).Str("source", m.source.SourceName()).Msg("session opened")
	m.startHead(s)
	return PlayResult{Outcome: OutcomeNowPlaying, Track: track, Position: 1}, nil
}

// Stop clears the queue, stops playback and leaves the voice channel.
// It reports false when the guild had no session.
func (m *Manager) Stop(guildID string) bool {
	s := m.lookup(guildID)
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	m.closeLocked(s, "", nil)
	return true
}

// Skip abandons the head track and moves on to the next one, or closes the
// session when none is left. It returns the skipped track.
func (m *Manager) Skip(guildID string) (sources.Track, bool) {
	s := m.lookup(guildID)
	if s == nil {
		return sources.Track{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	head, ok := s.queue.Peek()
	if s.closed || !ok || s.player == nil {
		// Still joining: nothing is playing yet.
		return sources.Track{}, false
	}

	s.endAttempt()
	s.player.Stop()
	s.queue.Advance()
	s.log(m.log).Info().Str("url", head.URL).Int("remaining", s.queue.Len()).Msg("track skipped")
	m.startHead(s)
	return head, true
}

// List returns the guild's queue in play order, empty when there is no session.
func (m *Manager) List(guildID string) []queue.Entry {
	s := m.lookup(guildID)
	if s == nil {
		return []queue.Entry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return []queue.Entry{}
	}
	return s.queue.List()
}

// State returns the guild's playback state; StateIdle when there is no session.
func (m *Manager) State(guildID string) State {
	s := m.lookup(guildID)
	if s == nil {
		return StateIdle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Disconnect tears the session down after the bot was removed from
// channelID outside of a Stop.
func (m *Manager) Disconnect(guildID, channelID string) bool {
	s := m.lookup(guildID)
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.link == nil || s.channelID != channelID {
		return false
	}
	m.closeLocked(s, EventConnectionLost, voice.ErrTransportLost)
	return true
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.mu.Lock()
		if !s.closed {
			m.closeLocked(s, "", nil)
		}
		s.mu.Unlock()
	}
	m.cancel()
}

func (m *Manager) lookup(guildID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[guildID]
}

func (m *Manager) remove(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.guildID] == s {
		delete(m.sessions, s.guildID)
	}
}

// startHead begins loading the head track or closes the session when the
// queue is empty. Caller holds s.mu.
func (m *Manager) startHead(s *session) {
	track, ok := s.queue.Peek()
	if !ok {
		m.closeLocked(s, EventQueueFinished, nil)
		return
	}

	attempt, ctx := s.nextAttempt(m.ctx)
	s.state = StateLoading
	go m.load(ctx, s, attempt, track)
}

func (m *Manager) load(ctx context.Context, s *session, attempt uint64, track sources.Track) {
	pb, err := s.player.Play(ctx, track)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.attempt != attempt {
		// A stale playback was already stopped or superseded by the player.
		return
	}

	if err != nil {
		m.emit(s, EventTrackFailed, track, err)
		s.queue.Advance()
		m.startHead(s)
		return
	}

	s.queue.SetHeadTitle(track.URL, pb.Track.Title)
	s.state = StatePlaying
	m.emit(s, EventNowPlaying, pb.Track, nil)
	go m.watch(s, attempt, pb)
}

// watch runs the advance protocol once the playback ends on its own.
func (m *Manager) watch(s *session, attempt uint64, pb *player.Playback) {
	res, ok := <-pb.Done()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.attempt != attempt {
		return
	}

	if errors.Is(res, voice.ErrTransportLost) {
		m.closeLocked(s, EventConnectionLost, res)
		return
	}
	if res != nil {
		m.emit(s, EventPlaybackFailed, pb.Track, res)
	}
	s.queue.Advance()
	m.startHead(s)
}

// closeLocked ends the session. Caller holds s.mu. An empty kind emits nothing.
func (m *Manager) closeLocked(s *session, kind EventKind, cause error) {
	s.closed = true
	s.endAttempt()
	s.state = StateIdle
	if s.player != nil {
		s.player.Stop()
	}
	s.queue.Clear()

	log := s.log(m.log)
	if s.link != nil {
		if err := s.link.Teardown(); err != nil {
			log.Warn().Err(err).Msg("voice teardown failed")
		}
	}
	m.remove(s)
	log.Info().Str("reason", string(kind)).Msg("session closed")

	if kind != "" {
		m.emit(s, kind, sources.Track{}, cause)
	}
}

func (m *Manager) emit(s *session, kind EventKind, track sources.Track, err error) {
	ev := Event{
		Kind:      kind,
		GuildID:   s.guildID,
		SessionID: s.id,
		Track:     track,
		Err:       err,
	}
	select {
	case m.events <- ev:
	default:
		s.log(m.log).Warn().Str("event", string(kind)).Msg("event dropped (channel full)")
	}
}

type session struct {
	id        string
	guildID   string
	channelID string

	// joined is closed once the voice join has finished, either way.
	joined chan struct{}

	mu      sync.Mutex
	queue   *queue.Queue
	link    voice.Link
	player  *player.Player
	state   State
	attempt uint64
	cancel  context.CancelFunc
	closed  bool
}

func newSession(guildID, channelID string) *session {
	return &session{
		id:        uuid.NewString(),
		guildID:   guildID,
		channelID: channelID,
		queue:     queue.New(),
		state:     StateIdle,
		joined:    make(chan struct{}),
	}
}

func (s *session) isJoined() bool {
	select {
	case <-s.joined:
		return true
	default:
		return false
	}
}

// nextAttempt invalidates the running attempt and returns a fresh one whose
// context lives until the following attempt or close. Caller holds s.mu.
func (s *session) nextAttempt(parent context.Context) (uint64, context.Context) {
	s.endAttempt()
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return s.attempt, ctx
}

func (s *session) endAttempt() {
	s.attempt++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *session) log(base zerolog.Logger) *zerolog.Logger {
	l := base.With().Str("guild", s.guildID).Str("session", s.id).Logger()
	return &l
}
