package staging

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"hercules_trading/internal/models"
	"hercules_trading/internal/store"
)

// Verdict is the three-way classification of a free-text reply.
type Verdict int

const (
	Unclear Verdict = iota
	Affirm
	Deny
)

// Closed confirm/discard vocabulary. Anything else is Unclear.
var affirmWords = map[string]bool{
	"yes": true, "y": true, "confirm": true, "ok": true, "save": true, "yep": true,
}

var denyWords = map[string]bool{
	"no": true, "n": true, "cancel": true, "discard": true, "nope": true,
}

// Classify maps free text onto the closed vocabulary.
func Classify(text string) Verdict {
	word := strings.ToLower(strings.TrimSpace(text))
	word = strings.TrimRight(word, ".!")
	switch {
	case affirmWords[word]:
		return Affirm
	case denyWords[word]:
		return Deny
	default:
		return Unclear
	}
}

// State names the outcome of a Resolve call.
type State int

const (
	StateNoDraft State = iota // no draft pending; reply ignored
	StateSaved
	StateDiscarded
	StateUnclear // draft unchanged; re-prompt
)

// Resolution reports what Resolve did.
type Resolution struct {
	State State
	ID    int64              // new position id when State == StateSaved
	Draft *models.StagedDraft // the draft the resolution applied to
}

// PositionCreator is the slice of the store the machine commits through.
type PositionCreator interface {
	Create(p store.CreateParams) (int64, error)
}

// Machine holds at most one staged draft per owner and resolves it on an
// explicit confirm or discard. All operations for one owner are serialized
// behind an owner-scoped mutex, so a stage/confirm sequence can never
// interleave with another message from the same owner.
type Machine struct {
	mu     sync.Mutex
	drafts map[int64]*models.StagedDraft
	locks  map[int64]*sync.Mutex
	saver  PositionCreator
	log    zerolog.Logger
}

func NewMachine(saver PositionCreator, log zerolog.Logger) *Machine {
	return &Machine{
		drafts: make(map[int64]*models.StagedDraft),
		locks:  make(map[int64]*sync.Mutex),
		saver:  saver,
		log:    log.With().Str("component", "staging").Logger(),
	}
}

func (m *Machine) ownerLock(owner int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[owner]
	if !ok {
		l = &sync.Mutex{}
		m.locks[owner] = l
	}
	return l
}

// Stage installs a draft for the owner. A second extraction while a draft is
// still pending is rejected and the pending draft returned: silently dropping
// staged input loses state with no trace.
func (m *Machine) Stage(owner int64, draft *models.StagedDraft) (pending *models.StagedDraft, ok bool) {
	l := m.ownerLock(owner)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, exists := m.drafts[owner]; exists {
		return existing, false
	}
	m.drafts[owner] = draft
	m.log.Info().Int64("owner", owner).Str("ticker", draft.Ticker).Msg("Draft staged")
	return draft, true
}

// Pending returns the owner's staged draft, if any.
func (m *Machine) Pending(owner int64) (*models.StagedDraft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[owner]
	return d, ok
}

// Resolve drives the STAGED -> {SAVED, DISCARDED} transitions from a free-text
// reply. The owner lock is held across the store write, so the check-then-
// commit sequence is atomic per owner.
func (m *Machine) Resolve(owner int64, text string) (Resolution, error) {
	l := m.ownerLock(owner)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	draft, ok := m.drafts[owner]
	m.mu.Unlock()
	if !ok {
		return Resolution{State: StateNoDraft}, nil
	}

	switch Classify(text) {
	case Affirm:
		open := draft.OpenDate
		id, err := m.saver.Create(store.CreateParams{
			Owner:       owner,
			Ticker:      draft.Ticker,
			Strategy:    draft.Strategy,
			ShortStrike: draft.ShortStrike,
			LongStrike:  draft.LongStrike,
			EntryCredit: draft.EntryCredit,
			OpenDate:    &open,
			ExpiryDate:  draft.ExpiryDate,
		})
		if err != nil {
			// Draft stays staged so the user can fix nothing and retry,
			// or discard explicitly.
			return Resolution{State: StateUnclear, Draft: draft}, err
		}

		m.clear(owner)
		m.log.Info().Int64("owner", owner).Int64("id", id).Msg("Draft confirmed")
		return Resolution{State: StateSaved, ID: id, Draft: draft}, nil

	case Deny:
		m.clear(owner)
		m.log.Info().Int64("owner", owner).Str("ticker", draft.Ticker).Msg("Draft discarded")
		return Resolution{State: StateDiscarded, Draft: draft}, nil

	default:
		return Resolution{State: StateUnclear, Draft: draft}, nil
	}
}

func (m *Machine) clear(owner int64) {
	m.mu.Lock()
	delete(m.drafts, owner)
	m.mu.Unlock()
}
