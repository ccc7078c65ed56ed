package file

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

const (
	SyncStateFile    = "sync_state.json"
	LimiterStateFile = "limiter_state.json"
)

// Store keeps sync and limiter state as JSON documents under one directory.
// A missing document reads as empty state. Writes replace the document
// atomically.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create state dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

type competitionStateDocument struct {
	PostID            string     `json:"post_id"`
	TrackedDates      []string   `json:"tracked_dates"`
	ThreadDates       []string   `json:"thread_dates,omitempty"`
	RoundLabel        string     `json:"round_label,omitempty"`
	LastPublishedHash string     `json:"last_published_hash,omitempty"`
	LastPublishedAt   *time.Time `json:"last_published_at,omitempty"`
}

func (s *Store) List(_ context.Context) ([]syncstate.CompetitionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readSyncStates()
	if err != nil {
		return nil, err
	}

	out := make([]syncstate.CompetitionState, 0, len(docs))
	for key, doc := range docs {
		out = append(out, stateFromDocument(key, doc))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompetitionKey < out[j].CompetitionKey
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, competitionKey string) (syncstate.CompetitionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readSyncStates()
	if err != nil {
		return syncstate.CompetitionState{}, false, err
	}
	doc, ok := docs[competitionKey]
	if !ok {
		return syncstate.CompetitionState{}, false, nil
	}
	return stateFromDocument(competitionKey, doc), true, nil
}

func (s *Store) Upsert(_ context.Context, state syncstate.CompetitionState) error {
	if state.CompetitionKey == "" {
		return errors.New("competition key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readSyncStates()
	if err != nil {
		return err
	}
	docs[state.CompetitionKey] = competitionStateDocument{
		PostID:            state.PostID,
		TrackedDates:      slices.Clone(state.TrackedDates),
		ThreadDates:       slices.Clone(state.ThreadDates),
		RoundLabel:        state.RoundLabel,
		LastPublishedHash: state.LastPublishedHash,
		LastPublishedAt:   state.LastPublishedAt,
	}
	return s.write(SyncStateFile, docs)
}

func (s *Store) LoadLimiterState(_ context.Context) (resilience.LimiterState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state resilience.LimiterState
	ok, err := s.read(LimiterStateFile, &state)
	if err != nil || !ok {
		return resilience.LimiterState{}, false, err
	}
	return state, true, nil
}

func (s *Store) SaveLimiterState(_ context.Context, state resilience.LimiterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(LimiterStateFile, state)
}

func (s *Store) readSyncStates() (map[string]competitionStateDocument, error) {
	docs := make(map[string]competitionStateDocument)
	if _, err := s.read(SyncStateFile, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = make(map[string]competitionStateDocument)
	}
	return docs, nil
}

func (s *Store) read(name string, target any) (bool, error) {
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "read %s", path)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return false, errors.Wrapf(err, "decode %s", path)
	}
	return true, nil
}

// write encodes value to a temp file in the same directory and renames it
// over the target so readers never observe a partial document.
func (s *Store) write(name string, value any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", name)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", name)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpPath)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return errors.Wrapf(err, "replace %s", name)
	}
	return nil
}

func stateFromDocument(key string, doc competitionStateDocument) syncstate.CompetitionState {
	return syncstate.CompetitionState{
		CompetitionKey:    key,
		PostID:            doc.PostID,
		TrackedDates:      syncstate.NormalizeDates(doc.TrackedDates),
		ThreadDates:       syncstate.NormalizeDates(doc.ThreadDates),
		RoundLabel:        doc.RoundLabel,
		LastPublishedHash: doc.LastPublishedHash,
		LastPublishedAt:   doc.LastPublishedAt,
	}
}
