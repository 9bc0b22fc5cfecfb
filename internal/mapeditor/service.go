package mapeditor

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"campaign-server/internal/shared/errors"

	"github.com/google/uuid"
)

type mapSession struct {
	editor    *Editor
	autoSaver *AutoSaver
	createdAt time.Time
}

type MapSummary struct {
	ID        string    `json:"id"`
	CityCount int       `json:"cityCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service keeps one Editor per open map and the backend used to save them.
type Service struct {
	mu            sync.RWMutex
	maps          map[string]*mapSession
	kv            KVStore
	opts          Options
	autoSaveDelay time.Duration
	logger        *slog.Logger
}

// NewService builds a map registry. An autoSaveDelay of zero disables auto-save.
func NewService(kv KVStore, opts Options, autoSaveDelay time.Duration, logger *slog.Logger) *Service {
	logger.Debug("Initializing map editor service", "auto_save_delay", autoSaveDelay)
	opts.Logger = logger
	return &Service{
		maps:          make(map[string]*mapSession),
		kv:            kv,
		opts:          opts.withDefaults(),
		autoSaveDelay: autoSaveDelay,
		logger:        logger,
	}
}

// CreateMap opens a new editor. An empty id gets a generated one.
func (s *Service) CreateMap(id string, initial []City) (string, *Editor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	logger := s.logger.With("component", "map_service", "operation", "create_map", "map_id", id)

	editor, err := NewEditor(initial, s.opts)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.maps[id]; exists {
		return "", nil, errors.Conflictf("map %s already exists", id)
	}

	session := &mapSession{editor: editor, createdAt: s.opts.Now()}
	if s.kv != nil && s.autoSaveDelay > 0 {
		session.autoSaver = NewAutoSaver(editor, s.kv, id, s.autoSaveDelay, s.logger)
	}
	s.maps[id] = session

	logger.Info("Map created", "cities", len(initial), "auto_save", session.autoSaver != nil)
	return id, editor, nil
}

func (s *Service) GetMap(id string) (*Editor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.maps[id]
	if !ok {
		return nil, errors.NotFoundf("map %s not found", id)
	}
	return session.editor, nil
}

func (s *Service) ListMaps() []MapSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]MapSummary, 0, len(s.maps))
	for id, session := range s.maps {
		summaries = append(summaries, MapSummary{
			ID:        id,
			CityCount: len(session.editor.State().Cities),
			CreatedAt: session.createdAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt) ||
			(summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) && summaries[i].ID < summaries[j].ID)
	})
	return summaries
}

// DeleteMap closes the editor. Saved data in the backend is kept.
func (s *Service) DeleteMap(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.maps[id]
	if !ok {
		return errors.NotFoundf("map %s not found", id)
	}
	if session.autoSaver != nil {
		session.autoSaver.Close()
	}
	delete(s.maps, id)

	s.logger.Info("Map closed", "component", "map_service", "map_id", id)
	return nil
}

func (s *Service) saveKey(id, key string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	return id
}

// SaveMap writes the map to the backend under key, or under its id when key is empty.
func (s *Service) SaveMap(ctx context.Context, id, key string) (string, error) {
	editor, err := s.GetMap(id)
	if err != nil {
		return "", err
	}
	if s.kv == nil {
		return "", errors.Validation("no storage backend configured")
	}
	key = s.saveKey(id, key)
	return key, editor.SaveTo(ctx, s.kv, key)
}

func (s *Service) LoadMap(ctx context.Context, id, key string) (LoadResult, error) {
	editor, err := s.GetMap(id)
	if err != nil {
		return LoadResult{}, err
	}
	if s.kv == nil {
		return LoadResult{Success: false, Error: "no storage backend configured"}, nil
	}
	return editor.LoadFrom(ctx, s.kv, s.saveKey(id, key)), nil
}

// Close flushes pending auto-saves and stops their timers.
func (s *Service) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.maps {
		if session.autoSaver == nil {
			continue
		}
		if _, err := session.autoSaver.Flush(ctx); err != nil {
			s.logger.Error("Final auto-save failed", "map_id", id, "error", err)
		}
		session.autoSaver.Close()
	}
}
