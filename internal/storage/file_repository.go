package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileDocumentVersion = 1

var errCorruptDocument = errors.New("storage: corrupt state file")

type fileHabit struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	IfThen     string      `json:"ifThen"`
	Tasks      []string    `json:"tasks"`
	Difficulty int         `json:"difficulty"`
	TargetDays int         `json:"targetDays"`
	Streak     int         `json:"streak"`
	XP         int         `json:"xp"`
	LastDone   *time.Time  `json:"lastDone"`
	History    []time.Time `json:"history"`
}

type fileSetting struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// fileDocument is the on-disk layout. Habits is nil until the first save.
type fileDocument struct {
	Version  int                    `json:"version"`
	Habits   *[]fileHabit           `json:"habits,omitempty"`
	Settings map[string]fileSetting `json:"settings,omitempty"`
}

// FileRepository keeps the whole state in a single JSON document, rewritten
// atomically on every change.
type FileRepository struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileRepository(path string) (*FileRepository, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("storage: state file path is required")
	}
	return &FileRepository{path: trimmed, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) LoadHabits(ctx context.Context) ([]Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Habits == nil {
		return nil, ErrNotFound
	}
	return fromFileHabits(*doc.Habits), nil
}

func (r *FileRepository) ListHabits(ctx context.Context, filter HabitListFilter) ([]Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Habits == nil {
		return []Habit{}, nil
	}
	all := fromFileHabits(*doc.Habits)
	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return all[start:end], nil
}

func (r *FileRepository) SaveHabits(ctx context.Context, habits []Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.readForWrite(ctx)
	if err != nil {
		return err
	}
	items := make([]fileHabit, 0, len(habits))
	for _, h := range habits {
		items = append(items, fileHabit{
			ID:         h.ID,
			Name:       h.Name,
			IfThen:     h.IfThen,
			Tasks:      nonNilTasks(h.Tasks),
			Difficulty: h.Difficulty,
			TargetDays: h.TargetDays,
			Streak:     h.Streak,
			XP:         h.XP,
			LastDone:   h.LastDone,
			History:    h.History,
		})
	}
	doc.Habits = &items
	return r.write(doc)
}

func (r *FileRepository) GetSetting(ctx context.Context, key string) (Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.read(ctx)
	if errors.Is(err, errCorruptDocument) {
		return Setting{}, ErrNotFound
	}
	if err != nil {
		return Setting{}, err
	}
	s, ok := doc.Settings[key]
	if !ok {
		return Setting{}, ErrNotFound
	}
	return Setting{Key: key, Value: s.Value, UpdatedAt: s.UpdatedAt}, nil
}

func (r *FileRepository) SetSetting(ctx context.Context, in Setting) error {
	if strings.TrimSpace(in.Key) == "" {
		return errors.New("storage: setting key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.readForWrite(ctx)
	if err != nil {
		return err
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = r.now()
	}
	if doc.Settings == nil {
		doc.Settings = make(map[string]fileSetting)
	}
	doc.Settings[in.Key] = fileSetting{Value: in.Value, UpdatedAt: in.UpdatedAt.UTC()}
	return r.write(doc)
}

func (r *FileRepository) read(ctx context.Context) (fileDocument, error) {
	if err := ctx.Err(); err != nil {
		return fileDocument{}, err
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileDocument{Version: fileDocumentVersion}, nil
		}
		return fileDocument{}, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return fileDocument{Version: fileDocumentVersion}, nil
	}
	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fileDocument{}, fmt.Errorf("%w: decode %s: %v", errCorruptDocument, r.path, err)
	}
	return doc, nil
}

// readForWrite is read for callers about to rewrite the document. An
// undecodable file is moved aside to path+".corrupt" and replaced by an
// empty document, so the next write succeeds.
func (r *FileRepository) readForWrite(ctx context.Context) (fileDocument, error) {
	doc, err := r.read(ctx)
	if !errors.Is(err, errCorruptDocument) {
		return doc, err
	}
	if err := os.Rename(r.path, r.CorruptPath()); err != nil {
		return fileDocument{}, fmt.Errorf("move corrupt state aside: %w", err)
	}
	return fileDocument{Version: fileDocumentVersion}, nil
}

// CorruptPath is where an undecodable state file is kept after the next
// write replaces it.
func (r *FileRepository) CorruptPath() string {
	return r.path + ".corrupt"
}

func (r *FileRepository) write(doc fileDocument) error {
	dir := filepath.Dir(r.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	doc.Version = fileDocumentVersion
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func fromFileHabits(in []fileHabit) []Habit {
	out := make([]Habit, 0, len(in))
	for i, h := range in {
		tasks := h.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		history := h.History
		if history == nil {
			history = []time.Time{}
		}
		out = append(out, Habit{
			ID:         h.ID,
			Position:   i,
			Name:       h.Name,
			IfThen:     h.IfThen,
			Tasks:      tasks,
			Difficulty: h.Difficulty,
			TargetDays: h.TargetDays,
			Streak:     h.Streak,
			XP:         h.XP,
			LastDone:   h.LastDone,
			History:    history,
		})
	}
	return out
}
