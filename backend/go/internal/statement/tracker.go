package statement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MedMemory/backend/go/internal/models"
)

// genericConcept 是没有具体症状时使用的键。
const genericConcept = "*"

// WindowKey 标识一个被跟踪的时间窗口：某个受试者的某个症状。
type WindowKey struct {
	SubjectID string
	Concept   string
}

// NewWindowKey 规整 concept，空值映射为通用键。
func NewWindowKey(subjectID, concept string) WindowKey {
	c := models.Normalize(concept)
	if c == "" {
		c = genericConcept
	}
	return WindowKey{SubjectID: subjectID, Concept: c}
}

func (k WindowKey) String() string {
	return fmt.Sprintf("%s:%s", k.SubjectID, k.Concept)
}

// WindowStore 保存每个键当前跟踪的窗口。没有记录时 LoadWindow 返回 (nil, nil)。
type WindowStore interface {
	LoadWindow(ctx context.Context, key WindowKey) (*models.TimeWindow, error)
	SaveWindow(ctx context.Context, key WindowKey, w models.TimeWindow) error
}

// MemoryWindowStore 是进程内的 WindowStore 实现。
type MemoryWindowStore struct {
	mu      sync.RWMutex
	windows map[WindowKey]models.TimeWindow
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{windows: make(map[WindowKey]models.TimeWindow)}
}

func (s *MemoryWindowStore) LoadWindow(_ context.Context, key WindowKey) (*models.TimeWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[key]
	if !ok {
		return nil, nil
	}
	c := cloneWindow(w)
	return &c, nil
}

func (s *MemoryWindowStore) SaveWindow(_ context.Context, key WindowKey, w models.TimeWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[key] = cloneWindow(w)
	return nil
}

// Observation 是一次窗口观察的结果。
type Observation struct {
	Action   models.WindowAction `json:"action"`
	Window   models.TimeWindow   `json:"window"`
	Previous *models.TimeWindow  `json:"previous,omitempty"`
}

// Tracker 在一次会话中按 WindowKey 跟踪时间窗口，保证后续更模糊的陈述不会降低精度。
// 同一键的调用需要由调用方串行化。
type Tracker struct {
	store   WindowStore
	gapDays int
	now     func() time.Time
}

// NewTracker 创建跟踪器，gapDays <= 0 时使用 DefaultWindowGapDays。
func NewTracker(store WindowStore, gapDays int) *Tracker {
	if gapDays <= 0 {
		gapDays = DefaultWindowGapDays
	}
	return &Tracker{store: store, gapDays: gapDays, now: time.Now}
}

// WithClock 替换跟踪器使用的时钟。
func (t *Tracker) WithClock(clock func() time.Time) *Tracker {
	t.now = clock
	return t
}

// Observe 把新窗口与已跟踪的窗口合并并保存。
// 第一次观察或 append 时，新窗口成为被跟踪的窗口。
func (t *Tracker) Observe(ctx context.Context, key WindowKey, w models.TimeWindow) (Observation, error) {
	prev, err := t.store.LoadWindow(ctx, key)
	if err != nil {
		return Observation{}, fmt.Errorf("读取时间窗口失败: %w", err)
	}

	obs := Observation{Action: models.WindowAppend, Window: cloneWindow(w), Previous: prev}
	if prev != nil {
		action, merged := updateTimeWindowAt(*prev, w, t.gapDays, startOfDay(t.now()))
		obs.Action = action
		if action != models.WindowAppend {
			obs.Window = merged
		}
	}

	if err := t.store.SaveWindow(ctx, key, obs.Window); err != nil {
		return Observation{}, fmt.Errorf("保存时间窗口失败: %w", err)
	}
	return obs, nil
}

// Current 返回键当前跟踪的窗口。
func (t *Tracker) Current(ctx context.Context, key WindowKey) (*models.TimeWindow, error) {
	return t.store.LoadWindow(ctx, key)
}
