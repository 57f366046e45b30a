// Package catalog держит allow-list моделей, которые принимает /detect.
// Список строится один раз на старте и дальше только читается.
package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
)

var (
	// DefaultModels: если провайдер не настроен или список не получен.
	DefaultModels = []string{"gemini-1.5-flash", "gemini-2.0-flash"}

	// Priority: эти модели (если есть) ставим в начало, в порядке приоритета.
	Priority = []string{"gemini-2.0-flash", "gemini-1.5-flash"}
)

// Lister: всё, что каталогу нужно от провайдера.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type Catalog struct {
	models []string
}

// New строит каталог из готового списка (дубликаты и пустые отбрасываются).
func New(models []string) *Catalog {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 {
		out = append(out, DefaultModels...)
	}
	return &Catalog{models: out}
}

// Init пытается обновить список у провайдера. Любая ошибка: остаёмся на DefaultModels.
func Init(ctx context.Context, l Lister) *Catalog {
	if l == nil {
		return New(DefaultModels)
	}
	names, err := l.ListModels(ctx)
	if err != nil {
		log.Printf("catalog: failed to fetch models: %v", err)
		return New(DefaultModels)
	}
	fetched := Arrange(names)
	if len(fetched) == 0 {
		log.Printf("catalog: provider returned no usable models, keeping defaults")
		return New(DefaultModels)
	}
	log.Printf("catalog: loaded %d models", len(fetched))
	return New(fetched)
}

// Arrange фильтрует имена провайдера, сортирует и поднимает Priority наверх.
func Arrange(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, n := range names {
		n = strings.TrimPrefix(strings.TrimSpace(n), "models/")
		low := strings.ToLower(n)
		if !strings.Contains(low, "gemini") || strings.Contains(low, "embedding") {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)

	for i := len(Priority) - 1; i >= 0; i-- {
		p := Priority[i]
		idx := indexOf(out, p)
		if idx < 0 {
			continue
		}
		copy(out[1:idx+1], out[:idx])
		out[0] = p
	}
	return out
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}

// Models: копия списка.
func (c *Catalog) Models() []string {
	return append([]string(nil), c.models...)
}

func (c *Catalog) Contains(name string) bool {
	return indexOf(c.models, name) >= 0
}

// Resolve: запрошенная модель, если она в каталоге, иначе первая. Без ошибок.
func (c *Catalog) Resolve(requested string) string {
	if c.Contains(requested) {
		return requested
	}
	return c.models[0]
}
