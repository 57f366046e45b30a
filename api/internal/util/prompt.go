package util

import (
	"fmt"
	"os"
	"strings"
)

// LoadPrompt читает промпт из файла; пустой путь: вернуть def.
func LoadPrompt(path, def string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return def, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("prompt %q: %w", path, err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return def, fmt.Errorf("prompt %q is empty", path)
	}
	return s, nil
}
