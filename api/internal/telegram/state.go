package telegram

import "sync"

const historyLimit = 5

// chatModels: chatID -> выбранная модель (как её прислал пользователь).
type chatModels struct {
	m sync.Map
}

func (c *chatModels) set(chatID int64, model string) { c.m.Store(chatID, model) }

func (c *chatModels) get(chatID int64) string {
	if v, ok := c.m.Load(chatID); ok {
		if s, _ := v.(string); s != "" {
			return s
		}
	}
	return ""
}

func (c *chatModels) clear(chatID int64) { c.m.Delete(chatID) }
