package telegram

import (
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const modelCallbackPrefix = "model:"

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	name, ok := strings.CutPrefix(cb.Data, modelCallbackPrefix)
	if !ok || cb.Message == nil {
		_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
		return
	}
	cid := cb.Message.Chat.ID
	r.models.set(cid, name)
	current := r.chatModel(cid)
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "Модель: "+current))

	// перерисовать клавиатуру с новой отметкой
	edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID,
		makeModelsKeyboard(r.Detector.Catalog().Models(), current))
	if _, err := r.Bot.Send(edit); err != nil {
		log.Printf("telegram: edit models keyboard: %v", err)
	}
}
