package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"damage-eval/api/internal/damage"
	"damage-eval/api/internal/detect"
)

// Bot: то, что роутеру нужно от *tgbotapi.BotAPI.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// HistoryLister: источник /history (store.DetectionRepo).
type HistoryLister interface {
	ListByChat(ctx context.Context, chatID int64, limit int) ([]damage.Record, error)
}

type Router struct {
	Bot      Bot
	Detector *detect.Detector
	// History == nil: БД не настроена, /history недоступна.
	History      HistoryLister
	DefaultModel string
	MaxUploadMB  int64

	// Download скачивает файл Telegram; nil: обычный HTTP GET.
	Download func(ctx context.Context, url string) ([]byte, error)

	models chatModels
}

const helpText = "Пришлите фото автомобиля (или изображение файлом) — найду повреждения и отмечу их на снимке.\n" +
	"Команды:\n" +
	"/models — доступные модели\n" +
	"/model <имя> — выбрать модель (/model reset — по умолчанию)\n" +
	"/history — последние проверки\n" +
	"/health — статус"

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Document != nil:
		r.acceptDocument(msg)
	default:
		r.send(cid, "Пришлите фото автомобиля. /start — справка.")
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		mode := "Gemini"
		if !r.Detector.HasProvider() {
			mode = "симуляция (ключ API не задан)"
		}
		r.send(cid, "✅ OK\nРежим: "+mode+"\nМодель: "+r.chatModel(cid))
	case "models":
		r.sendModels(cid)
	case "model":
		r.setModel(cid, strings.TrimSpace(msg.CommandArguments()))
	case "history":
		r.sendHistory(cid)
	default:
		r.send(cid, "Неизвестная команда. /start — справка.")
	}
}

// chatModel: модель, с которой пойдёт следующий запрос чата.
func (r *Router) chatModel(chatID int64) string {
	requested := r.models.get(chatID)
	if requested == "" {
		requested = r.DefaultModel
	}
	return r.Detector.Catalog().Resolve(requested)
}

func (r *Router) sendModels(chatID int64) {
	models := r.Detector.Catalog().Models()
	msg := tgbotapi.NewMessage(chatID, "Доступные модели (текущая отмечена ✅):")
	msg.ReplyMarkup = makeModelsKeyboard(models, r.chatModel(chatID))
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send models: %v", err)
	}
}

func (r *Router) setModel(chatID int64, name string) {
	switch strings.ToLower(name) {
	case "":
		r.send(chatID, "Текущая модель: "+r.chatModel(chatID)+"\nИспользование: /model <имя>")
		return
	case "reset", "default":
		r.models.clear(chatID)
		r.send(chatID, "✅ Модель по умолчанию: "+r.chatModel(chatID))
		return
	}
	r.models.set(chatID, name)
	r.send(chatID, modelChosenText(name, r.chatModel(chatID)))
}

func (r *Router) sendHistory(chatID int64) {
	if r.History == nil {
		r.send(chatID, "История недоступна: база данных не настроена.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recs, err := r.History.ListByChat(ctx, chatID, historyLimit)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.send(chatID, formatHistory(recs))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send to %d: %v", chatID, err)
	}
}

func (r *Router) SendError(chatID int64, err error) {
	log.Printf("telegram: chat %d: %v", chatID, err)
	r.send(chatID, fmt.Sprintf("Ошибка: %v", err))
}
