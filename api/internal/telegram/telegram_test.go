package telegram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"damage-eval/api/internal/catalog"
	"damage-eval/api/internal/damage"
	"damage-eval/api/internal/detect"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.test/" + fileID, nil
}

// texts: тексты отправленных сообщений и подписи к фото.
func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		}
	}
	return out
}

type fakeHistory struct {
	recs []damage.Record
	err  error
}

func (h fakeHistory) ListByChat(_ context.Context, _ int64, _ int) ([]damage.Record, error) {
	return h.recs, h.err
}

func newRouter(bot *fakeBot) *Router {
	det := detect.New(catalog.New(nil), nil, detect.Options{})
	return &Router{Bot: bot, Detector: det, DefaultModel: "gemini-3-flash-preview", MaxUploadMB: 20}
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestStartAndUnknownCommand(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)
	r.HandleUpdate(tgbotapi.Update{Message: command(1, "/start")})
	r.HandleUpdate(tgbotapi.Update{Message: command(1, "/nope")})

	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "/models")
	assert.Contains(t, texts[1], "Неизвестная команда")
}

func TestModelCommand(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)

	// дефолт из конфига отсутствует в каталоге: берётся первая модель
	assert.Equal(t, catalog.DefaultModels[0], r.chatModel(7))

	r.HandleCommand(command(7, "/model gemini-2.0-flash"))
	assert.Equal(t, "gemini-2.0-flash", r.chatModel(7))

	r.HandleCommand(command(7, "/model gpt-4o"))
	assert.Equal(t, catalog.DefaultModels[0], r.chatModel(7))

	r.HandleCommand(command(7, "/model gemini-2.0-flash"))
	r.HandleCommand(command(7, "/model reset"))
	assert.Equal(t, catalog.DefaultModels[0], r.chatModel(7))

	texts := bot.texts()
	require.Len(t, texts, 4)
	assert.Equal(t, "✅ Модель: gemini-2.0-flash", texts[0])
	assert.Contains(t, texts[1], `"gpt-4o"`)

	// выбор одного чата не влияет на другой
	r.HandleCommand(command(8, "/model gemini-2.0-flash"))
	assert.Equal(t, catalog.DefaultModels[0], r.chatModel(7))
}

func TestModelsKeyboard(t *testing.T) {
	long := "gemini-" + strings.Repeat("x", 60)
	kb := makeModelsKeyboard([]string{"gemini-1.5-flash", "gemini-2.0-flash", long}, "gemini-2.0-flash")

	require.Len(t, kb.InlineKeyboard, 2)
	b0, b1 := kb.InlineKeyboard[0][0], kb.InlineKeyboard[1][0]
	assert.Equal(t, "gemini-1.5-flash", b0.Text)
	assert.Equal(t, "✅ gemini-2.0-flash", b1.Text)
	require.NotNil(t, b1.CallbackData)
	assert.Equal(t, "model:gemini-2.0-flash", *b1.CallbackData)
}

func TestModelCallback(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)
	r.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "model:gemini-2.0-flash",
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: 3}},
	}})

	assert.Equal(t, "gemini-2.0-flash", r.chatModel(3))
	require.Len(t, bot.requests, 1)
	ack, ok := bot.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "Модель: gemini-2.0-flash", ack.Text)
	require.Len(t, bot.sent, 1)
	_, ok = bot.sent[0].(tgbotapi.EditMessageReplyMarkupConfig)
	assert.True(t, ok)
}

func TestHistory(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)
	r.HandleCommand(command(1, "/history"))

	r.History = fakeHistory{recs: []damage.Record{{
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		Result: damage.Result{
			Source:  damage.SourceGemini,
			Model:   "gemini-2.0-flash",
			Damages: []damage.Damage{{Label: "Dent", Box2D: []float64{1, 2, 3, 4}, Score: 0.9}},
		},
	}}}
	r.HandleCommand(command(1, "/history"))

	r.History = fakeHistory{err: errors.New("db down")}
	r.HandleCommand(command(1, "/history"))

	texts := bot.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "недоступна")
	assert.Contains(t, texts[1], "gemini · gemini-2.0-flash · повреждений: 1")
	assert.Contains(t, texts[2], "db down")
}

func TestFormatResult(t *testing.T) {
	dmg := []damage.Damage{
		{Label: "Dent", Box2D: []float64{100, 100, 200, 200}, Score: 0.876},
		{Label: "Scratch", Box2D: []float64{300, 300, 400, 400}, Score: 0.5},
	}

	got := formatResult(damage.Result{Source: damage.SourceGemini, Model: "gemini-2.0-flash", Damages: dmg})
	assert.Contains(t, got, "Модель: gemini-2.0-flash")
	assert.Contains(t, got, "1) Dent — 88%")
	assert.Contains(t, got, "2) Scratch — 50%")

	got = formatResult(damage.Result{Source: damage.SourceGemini, Damages: []damage.Damage{}})
	assert.Contains(t, got, "Повреждений не найдено")

	got = formatResult(damage.Result{Source: damage.SourceGemini, Damages: []damage.Damage{}, Error: "No vehicle detected."})
	assert.Contains(t, got, "No vehicle detected.")
	assert.NotContains(t, got, "не найдено")

	got = formatResult(damage.Result{Source: damage.SourceSimulationFallback, Damages: dmg})
	assert.Contains(t, got, "смоделированный")

	got = formatResult(damage.Result{Source: damage.SourceGeminiError, Damages: []damage.Damage{}})
	assert.Contains(t, got, "Не удалось разобрать")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "абв", truncateRunes("абв", 3))
	assert.Equal(t, "аб…", truncateRunes("абвг", 3))
}

func TestFitRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2560, 1280))
	assert.Equal(t, image.Rect(0, 0, 1280, 640), fitRGBA(img, 1280).Bounds())

	img = image.NewRGBA(image.Rect(0, 0, 300, 900))
	assert.Equal(t, image.Rect(0, 0, 100, 300), fitRGBA(img, 300).Bounds())

	small := image.NewRGBA(image.Rect(5, 5, 45, 25))
	assert.Equal(t, image.Rect(0, 0, 40, 20), fitRGBA(small, 1280).Bounds())
}

func TestStrokeRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	red := color.RGBA{R: 255, A: 255}
	strokeRect(dst, image.Rect(10, 10, 50, 50), 2, red)

	assert.Equal(t, red, dst.RGBAAt(30, 10))
	assert.Equal(t, red, dst.RGBAAt(30, 49))
	assert.Equal(t, red, dst.RGBAAt(11, 30))
	assert.Equal(t, red, dst.RGBAAt(48, 30))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(30, 30))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(5, 5))

	// рамка за краем изображения обрезается
	strokeRect(dst, image.Rect(90, 90, 150, 150), 2, red)
	assert.Equal(t, red, dst.RGBAAt(95, 90))
}

func TestAnnotate(t *testing.T) {
	src := testJPEG(t, 1600, 800)
	out, err := annotate(src, []damage.Damage{
		{Label: "Dent", Box2D: []float64{100, 100, 500, 500}, Score: 0.9},
		{Label: "bad", Box2D: []float64{500, 500, 100, 100}, Score: 0.9},
	}, colorDetected)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1280, 640), img.Bounds())

	_, err = annotate([]byte("not an image"), nil, colorDetected)
	assert.Error(t, err)
}

func TestRunDetectSimulatedSendsAnnotatedPhoto(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)
	img := testJPEG(t, 320, 240)
	var gotURL string
	r.Download = func(_ context.Context, url string) ([]byte, error) {
		gotURL = url
		return img, nil
	}

	r.runDetect(5, "file-1", len(img), "image/jpeg")

	assert.Equal(t, "https://files.test/file-1", gotURL)
	require.Len(t, bot.sent, 1)
	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, int64(5), photo.ChatID)
	assert.Contains(t, photo.Caption, "Демо-режим")
	assert.Contains(t, photo.Caption, "1) ")
	fb, ok := photo.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	_, err := jpeg.Decode(bytes.NewReader(fb.Bytes))
	assert.NoError(t, err)
}

func TestRunDetectRejects(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)
	r.MaxUploadMB = 1
	downloads := 0
	r.Download = func(context.Context, string) ([]byte, error) {
		downloads++
		return []byte("garbage"), nil
	}

	r.runDetect(1, "big", 2<<20, "image/jpeg")
	assert.Equal(t, 0, downloads)

	r.runDetect(1, "bad", 10, "image/jpeg")
	assert.Equal(t, 1, downloads)

	r.runDetect(1, "err", 10, "application/pdf")

	texts := bot.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "слишком большой")
	assert.Contains(t, texts[1], "Не удалось прочитать")
	assert.Contains(t, texts[2], "должен быть изображением")
}

func TestDocumentNotImage(t *testing.T) {
	bot := &fakeBot{}
	r := newRouter(bot)
	r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 2},
		Document: &tgbotapi.Document{FileID: "d", MimeType: "application/pdf"},
	}})
	assert.Equal(t, []string{"Файл должен быть изображением (JPEG, PNG, WebP)."}, bot.texts())
}
