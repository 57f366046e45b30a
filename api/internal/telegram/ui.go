package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"damage-eval/api/internal/damage"
)

// Telegram ограничивает callback_data 64 байтами.
const maxCallbackData = 64

// Клавиатура выбора модели: по кнопке в ряд, текущая отмечена.
func makeModelsKeyboard(models []string, current string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range models {
		data := modelCallbackPrefix + m
		if len(data) > maxCallbackData {
			continue
		}
		label := m
		if m == current {
			label = "✅ " + m
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modelChosenText(requested, resolved string) string {
	if requested == resolved {
		return "✅ Модель: " + resolved
	}
	return fmt.Sprintf("Модели %q нет в списке, использую %s.", requested, resolved)
}

// formatResult: текстовая сводка результата; номера совпадают с метками на фото.
func formatResult(res damage.Result) string {
	var b strings.Builder
	switch res.Source {
	case damage.SourceGemini:
		if res.Model != "" {
			b.WriteString("🔍 Модель: " + res.Model + "\n")
		}
	case damage.SourceGeminiError:
		b.WriteString("⚠️ Не удалось разобрать ответ модели.\n")
	case damage.SourceSimulation:
		b.WriteString("⚠️ Демо-режим: ИИ не настроен, результат смоделирован.\n")
	case damage.SourceSimulationFallback:
		b.WriteString("⚠️ Ошибка ИИ, показан смоделированный результат.\n")
	}
	if res.Error != "" && res.Source == damage.SourceGemini {
		b.WriteString(res.Error + "\n")
	}

	if len(res.Damages) == 0 {
		if res.Source == damage.SourceGemini && res.Error == "" {
			b.WriteString("✅ Повреждений не найдено.")
		}
		return strings.TrimSpace(b.String())
	}

	fmt.Fprintf(&b, "Найдено повреждений: %d\n", len(res.Damages))
	for i, d := range res.Damages {
		fmt.Fprintf(&b, "%d) %s — %d%%\n", i+1, d.Label, int(d.Score*100+0.5))
	}
	return strings.TrimSpace(b.String())
}

func formatHistory(recs []damage.Record) string {
	if len(recs) == 0 {
		return "История пуста."
	}
	var b strings.Builder
	b.WriteString("Последние проверки:\n")
	for _, rec := range recs {
		model := rec.Result.Model
		if model == "" {
			model = "—"
		}
		fmt.Fprintf(&b, "• %s · %s · %s · повреждений: %d\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Result.Source, model, len(rec.Result.Damages))
	}
	return strings.TrimSpace(b.String())
}

// truncateRunes обрезает по рунам, чтобы не резать UTF-8 посередине.
func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
