package detect

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"damage-eval/api/internal/damage"
	"damage-eval/api/internal/util"
)

const (
	parseErrorMessage = "Failed to parse AI response"
	noVehicleMessage  = "No vehicle detected in the image. Please upload a clear photo of a car."
)

// ErrNotObject: ответ модели валидный JSON, но не объект. Обрабатывается как сбой провайдера.
var ErrNotObject = errors.New("reply is not a JSON object")

// Interpret превращает текст модели в Result.
// Синтаксически битый JSON: "gemini_error" с сырым текстом.
// Валидный JSON не-объект: ErrNotObject.
// Поля читаются мягко: is_car выключает детекцию только литералом false,
// из damages берутся элементы, которые удалось разобрать.
func Interpret(text, model string) (damage.Result, error) {
	clean := util.StripCodeFences(text)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &obj); err != nil || obj == nil {
		if json.Valid([]byte(clean)) {
			return damage.Result{}, ErrNotObject
		}
		log.Printf("detect: failed to parse JSON from %s: %v. Raw: %s", model, err, clean)
		return damage.Result{
			Damages: []damage.Damage{},
			Error:   parseErrorMessage,
			Raw:     clean,
			Source:  damage.SourceGeminiError,
		}, nil
	}

	if strings.TrimSpace(string(obj["is_car"])) == "false" {
		return damage.Result{
			Damages: []damage.Damage{},
			Source:  damage.SourceGemini,
			Model:   model,
			Error:   noVehicleMessage,
		}, nil
	}

	return damage.Result{
		Damages: decodeDamages(obj["damages"], model),
		Source:  damage.SourceGemini,
		Model:   model,
	}, nil
}

// decodeDamages: не массив -> пусто; неразборчивые элементы пропускаются.
func decodeDamages(raw json.RawMessage, model string) []damage.Damage {
	out := []damage.Damage{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("detect: %s: damages is not an array: %s", model, raw)
		return out
	}
	for _, it := range items {
		var d damage.Damage
		if err := json.Unmarshal(it, &d); err != nil {
			log.Printf("detect: %s: skip damage %s: %v", model, it, err)
			continue
		}
		out = append(out, d)
	}
	return out
}
