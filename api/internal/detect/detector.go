package detect

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"damage-eval/api/internal/catalog"
	"damage-eval/api/internal/damage"
	"damage-eval/api/internal/util"
)

var (
	ErrNotImage     = errors.New("File must be an image")
	ErrInvalidImage = errors.New("File is not a valid image")
)

const fallbackMessage = "An internal error occurred during processing."

// Provider: внешний multimodal-провайдер.
type Provider interface {
	GenerateContent(ctx context.Context, model, prompt string, image []byte, mime string) (string, error)
}

// Recorder пишет каждую детекцию (аудит). Ошибки только логируются.
type Recorder interface {
	Record(ctx context.Context, rec damage.Record) error
}

type Options struct {
	Prompt     string        // пусто: DefaultPrompt
	Timeout    time.Duration // на вызов провайдера целиком
	Attempts   int
	RetryDelay time.Duration // линейный backoff: RetryDelay * attempt
	Recorder   Recorder
	Simulator  *Simulator
}

type Input struct {
	Image       []byte
	ContentType string
	Model       string // запрошенная; может не быть в каталоге

	Channel string // "http" | "telegram"
	ChatID  int64
}

type Detector struct {
	catalog  *catalog.Catalog
	provider Provider
	opt      Options
}

// New: без provider (nil) все запросы идут в режим симуляции.
func New(cat *catalog.Catalog, provider Provider, opt Options) *Detector {
	if opt.Prompt == "" {
		opt.Prompt = DefaultPrompt
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 60 * time.Second
	}
	if opt.Attempts < 1 {
		opt.Attempts = 1
	}
	if opt.RetryDelay <= 0 {
		opt.RetryDelay = 300 * time.Millisecond
	}
	if opt.Simulator == nil {
		opt.Simulator = NewSimulator(nil)
	}
	return &Detector{catalog: cat, provider: provider, opt: opt}
}

func (d *Detector) Catalog() *catalog.Catalog { return d.catalog }

// HasProvider: false означает, что все ответы будут "simulation".
func (d *Detector) HasProvider() bool { return d.provider != nil }

// Detect возвращает ошибку только для невалидного входа (ErrNotImage, ErrInvalidImage).
// Сбои провайдера всегда превращаются в Result.
func (d *Detector) Detect(ctx context.Context, in Input) (damage.Result, error) {
	if !util.IsImageContentType(in.ContentType) {
		return damage.Result{}, ErrNotImage
	}
	model := d.catalog.Resolve(in.Model)

	img, mime, err := prepareImage(in.Image)
	if err != nil {
		return damage.Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var res damage.Result
	if d.provider == nil {
		log.Printf("detect: no provider configured, returning simulated data")
		res = damage.Result{Damages: d.opt.Simulator.Generate(), Source: damage.SourceSimulation}
	} else {
		res = d.infer(ctx, model, img, mime)
	}

	d.record(ctx, in, res)
	return res, nil
}

func (d *Detector) infer(ctx context.Context, model string, img []byte, mime string) damage.Result {
	ctx, cancel := context.WithTimeout(ctx, d.opt.Timeout)
	defer cancel()

	log.Printf("detect: attempting to use model %s", model)
	txt, err := d.generate(ctx, model, img, mime)
	if err != nil {
		log.Printf("detect: error calling %s: %v", model, err)
		return d.fallback(model)
	}
	res, err := Interpret(txt, model)
	if err != nil {
		log.Printf("detect: %s: %v. Raw: %s", model, err, txt)
		return d.fallback(model)
	}
	return res
}

func (d *Detector) fallback(model string) damage.Result {
	return damage.Result{
		Damages:   d.opt.Simulator.Generate(),
		Source:    damage.SourceSimulationFallback,
		Error:     fallbackMessage,
		DebugInfo: fmt.Sprintf("Model: %s. Client valid: %t", model, d.provider != nil),
	}
}

// generate: ретраи на транзиентные сбои; отменённый контекст прерывает сразу.
func (d *Detector) generate(ctx context.Context, model string, img []byte, mime string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= d.opt.Attempts; attempt++ {
		txt, err := d.provider.GenerateContent(ctx, model, d.opt.Prompt, img, mime)
		if err == nil {
			return txt, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == d.opt.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", lastErr
		case <-time.After(time.Duration(attempt) * d.opt.RetryDelay):
		}
	}
	return "", lastErr
}

func (d *Detector) record(ctx context.Context, in Input, res damage.Result) {
	if d.opt.Recorder == nil {
		return
	}
	rec := damage.Record{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		Channel:        in.Channel,
		ChatID:         in.ChatID,
		RequestedModel: in.Model,
		Result:         res,
	}
	// отдельный таймаут: запись не должна зависеть от уже истёкшего запроса
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.opt.Recorder.Record(rctx, rec); err != nil {
		log.Printf("detect: record %s: %v", rec.ID, err)
	}
}
