package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"damage-eval/api/internal/damage"
	"damage-eval/api/internal/detect"
	"damage-eval/api/internal/util"
)

const (
	// Telegram ограничивает подпись к фото 1024 символами.
	maxCaption       = 1024
	maxAnnotatedEdge = 1280
)

var (
	colorDetected  = color.RGBA{R: 230, G: 30, B: 30, A: 255}
	colorSimulated = color.RGBA{R: 255, G: 150, B: 0, A: 255}
)

func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	ph := msg.Photo[len(msg.Photo)-1] // самое большое разрешение
	// Telegram пережимает фото в JPEG
	go r.runDetect(msg.Chat.ID, ph.FileID, ph.FileSize, "image/jpeg")
}

func (r *Router) acceptDocument(msg *tgbotapi.Message) {
	doc := msg.Document
	if !util.IsImageContentType(doc.MimeType) {
		r.send(msg.Chat.ID, "Файл должен быть изображением (JPEG, PNG, WebP).")
		return
	}
	go r.runDetect(msg.Chat.ID, doc.FileID, doc.FileSize, doc.MimeType)
}

func (r *Router) runDetect(chatID int64, fileID string, size int, mime string) {
	if limit := r.MaxUploadMB << 20; limit > 0 && int64(size) > limit {
		r.send(chatID, fmt.Sprintf("Файл слишком большой (максимум %d МБ).", r.MaxUploadMB))
		return
	}
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	ctx := context.Background()
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	data, err := r.download(ctx, url)
	if err != nil {
		r.SendError(chatID, err)
		return
	}

	res, err := r.Detector.Detect(ctx, detect.Input{
		Image:       data,
		ContentType: mime,
		Model:       r.chatModel(chatID),
		Channel:     "telegram",
		ChatID:      chatID,
	})
	switch {
	case errors.Is(err, detect.ErrNotImage):
		r.send(chatID, "Файл должен быть изображением (JPEG, PNG, WebP).")
		return
	case errors.Is(err, detect.ErrInvalidImage):
		log.Printf("telegram: chat %d: %v", chatID, err)
		r.send(chatID, "Не удалось прочитать изображение. Пришлите другое фото.")
		return
	case err != nil:
		r.SendError(chatID, err)
		return
	}

	summary := formatResult(res)
	if len(res.Damages) == 0 {
		r.send(chatID, summary)
		return
	}

	boxColor := colorDetected
	if res.Source == damage.SourceSimulation || res.Source == damage.SourceSimulationFallback {
		boxColor = colorSimulated
	}
	annotated, err := annotate(data, res.Damages, boxColor)
	if err != nil {
		log.Printf("telegram: annotate: %v", err)
		r.send(chatID, summary)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "damages.jpg", Bytes: annotated})
	photo.Caption = truncateRunes(summary, maxCaption)
	if _, err := r.Bot.Send(photo); err != nil {
		log.Printf("telegram: send photo: %v", err)
		r.send(chatID, summary)
	}
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	if r.Download != nil {
		return r.Download(ctx, url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download: status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// annotate рисует рамки повреждений с номерами поверх фото и отдаёт JPEG.
// Координаты box_2d нормированы в 0..1000. Невалидные рамки пропускаются, нумерация сохраняется.
func annotate(src []byte, damages []damage.Damage, boxColor color.RGBA) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	dst := fitRGBA(img, maxAnnotatedEdge)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	thick := min(w, h) / 200
	if thick < 2 {
		thick = 2
	}
	for i, d := range damages {
		if !d.Valid() {
			continue
		}
		rect := image.Rect(
			int(d.Box2D[1]*float64(w)/1000), int(d.Box2D[0]*float64(h)/1000),
			int(d.Box2D[3]*float64(w)/1000), int(d.Box2D[2]*float64(h)/1000),
		)
		strokeRect(dst, rect, thick, boxColor)
		drawLabel(dst, rect.Min, strconv.Itoa(i+1), boxColor)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fitRGBA копирует изображение в RGBA, уменьшая длинную сторону до maxEdge.
func fitRGBA(img image.Image, maxEdge int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	nw, nh := maxEdge, h*maxEdge/w
	if h > w {
		nw, nh = w*maxEdge/h, maxEdge
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(nw, 1), max(nh, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func strokeRect(dst *image.RGBA, r image.Rectangle, thick int, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick),
		image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y),
		image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, s := range sides {
		draw.Draw(dst, s.Intersect(r), u, image.Point{}, draw.Src)
	}
}

// drawLabel: номер повреждения на плашке в левом верхнем углу рамки.
func drawLabel(dst *image.RGBA, at image.Point, text string, bg color.Color) {
	face := basicfont.Face7x13
	tw := font.MeasureString(face, text).Ceil()
	plate := image.Rect(at.X, at.Y, at.X+tw+6, at.Y+16).Intersect(dst.Bounds())
	draw.Draw(dst, plate, image.NewUniform(bg), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(at.X+3, at.Y+12),
	}
	d.DrawString(text)
}
