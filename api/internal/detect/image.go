package detect

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"damage-eval/api/internal/util"
)

const maxPixels = 50_000_000

// prepareImage декодирует загрузку (проверка, что это вообще картинка) и
// отдаёт байты + MIME для провайдера. То, что Gemini не принимает, перекодируем в PNG.
func prepareImage(b []byte) ([]byte, string, error) {
	if len(b) == 0 {
		return nil, "", errors.New("empty file")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, "", fmt.Errorf("unsupported dimensions %dx%d", cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	mime := util.MimeForFormat(format)
	if util.ProviderAcceptsMime(mime) {
		return b, mime, nil
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, "", fmt.Errorf("re-encode %s: %w", format, err)
	}
	return out.Bytes(), "image/png", nil
}
