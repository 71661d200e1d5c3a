package texture

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"
)

// decoderFor picks the decoder from the file extension. TGA has no magic
// number, so sniffing through image.Decode would misroute other formats.
func decoderFor(path string) (func(io.Reader) (image.Image, error), error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg":
		return jpeg.Decode, nil
	case ".png":
		return png.Decode, nil
	case ".tga":
		return tga.Decode, nil
	case ".webp":
		return webp.Decode, nil
	default:
		return nil, fmt.Errorf("texture: unknown extension %q: %s", ext, path)
	}
}

// Load decodes a JPEG, PNG, TGA or WebP file into NRGBA, flipped vertically
// so row 0 is the bottom of the picture and texture v grows upwards.
func Load(path string) (*image.NRGBA, error) {
	decode, err := decoderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	dst := toNRGBA(img)
	FlipVertical(dst)
	return dst, nil
}

// toNRGBA returns a copy of src as NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}

// FlipVertical mirrors img top to bottom in place.
func FlipVertical(img *image.NRGBA) {
	h := img.Rect.Dy()
	row := img.Rect.Dx() * 4
	tmp := make([]byte, row)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+row]
		bot := img.Pix[(h-1-y)*img.Stride : (h-1-y)*img.Stride+row]
		copy(tmp, top)
		copy(top, bot)
		copy(bot, tmp)
	}
}
