package media

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const (
	AvatarSize    = 256
	avatarQuality = 80

	// MaxUploadBytes bounds what handlers read from a multipart upload.
	MaxUploadBytes = 5 << 20
)

var ErrUnsupportedImage = errors.New("unsupported_image")

// Avatar decodes a JPEG, PNG or WebP image, crops it to a centred square,
// scales it down to AvatarSize and encodes it as WebP.
func Avatar(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	crop := squareCrop(src.Bounds())
	if crop.Empty() {
		return nil, ErrUnsupportedImage
	}

	side := AvatarSize
	if crop.Dx() < side {
		side = crop.Dx()
	}

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, dst, &webp.Options{Quality: avatarQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func squareCrop(b image.Rectangle) image.Rectangle {
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	return image.Rect(x, y, x+side, y+side)
}
