package capability

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/veil-im/veil/internal/model"
)

// LSBCodec hides text in the least significant bit of each color
// channel. The payload is a 32-bit big-endian length followed by the
// UTF-8 bytes, written across R, G, B of each pixel in row order.
// Output is always PNG; lossy formats would destroy the payload.
type LSBCodec struct {
	media *MediaStore
}

// NewLSBCodec creates a codec writing into the session media store.
func NewLSBCodec(media *MediaStore) *LSBCodec {
	return &LSBCodec{media: media}
}

// Encode embeds text into the image and stores the result under the
// stego naming convention. done receives the stored asset name, empty
// when embedding failed after the work started.
func (c *LSBCodec) Encode(ctx context.Context, contactRef, imageDataURL, text string, done func(string)) error {
	raw, err := decodeDataURL(imageDataURL)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	go func() {
		name := ""
		if out, err := embed(img, []byte(text)); err == nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, out); err == nil {
				stored, err := c.media.save(fmt.Sprintf("%s_%d%s", contactRef, time.Now().Unix(), model.StegoSuffix), buf.Bytes())
				if err == nil {
					name = stored
				}
			}
		}
		select {
		case <-ctx.Done():
		default:
			done(name)
		}
	}()
	return nil
}

// Decode recovers hidden text from a stored asset. done always fires
// once the asset is readable, empty when the image carries no payload.
func (c *LSBCodec) Decode(ctx context.Context, imageRef string, done func(string)) error {
	raw, err := os.ReadFile(c.media.Path(imageRef))
	if err != nil {
		return fmt.Errorf("read asset %s: %w", imageRef, err)
	}

	go func() {
		text := ""
		if img, _, err := image.Decode(bytes.NewReader(raw)); err == nil {
			if s, ok := extract(img); ok {
				text = s
			}
		}
		select {
		case <-ctx.Done():
		default:
			done(text)
		}
	}()
	return nil
}

func embed(src image.Image, payload []byte) (*image.NRGBA, error) {
	bounds := src.Bounds()
	capacityBits := bounds.Dx() * bounds.Dy() * 3

	data := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(data, uint32(len(payload)))
	copy(data[4:], payload)
	if len(data)*8 > capacityBits {
		return nil, errors.New("image too small for payload")
	}

	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), src, bounds.Min, draw.Src)

	bit, total := 0, len(data)*8
	for y := 0; y < bounds.Dy() && bit < total; y++ {
		for x := 0; x < bounds.Dx() && bit < total; x++ {
			idx := out.PixOffset(x, y)
			for ch := 0; ch < 3 && bit < total; ch++ {
				v := (data[bit/8] >> (7 - bit%8)) & 1
				out.Pix[idx+ch] = out.Pix[idx+ch]&0xFE | v
				bit++
			}
		}
	}
	return out, nil
}

func extract(src image.Image) (string, bool) {
	bounds := src.Bounds()
	nrgba, ok := src.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)
	}

	capacityBits := bounds.Dx() * bounds.Dy() * 3
	readByte := func(bit int) (byte, bool) {
		var b byte
		for i := 0; i < 8; i++ {
			pos := bit + i
			if pos >= capacityBits {
				return 0, false
			}
			pixel := pos / 3
			x, y := pixel%bounds.Dx(), pixel/bounds.Dx()
			idx := nrgba.PixOffset(x, y) + pos%3
			b = b<<1 | nrgba.Pix[idx]&1
		}
		return b, true
	}

	var header [4]byte
	for i := range header {
		b, ok := readByte(i * 8)
		if !ok {
			return "", false
		}
		header[i] = b
	}
	n := binary.BigEndian.Uint32(header[:])
	if n == 0 || int(n) > (capacityBits/8)-4 {
		return "", false
	}

	payload := make([]byte, n)
	for i := range payload {
		b, ok := readByte((4 + i) * 8)
		if !ok {
			return "", false
		}
		payload[i] = b
	}
	return string(payload), true
}
