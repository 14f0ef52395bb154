package capability

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/veil-im/veil/internal/model"
)

// MediaStore writes message assets into the session media directory.
// Asset names are what message contents reference; the store never
// reuses a name.
type MediaStore struct {
	dir string
}

// NewMediaStore creates the directory if needed.
func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &MediaStore{dir: dir}, nil
}

// Dir returns the media directory path.
func (m *MediaStore) Dir() string { return m.dir }

// Path resolves an asset name to its on-disk path.
func (m *MediaStore) Path(ref string) string {
	return filepath.Join(m.dir, filepath.Base(ref))
}

// SaveImage decodes a base64 data URL and stores it under
// "<contact>_<unix-ts>.png", suffixing "(n)" before the extension on
// collision. Returns the stored asset name.
func (m *MediaStore) SaveImage(contactID model.ContactID, dataURL string, now time.Time) (string, error) {
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d_%d.png", contactID, now.Unix())
	return m.save(name, raw)
}

// SaveAudio stores raw audio bytes under "<contact>_<unix-ts>.wav".
func (m *MediaStore) SaveAudio(contactID model.ContactID, raw []byte, now time.Time) (string, error) {
	name := fmt.Sprintf("%d_%d.wav", contactID, now.Unix())
	return m.save(name, raw)
}

// StegoName builds the asset name the steganographic encoder uses,
// carrying the suffix that marks it decodable.
func StegoName(contactID model.ContactID, now time.Time) string {
	return fmt.Sprintf("%d_%d%s", contactID, now.Unix(), model.StegoSuffix)
}

func (m *MediaStore) save(name string, raw []byte) (string, error) {
	final := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(m.dir, final)); os.IsNotExist(err) {
			break
		}
		final = fmt.Sprintf("%s(%d)%s", base, n, ext)
	}
	if err := os.WriteFile(filepath.Join(m.dir, final), raw, 0o600); err != nil {
		return "", fmt.Errorf("save media %s: %w", final, err)
	}
	return final, nil
}

func decodeDataURL(dataURL string) ([]byte, error) {
	_, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return raw, nil
}
