package printing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"os"
	"strings"

	"github.com/erp/printd/internal/domain/printing"
	"go.uber.org/zap"
)

// logo returns the image to print above the store name: the profile's
// base64 logo, else the configured file. Anything that does not decode as an
// image is dropped.
func (r *Renderer) logo(store printing.StoreProfile) []byte {
	if store.Logo != "" {
		data, err := decodeLogo(store.Logo)
		if err == nil {
			err = checkImage(data)
		}
		if err == nil {
			return data
		}
		r.logger.Debug("store logo dropped", zap.Error(err))
	}

	if r.settings.LogoPath == "" {
		return nil
	}
	data, err := os.ReadFile(r.settings.LogoPath)
	if err == nil {
		err = checkImage(data)
	}
	if err != nil {
		r.logger.Debug("logo file dropped", zap.String("path", r.settings.LogoPath), zap.Error(err))
		return nil
	}
	return data
}

// decodeLogo accepts plain base64 or a data: URL
func decodeLogo(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		s = payload
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// checkImage decodes the whole image; a valid header over truncated pixel
// data must not reach the encoder.
func checkImage(data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if b := img.Bounds(); b.Empty() {
		return errors.New("empty image")
	}
	return nil
}
