package filemgr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageSize = 10 << 20 // 10 MB
	thumbWidth   = 300
)

var (
	allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	allowedMIMEs      = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
)

// UploadDir is where images land; the router serves it back under
// /uploads/. Overridable via UPLOAD_DIR.
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

func isExtensionAllowed(ext string) bool {
	for _, e := range allowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func isMIMEAllowed(mime string) bool {
	for _, m := range allowedMIMEs {
		if m == mime {
			return true
		}
	}
	return false
}

// SaveImage validates and writes an image, returning the stored
// filename. The content is sniffed, not trusted from the client. A
// jpeg thumbnail is written alongside under thumb/ on a best-effort
// basis.
func SaveImage(data []byte, originalName string) (string, error) {
	if int64(len(data)) > MaxImageSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !isExtensionAllowed(ext) {
		return "", fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	sniffLen := len(data)
	if sniffLen > 512 {
		sniffLen = 512
	}
	mimeType := http.DetectContentType(data[:sniffLen])
	if !isMIMEAllowed(mimeType) {
		return "", fmt.Errorf("%w: %s", ErrInvalidMIME, mimeType)
	}

	dir := UploadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	if err := writeThumbnail(data, dir, filename); err != nil {
		// The original stays servable without its thumbnail.
		return filename, nil
	}
	return filename, nil
}

func writeThumbnail(data []byte, dir, filename string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)

	thumbDir := filepath.Join(dir, "thumb")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	out, err := os.Create(filepath.Join(thumbDir, base))
	if err != nil {
		return err
	}
	defer out.Close()
	return jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85})
}

// ReadAll reads at most MaxImageSize+1 bytes so oversized uploads are
// caught without buffering arbitrary input.
func ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, MaxImageSize+1))
}
