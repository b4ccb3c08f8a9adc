package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxPhotoBytes = 10 << 20

var errNotImage = errors.New("uploaded file is not a JPEG or PNG image")

// downloadPhoto saves the largest size of an uploaded photo to
// <temp>/photo_<userID>.jpg.
func (b *Bot) downloadPhoto(ctx context.Context, userID int64, sizes []tgbotapi.PhotoSize) (string, error) {
	if len(sizes) == 0 {
		return "", errors.New("update has no photo")
	}
	url, err := b.api.GetFileDirectURL(sizes[len(sizes)-1].FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve photo url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("photo download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/jpeg") && !strings.HasPrefix(ct, "image/png") {
		return "", fmt.Errorf("%w: %s", errNotImage, ct)
	}

	if err := os.MkdirAll(b.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	path := filepath.Join(b.tempDir, fmt.Sprintf("photo_%d.jpg", userID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}
	return path, nil
}
