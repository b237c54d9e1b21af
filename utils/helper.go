package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// StringToObjectID converts string to MongoDB ObjectID
func StringToObjectID(s string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(s)
}

// IsValidObjectID checks if string is valid MongoDB ObjectID
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// NewStoredName mints a fresh globally unique stored name for a file,
// keeping the original extension so MIME detection keeps working. The
// uniqueness guarantee itself comes from the unique index on stored_name.
func NewStoredName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.NewString() + ext
}

// CopyVariantName derives the renamed form used when a duplicate is copied
// anyway: "report.pdf" becomes "report (Copy).pdf".
func CopyVariantName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + " (Copy)" + ext
}

// MimeTypeOf resolves a MIME type from the file extension.
func MimeTypeOf(filename string) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}

// FileTypeOf maps a MIME type onto the coarse category stored on file
// records.
func FileTypeOf(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	case strings.HasPrefix(mimeType, "audio/"):
		return "audio"
	case strings.Contains(mimeType, "pdf"),
		strings.Contains(mimeType, "document"),
		strings.HasPrefix(mimeType, "text/"):
		return "document"
	default:
		return "other"
	}
}

// GenerateSecureToken generates a random hex token of byteLen bytes.
func GenerateSecureToken(byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %v", err)
	}
	return hex.EncodeToString(buf), nil
}
