package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
)

// FileInfo carries everything the file service needs to persist one upload.
type FileInfo struct {
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
	FileType     string `json:"file_type"`
	Hash         string `json:"hash"`
	PhysicalPath string `json:"physical_path"`
}

// ProcessFileUpload validates an uploaded file and derives its stored
// identity: content hash, minted stored name and the physical path the
// bytes will live at.
func ProcessFileUpload(file *multipart.FileHeader) (*FileInfo, error) {
	if err := ValidateFileSize(file.Size); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	hash, err := CalculateFileHash(src)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate file hash: %v", err)
	}

	storedName := NewStoredName(file.Filename)
	mimeType := MimeTypeOf(file.Filename)

	return &FileInfo{
		OriginalName: file.Filename,
		StoredName:   storedName,
		Size:         file.Size,
		MimeType:     mimeType,
		FileType:     FileTypeOf(mimeType),
		Hash:         hash,
		PhysicalPath: PhysicalPathFor(storedName),
	}, nil
}

// CalculateFileHash returns the hex content hash used for duplicate
// detection.
func CalculateFileHash(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PhysicalPathFor derives the storage key for a stored name. The two-char
// shard keeps any single directory from growing unbounded on local disk.
func PhysicalPathFor(storedName string) string {
	shard := "00"
	if len(storedName) >= 2 {
		shard = storedName[:2]
	}
	return "drives/" + shard + "/" + storedName
}
