package storage

import "fmt"

// NewClient builds the byte-store backend named by the configuration.
// Local disk is the default; S3 covers S3-compatible providers through the
// custom-endpoint setting.
func NewClient(provider, localPath string, s3cfg *S3Config) (Interface, error) {
	switch provider {
	case "", "local":
		return NewLocalClient(localPath)
	case "s3":
		if s3cfg == nil || s3cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage selected but no bucket configured")
		}
		return NewS3Client(s3cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", provider)
	}
}
