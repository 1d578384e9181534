package storage

import (
	"context"
	"fmt"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

// FromEnv picks the image storage driver. getenv is injected so the
// factory is testable without touching the process environment.
func FromEnv(ctx context.Context, getenv func(string) string) (FactoryResult, error) {
	driver := getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = "local"
	}

	switch driver {
	case "local":
		baseDir := envOr(getenv, "LOCAL_UPLOAD_DIR", "./storage/uploads")
		urlPrefix := envOr(getenv, "LOCAL_UPLOAD_URL_PREFIX", "/uploads")
		return FactoryResult{Driver: "local", Storage: NewLocal(baseDir, urlPrefix)}, nil

	case "s3":
		region := getenv("S3_REGION")
		bucket := getenv("S3_BUCKET")
		publicBase := getenv("S3_PUBLIC_BASE_URL")
		prefix := envOr(getenv, "S3_PREFIX", "products")
		if region == "" || bucket == "" || publicBase == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		s, err := NewS3(ctx, S3Config{
			Region:        region,
			Bucket:        bucket,
			Prefix:        prefix,
			PublicBaseURL: publicBase,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", driver)
	}
}

func envOr(getenv func(string) string, k, def string) string {
	if v := getenv(k); v != "" {
		return v
	}
	return def
}
