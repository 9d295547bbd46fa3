package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/errs"
)

// MaxMediaBytes caps a single upload.
const MaxMediaBytes = 5 << 20

// MediaTypes maps the accepted image content types to the extension stored
// objects get.
var MediaTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// ObjectPutter is the slice of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaUploader stores images in an S3 bucket and returns their public URL.
type MediaUploader struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger
}

// NewMediaUploader builds an uploader for bucket. Without a publicBaseURL the
// virtual-hosted S3 URL of the bucket is used.
func NewMediaUploader(client ObjectPutter, bucket, region, publicBaseURL string) (*MediaUploader, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if bucket == "" {
		return nil, errs.NewConfigError("MEDIA_BUCKET")
	}
	baseURL := strings.TrimRight(publicBaseURL, "/")
	if baseURL == "" {
		if region == "" {
			region = "us-east-1"
		}
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &MediaUploader{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		logger:  log.With().Str("component", "media").Logger(),
	}, nil
}

// Upload stores body under media/YYYY/MM/<uuid><ext>. contentType must be one
// of MediaTypes and size at most MaxMediaBytes.
func (m *MediaUploader) Upload(ctx context.Context, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := MediaTypes[contentType]
	if !ok {
		return "", errs.NewUnsupportedMediaTypeError(contentType, mediaTypeNames())
	}
	if size > MaxMediaBytes {
		return "", errs.NewMaxBodySizeExceededError(MaxMediaBytes)
	}

	now := m.now()
	key := path.Join("media", now.Format("2006"), now.Format("01"), m.newID()+ext)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", s3Err(err)
	}

	url := m.baseURL + "/" + key
	m.logger.Info().Str("key", key).Int64("bytes", size).Msg("stored media object")
	return url, nil
}

// s3Err separates rejected requests from an unreachable service.
func s3Err(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		status := 0
		var respErr interface{ HTTPStatusCode() int }
		if errors.As(err, &respErr) {
			status = respErr.HTTPStatusCode()
		}
		if status >= http.StatusInternalServerError {
			return errs.NewServiceUnreachableError("s3", err)
		}
		if status == 0 {
			status = http.StatusBadGateway
		}
		return errs.NewUpstreamError("s3", status, apiErr.ErrorCode()+": "+apiErr.ErrorMessage())
	}
	return errs.NewServiceUnreachableError("s3", err)
}

func mediaTypeNames() []string {
	return []string{"image/avif", "image/gif", "image/jpeg", "image/png", "image/webp"}
}
