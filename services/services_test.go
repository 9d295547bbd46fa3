package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/consulting-site-backend/errs"
)

func newResend(t *testing.T, handler http.HandlerFunc) *Mailer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMailer(MailerConfig{APIKey: "re_test", From: "Studio <hello@example.com>", BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestSendContact(t *testing.T) {
	var got ResendEmailRequest
	var auth string
	mailer := newResend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	})

	err := mailer.SendContact(context.Background(), ContactMessage{
		Name:    " Ada\nLovelace ",
		Email:   "ada@example.com",
		Message: "Can you help with <script>automation</script>?",
	}, []string{"team@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, "Studio <hello@example.com>", got.From)
	assert.Equal(t, []string{"team@example.com"}, got.To)
	assert.Equal(t, []string{"ada@example.com"}, got.ReplyTo)
	assert.Equal(t, "Contact request from Ada Lovelace", got.Subject)
	assert.Contains(t, got.Html, "&lt;script&gt;")
	assert.NotContains(t, got.Html, "Company")
}

func TestContactMessageValidate(t *testing.T) {
	verr := ContactMessage{Email: "not an email", Company: strings.Repeat("x", 101)}.Validate()
	assert.True(t, verr.Has("name"))
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("company"))
	assert.True(t, verr.Has("message"))

	assert.False(t, ContactMessage{Name: "Ada", Email: "ada@example.com", Message: "Hi"}.Validate().HasAny())
	assert.True(t, ContactMessage{Name: "Ada", Email: "Ada <ada@example.com>", Message: "Hi"}.Validate().Has("email"))
}

func TestSendContactRejectsBeforeSending(t *testing.T) {
	calls := 0
	mailer := newResend(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	err := mailer.SendContact(context.Background(), ContactMessage{}, []string{"team@example.com"})
	assert.True(t, errs.IsValidation(err))

	err = mailer.SendContact(context.Background(), ContactMessage{Name: "Ada", Email: "ada@example.com", Message: "Hi"}, nil)
	assert.True(t, errs.IsConfigError(err))
	assert.Zero(t, calls)
}

func TestSendEmailErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header string
		body   string
		is     func(error) bool
		want   int
	}{
		{"rate limited", http.StatusTooManyRequests, "3", `{"message":"slow down"}`, errs.IsRateLimitError, http.StatusTooManyRequests},
		{"rejected", http.StatusUnprocessableEntity, "", `{"message":"invalid from"}`, errs.IsUpstreamError, http.StatusBadGateway},
		{"down", http.StatusBadGateway, "", "upstream", errs.IsServiceUnreachableError, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := newResend(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := mailer.SendEmail(context.Background(), "s", "<p>b</p>", []string{"a@example.com"}, "")
			require.Error(t, err)
			assert.True(t, tt.is(err), "got %v", err)
			assert.Equal(t, tt.want, errs.StatusCode(err))
		})
	}
}

func TestSendEmailNeedsConfiguration(t *testing.T) {
	mailer := NewMailer(MailerConfig{From: "x@example.com"})
	assert.False(t, mailer.Configured())
	_, err := mailer.SendEmail(context.Background(), "s", "b", []string{"a@example.com"}, "")
	assert.True(t, errs.IsConfigError(err))

	_, err = NewMailer(MailerConfig{APIKey: "k", From: "x@example.com"}).SendEmail(context.Background(), "s", "b", nil, "")
	assert.Error(t, err)
}

func TestSendEmailUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	mailer := NewMailer(MailerConfig{APIKey: "k", From: "x@example.com", BaseURL: srv.URL})
	_, err := mailer.SendEmail(context.Background(), "s", "b", []string{"a@example.com"}, "")
	assert.True(t, errs.IsServiceUnreachableError(err), "got %v", err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestUploader(t *testing.T, client ObjectPutter, baseURL string) *MediaUploader {
	t.Helper()
	m, err := NewMediaUploader(client, "site-media", "eu-west-1", baseURL)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC) }
	m.newID = func() string { return "abc" }
	return m
}

func TestMediaUpload(t *testing.T) {
	fake := &fakeS3{}
	m := newTestUploader(t, fake, "https://cdn.example.com/")

	url, err := m.Upload(context.Background(), "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/media/2024/03/abc.png", url)
	assert.Equal(t, "site-media", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "media/2024/03/abc.png", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, "png-bytes", string(fake.body))
}

func TestMediaUploadDefaultURL(t *testing.T) {
	m := newTestUploader(t, &fakeS3{}, "")
	url, err := m.Upload(context.Background(), "image/jpeg", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://site-media.s3.eu-west-1.amazonaws.com/media/2024/03/abc.jpg", url)
}

func TestMediaUploadRejects(t *testing.T) {
	fake := &fakeS3{}
	m := newTestUploader(t, fake, "")

	_, err := m.Upload(context.Background(), "image/svg+xml", strings.NewReader("<svg/>"), 6)
	assert.Equal(t, http.StatusUnsupportedMediaType, errs.StatusCode(err))

	_, err = m.Upload(context.Background(), "image/png", strings.NewReader(""), MaxMediaBytes+1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, errs.StatusCode(err))
	assert.Nil(t, fake.input)
}

// statusAPIError is an API error that also carries the HTTP status of the
// response, the way the SDK's response errors do.
type statusAPIError struct {
	*smithy.GenericAPIError
	status int
}

func (e statusAPIError) HTTPStatusCode() int { return e.status }

func TestMediaUploadS3Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"api error without status", &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}, errs.IsUpstreamError},
		{"forbidden", statusAPIError{&smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}, http.StatusForbidden}, errs.IsUpstreamError},
		{"server error", statusAPIError{&smithy.GenericAPIError{Code: "InternalError", Message: "try again"}, http.StatusInternalServerError}, errs.IsServiceUnreachableError},
		{"unavailable", statusAPIError{&smithy.GenericAPIError{Code: "SlowDown", Message: "reduce rate"}, http.StatusServiceUnavailable}, errs.IsServiceUnreachableError},
		{"network", errors.New("dial tcp: lookup s3: no such host"), errs.IsServiceUnreachableError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestUploader(t, &fakeS3{err: tt.err}, "").Upload(context.Background(), "image/gif", strings.NewReader("g"), 1)
			assert.True(t, tt.is(err), "got %v", err)
		})
	}

	_, err := newTestUploader(t, &fakeS3{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}}, "").
		Upload(context.Background(), "image/gif", strings.NewReader("g"), 1)
	assert.Equal(t, http.StatusBadGateway, errs.StatusCode(err))
	assert.Contains(t, err.Error(), "s3 answered 502")
}

func TestNewMediaUploaderNeedsBucket(t *testing.T) {
	_, err := NewMediaUploader(&fakeS3{}, "", "", "")
	assert.True(t, errs.IsConfigError(err))
	_, err = NewMediaUploader(nil, "b", "", "")
	assert.Error(t, err)
}
