package s3sign

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fotoclick/backend/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.StorageConfig{
		EndpointURL:     "https://s3.us-east-1.amazonaws.com",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		BucketName:      "fotoclick-media",
		Region:          "us-east-1",
		DownloadExpiry:  time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(context.Background(), config.StorageConfig{BucketName: "b"}, nil)
	if err == nil {
		t.Fatal("expected credentials error")
	}
	_, err = NewClient(context.Background(), config.StorageConfig{
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	}, nil)
	if err == nil {
		t.Fatal("expected bucket error")
	}
}

func TestGenerateViewURL(t *testing.T) {
	client := newTestClient(t)

	signed, err := client.GenerateViewURL("photos/abc/img.jpg")
	if err != nil {
		t.Fatalf("GenerateViewURL failed: %v", err)
	}

	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if parsed.Path != "/fotoclick-media/photos/abc/img.jpg" {
		t.Fatalf("unexpected path %s", parsed.Path)
	}

	q := parsed.Query()
	if q.Get("X-Amz-Algorithm") != "AWS4-HMAC-SHA256" {
		t.Fatalf("unexpected algorithm %q", q.Get("X-Amz-Algorithm"))
	}
	if q.Get("X-Amz-Date") != "20250615T120000Z" {
		t.Fatalf("unexpected date %q", q.Get("X-Amz-Date"))
	}
	if q.Get("X-Amz-Expires") != "3600" {
		t.Fatalf("unexpected expiry %q", q.Get("X-Amz-Expires"))
	}
	if !strings.HasPrefix(q.Get("X-Amz-Credential"), "AKIDEXAMPLE/20250615/us-east-1/s3/aws4_request") {
		t.Fatalf("unexpected credential %q", q.Get("X-Amz-Credential"))
	}
	if len(q.Get("X-Amz-Signature")) != 64 {
		t.Fatalf("signature should be 64 hex chars, got %q", q.Get("X-Amz-Signature"))
	}
}

func TestGenerateViewURLDeterministic(t *testing.T) {
	client := newTestClient(t)

	first, err := client.GenerateViewURL("photos/a.jpg")
	if err != nil {
		t.Fatalf("first presign: %v", err)
	}
	second, err := client.GenerateViewURL("photos/a.jpg")
	if err != nil {
		t.Fatalf("second presign: %v", err)
	}
	if first != second {
		t.Fatal("same input and clock should produce identical URLs")
	}
}

func TestGenerateUploadURLBuildsFreshKey(t *testing.T) {
	client := newTestClient(t)

	signed, key, err := client.GenerateUploadURL("my photo (1).jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("GenerateUploadURL failed: %v", err)
	}
	if !strings.HasPrefix(key, "photos/") {
		t.Fatalf("unexpected key prefix %q", key)
	}
	if !strings.HasSuffix(key, "my_photo_1_.jpg") {
		t.Fatalf("filename not sanitized: %q", key)
	}
	if !strings.Contains(signed, "X-Amz-Signature=") {
		t.Fatal("upload url not signed")
	}

	_, second, err := client.GenerateUploadURL("my photo (1).jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("second GenerateUploadURL failed: %v", err)
	}
	if key == second {
		t.Fatal("object keys should be unique per upload")
	}
}

func TestGenerateViewURLRequiresKey(t *testing.T) {
	client := newTestClient(t)
	if _, err := client.GenerateViewURL("  "); err == nil {
		t.Fatal("expected object key error")
	}
}
