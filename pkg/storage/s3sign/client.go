package s3sign

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/logger"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	unsignedPayload = "UNSIGNED-PAYLOAD"
	service         = "s3"
)

var filenameSanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Client issues presigned S3 URLs without pulling in the full SDK. It works
// against AWS or any S3-compatible endpoint (MinIO and friends).
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
	bucket     string
	region     string
	accessKey  string
	secretKey  string
	expiry     time.Duration
	now        func() time.Time
}

// NewClient validates credentials and builds the signer.
func NewClient(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("storage bucket name is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := strings.TrimRight(cfg.EndpointURL, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing storage endpoint: %w", err)
	}

	expiry := cfg.DownloadExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	if logg != nil {
		logg.Info(ctx, "storage client initialized")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   parsed,
		bucket:     cfg.BucketName,
		region:     cfg.Region,
		accessKey:  cfg.AccessKeyID,
		secretKey:  cfg.SecretAccessKey,
		expiry:     expiry,
		now:        time.Now,
	}, nil
}

// GenerateUploadURL presigns a PUT for a fresh object key derived from the filename.
func (c *Client) GenerateUploadURL(filename, contentType string) (string, string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", "", errors.New("filename is required")
	}

	objectKey := buildObjectKey(filename)
	signed, err := c.presign(http.MethodPut, objectKey, c.expiry)
	if err != nil {
		return "", "", err
	}
	return signed, objectKey, nil
}

// GenerateViewURL presigns a GET for an existing object key.
func (c *Client) GenerateViewURL(objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", errors.New("object key is required")
	}
	return c.presign(http.MethodGet, objectKey, c.expiry)
}

// Delete removes the object behind the key.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return errors.New("object key is required")
	}

	signed, err := c.presign(http.MethodDelete, objectKey, time.Minute)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, signed, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("delete object %s: %s: %s", objectKey, resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

func (c *Client) presign(method, objectKey string, expiry time.Duration) (string, error) {
	now := c.now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	scope := strings.Join([]string{dateStamp, c.region, service, "aws4_request"}, "/")

	objectPath := "/" + c.bucket + "/" + escapePath(objectKey)
	host := c.endpoint.Host

	query := url.Values{}
	query.Set("X-Amz-Algorithm", algorithm)
	query.Set("X-Amz-Credential", c.accessKey+"/"+scope)
	query.Set("X-Amz-Date", amzDate)
	query.Set("X-Amz-Expires", fmt.Sprintf("%d", int(expiry.Seconds())))
	query.Set("X-Amz-SignedHeaders", "host")

	canonicalQuery := canonicalQueryString(query)
	canonicalRequest := strings.Join([]string{
		method,
		objectPath,
		canonicalQuery,
		"host:" + host + "\n",
		"host",
		unsignedPayload,
	}, "\n")

	hashedRequest := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hex.EncodeToString(hashedRequest[:]),
	}, "\n")

	signingKey := deriveSigningKey(c.secretKey, dateStamp, c.region)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	signed := *c.endpoint
	signed.Path = objectPath
	signed.RawQuery = canonicalQuery + "&X-Amz-Signature=" + signature
	return signed.String(), nil
}

func deriveSigningKey(secret, dateStamp, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func canonicalQueryString(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, uriEncode(k)+"="+uriEncode(query.Get(k)))
	}
	return strings.Join(parts, "&")
}

func escapePath(objectKey string) string {
	segments := strings.Split(objectKey, "/")
	for i, segment := range segments {
		segments[i] = uriEncode(segment)
	}
	return strings.Join(segments, "/")
}

// uriEncode implements the S3 flavor of RFC 3986 encoding.
func uriEncode(value string) string {
	var b strings.Builder
	for _, r := range []byte(value) {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '-', r == '.', r == '_', r == '~':
			b.WriteByte(r)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", r))
		}
	}
	return b.String()
}

func buildObjectKey(filename string) string {
	base := filenameSanitizeRe.ReplaceAllString(path.Base(filename), "_")
	return fmt.Sprintf("photos/%s/%s", uuid.NewString(), base)
}
