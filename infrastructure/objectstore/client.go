package objectstore

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// IClient is the media blob store: objects are written once and read back via
// a public URL.
type IClient interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, string, error)
	Enabled() bool
}

// Client talks to an S3-compatible storage gateway over its REST object API.
type Client struct {
	http     *resty.Client
	endpoint string
	bucket   string
}

func NewClient(endpoint, bucket, accessKey string) *Client {
	http := resty.New()
	if accessKey != "" {
		http.SetAuthToken(accessKey)
	}
	return &Client{
		http:     http,
		endpoint: endpoint,
		bucket:   bucket,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Upload stores the object and returns its public URL. Objects are immutable;
// re-uploading the same path is treated as success so media ingestion stays
// idempotent.
func (c *Client) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("object storage is not configured")
	}

	uploadURL := fmt.Sprintf("%s/object/%s/%s", c.endpoint, c.bucket, objectPath)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Post(uploadURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() && resp.StatusCode() != 409 {
		return "", fmt.Errorf("object upload failed: %s: %s", resp.Status(), resp.String())
	}
	if resp.StatusCode() == 409 {
		logrus.Debugf("[OBJECTSTORE] Object %s already exists, reusing", objectPath)
	}

	return c.PublicURL(objectPath), nil
}

func (c *Client) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.endpoint, c.bucket, objectPath)
}

// Fetch downloads an arbitrary public URL into memory, returning the body and
// its content type.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", err
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("media fetch failed: %s", resp.Status())
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}
