package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig names the Tencent Cloud COS bucket a COSHandler lists and
// downloads classfiles from.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string
	Scheme    string
}

// COSHandler treats a COS bucket prefix as a classpath root: it lists
// every object under the prefix and streams down each one ending in
// ".class". This is the object-storage analogue of a jar-on-a-classpath
// root, for deployments that ship compiled classes to COS instead of a
// local archive.
type COSHandler struct {
	client *cos.Client
}

// NewCOSHandler builds the underlying COS client from cfg.
func NewCOSHandler(cfg *COSConfig) (*COSHandler, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("bucket and region are required for a COS classpath root")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("credentials are required for a COS classpath root")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("parse bucket URL: %w", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("parse service URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{
		BucketURL:  bucketURL,
		ServiceURL: serviceURL,
	}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSHandler{client: client}, nil
}

// Walk lists every object under root (used as the bucket key prefix) in
// pages of up to 1000 keys and emits the ones ending in ".class", with
// root stripped from the emitted relative path.
func (h *COSHandler) Walk(ctx context.Context, root string, emit func(relativePath string, r io.Reader) error) error {
	marker := ""
	for {
		result, _, err := h.client.Bucket.Get(ctx, &cos.BucketGetOptions{
			Prefix:  root,
			Marker:  marker,
			MaxKeys: 1000,
		})
		if err != nil {
			return fmt.Errorf("list COS objects under %s: %w", root, err)
		}

		for _, obj := range result.Contents {
			if !strings.HasSuffix(obj.Key, ".class") {
				continue
			}
			resp, err := h.client.Object.Get(ctx, obj.Key, nil)
			if err != nil {
				return fmt.Errorf("download COS object %s: %w", obj.Key, err)
			}
			rel := strings.TrimPrefix(obj.Key, root)
			rel = strings.TrimPrefix(rel, "/")
			err = emit(rel, resp.Body)
			resp.Body.Close()
			if err != nil {
				return err
			}
		}

		if !result.IsTruncated {
			return nil
		}
		marker = result.NextMarker
	}
}
