package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"

	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

type Config struct {
	// GCSEmulatorHost points the GCS client at a local emulator
	// (e.g. "localhost:4443"); empty uses Google default credentials.
	GCSEmulatorHost string

	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Opener resolves a source URI to a readable document. Supported forms are a
// plain path, file://, gs://bucket/object and s3://bucket/key. Object store
// clients are created on first use.
type Opener struct {
	log *logger.Logger
	cfg Config

	gcsOnce sync.Once
	gcs     *storage.Client
	gcsErr  error

	s3Once sync.Once
	s3     *s3.Client
	s3Err  error
}

func NewOpener(log *logger.Logger, cfg Config) *Opener {
	if log == nil {
		log = logger.Nop()
	}
	return &Opener{log: log.With("component", "SourceOpener"), cfg: cfg}
}

func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("source: empty uri")
	}
	scheme, bucket, key, err := splitURI(uri)
	if err != nil {
		return nil, err
	}
	o.log.Debug("Opening source document", "scheme", scheme, "uri", uri)
	switch scheme {
	case "", "file":
		f, err := os.Open(key)
		if err != nil {
			return nil, fmt.Errorf("source: open %s: %w", key, err)
		}
		return f, nil
	case "gs":
		return o.openGCS(ctx, bucket, key)
	case "s3":
		return o.openS3(ctx, bucket, key)
	default:
		return nil, fmt.Errorf("source: unsupported scheme %q", scheme)
	}
}

// splitURI returns scheme, bucket and key. Local paths come back with an
// empty scheme and the path as key.
func splitURI(uri string) (string, string, string, error) {
	if !strings.Contains(uri, "://") {
		return "", "", uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", "", fmt.Errorf("source: parse %q: %w", uri, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		return scheme, "", u.Path, nil
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", "", fmt.Errorf("source: %q needs both bucket and object key", uri)
	}
	return scheme, u.Host, key, nil
}

func (o *Opener) openGCS(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	o.gcsOnce.Do(func() {
		var opts []option.ClientOption
		if o.cfg.GCSEmulatorHost != "" {
			// The storage client honours STORAGE_EMULATOR_HOST itself.
			_ = os.Setenv("STORAGE_EMULATOR_HOST", o.cfg.GCSEmulatorHost)
			opts = append(opts, option.WithoutAuthentication())
		}
		o.gcs, o.gcsErr = storage.NewClient(context.Background(), opts...)
	})
	if o.gcsErr != nil {
		return nil, fmt.Errorf("source: gcs client: %w", o.gcsErr)
	}
	r, err := o.gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("source: read gs://%s/%s: %w", bucket, object, err)
	}
	return r, nil
}

func (o *Opener) openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	o.s3Once.Do(func() {
		region := o.cfg.S3Region
		if region == "" {
			region = "us-east-1"
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
		if err != nil {
			o.s3Err = err
			return
		}
		o.s3 = s3.NewFromConfig(awsCfg, func(opts *s3.Options) {
			if o.cfg.S3PathStyle {
				opts.UsePathStyle = true
			}
			if o.cfg.S3Endpoint != "" {
				opts.BaseEndpoint = aws.String(o.cfg.S3Endpoint)
			}
		})
	})
	if o.s3Err != nil {
		return nil, fmt.Errorf("source: s3 client: %w", o.s3Err)
	}
	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("source: read s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// Close releases any object store clients that were created.
func (o *Opener) Close() error {
	if o == nil || o.gcs == nil {
		return nil
	}
	return o.gcs.Close()
}
