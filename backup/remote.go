package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
	schemeHTTPS urlScheme = "https"
	schemeLocal urlScheme = "local" // no scheme, plain path
)

func detectScheme(path string) urlScheme {
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return schemeS3
	case strings.HasPrefix(lower, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lower, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

// localPath strips the file:// prefix, leaving plain paths untouched.
// The second return is false for URLs that are not local files.
func localPath(path string) (string, bool) {
	switch detectScheme(path) {
	case schemeFile:
		return strings.TrimPrefix(path, "file://"), true
	case schemeLocal:
		return path, true
	default:
		return "", false
	}
}

// openReader opens the source of a restore: a local file, an HTTP URL
// or an s3:// object.
func openReader(ctx context.Context, path string, opts *Options) (io.ReadCloser, error) {
	switch detectScheme(path) {
	case schemeLocal, schemeFile:
		local, _ := localPath(path)
		return os.Open(local)

	case schemeHTTP, schemeHTTPS:
		return openHTTPReader(ctx, path)

	case schemeS3:
		return openS3Reader(ctx, path, opts)

	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

// openWriter opens the destination of a snapshot. HTTP destinations
// are not writable.
func openWriter(ctx context.Context, path string, opts *Options) (io.WriteCloser, error) {
	switch detectScheme(path) {
	case schemeLocal, schemeFile:
		local, _ := localPath(path)
		return os.Create(local)

	case schemeHTTP, schemeHTTPS:
		return nil, fmt.Errorf("cannot write to an HTTP destination: %s", path)

	case schemeS3:
		return openS3Writer(ctx, path, opts)

	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

func openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{
		Timeout: 5 * time.Minute, // generous, snapshots can be large
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// parseS3URL splits s3://bucket/key into bucket and key.
func parseS3URL(url string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func s3ClientFor(ctx context.Context, opts *Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts != nil && opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts != nil && opts.AccessKey != "" && opts.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts != nil && opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // S3-compatible services
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func openS3Reader(ctx context.Context, url string, opts *Options) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := s3ClientFor(ctx, opts)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// s3Writer buffers writes and uploads the object on Close. PutObject
// needs the full content up front.
type s3Writer struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buffer []byte
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}
	w.buffer = append(w.buffer, p...)
	return len(p), nil
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buffer),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", w.bucket, w.key, err)
	}
	return nil
}

func openS3Writer(ctx context.Context, url string, opts *Options) (io.WriteCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := s3ClientFor(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &s3Writer{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
	}, nil
}
