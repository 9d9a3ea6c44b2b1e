package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

const defaultAWSRegion = "us-east-1"

// awsClient adapts the AWS SDK v2 S3 client to the Client interface.
// Service errors are translated into minio.ErrorResponse so callers classify
// failures the same way regardless of driver.
type awsClient struct {
	api    *s3.Client
	region string
}

func newAWSClient(cfg Config) (Client, error) {
	region := cfg.Region
	if region == "" {
		region = defaultAWSRegion
	}

	// A buildable client lets the SDK layer AWS_CA_BUNDLE onto our transport.
	timeout := timeoutOf(cfg)
	httpClient := awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = timeout
			d.KeepAlive = 30 * time.Second
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tuneTransport(tr, timeout)
		})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg))
			o.UsePathStyle = true
		}
		// Upload bodies are unseekable streams; default checksums need a seekable body
		// or TLS with trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		// Retry policy belongs to the caller.
		o.Retryer = aws.NopRetryer{}
	})

	return &awsClient{api: api, region: region}, nil
}

// endpointURL adds a scheme to bare host:port endpoints.
func endpointURL(cfg Config) string {
	if strings.HasPrefix(cfg.Endpoint, "http://") || strings.HasPrefix(cfg.Endpoint, "https://") {
		return cfg.Endpoint
	}
	if cfg.UseSSL {
		return "https://" + cfg.Endpoint
	}
	return "http://" + cfg.Endpoint
}

func (c *awsClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	translated := translateAWSError(err, "NoSuchBucket")
	var resp minio.ErrorResponse
	if errors.As(translated, &resp) && resp.Code == "NoSuchBucket" {
		return false, nil
	}
	return false, translated
}

func (c *awsClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucketName)}
	region := opts.Region
	if region == "" {
		region = c.region
	}
	// us-east-1 rejects an explicit location constraint
	if region != defaultAWSRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	_, err := c.api.CreateBucket(ctx, input)
	return translateAWSError(err, "")
}

func (c *awsClient) RemoveBucket(ctx context.Context, bucketName string) error {
	_, err := c.api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	return translateAWSError(err, "NoSuchBucket")
}

func (c *awsClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectName),
		Body:          reader,
		ContentLength: aws.Int64(objectSize),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	// The body is a plain stream; skip payload hashing so the SDK never seeks or buffers it.
	out, err := c.api.PutObject(ctx, input, s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	if err != nil {
		return minio.UploadInfo{}, translateAWSError(err, "")
	}

	return minio.UploadInfo{
		Bucket: bucketName,
		Key:    objectName,
		ETag:   trimETag(out.ETag),
		Size:   objectSize,
	}, nil
}

func (c *awsClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
	}
	if opts.VersionID != "" {
		input.VersionId = aws.String(opts.VersionID)
	}
	out, err := c.api.GetObject(ctx, input)
	if err != nil {
		return nil, minio.ObjectInfo{}, translateAWSError(err, "NoSuchKey")
	}

	info := minio.ObjectInfo{
		Key:          objectName,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         trimETag(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}
	return out.Body, info, nil
}

func (c *awsClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
	}
	if opts.VersionID != "" {
		input.VersionId = aws.String(opts.VersionID)
	}
	out, err := c.api.HeadObject(ctx, input)
	if err != nil {
		translated := translateAWSError(err, "NoSuchKey")
		// HEAD has no error body, so a 404 cannot tell a missing key from a missing bucket.
		var resp minio.ErrorResponse
		if errors.As(translated, &resp) && resp.Code == "NoSuchKey" {
			if exists, berr := c.BucketExists(ctx, bucketName); berr == nil && !exists {
				return minio.ObjectInfo{}, minio.ErrorResponse{
					Code:       "NoSuchBucket",
					Message:    "The specified bucket does not exist",
					BucketName: bucketName,
					StatusCode: http.StatusNotFound,
				}
			}
		}
		return minio.ObjectInfo{}, translated
	}
	return minio.ObjectInfo{
		Key:          objectName,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         trimETag(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (c *awsClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if !opts.Recursive {
		input.Delimiter = aws.String("/")
	}
	if opts.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(int32(opts.MaxKeys))
	}

	go func() {
		defer close(ch)

		send := func(info minio.ObjectInfo) bool {
			select {
			case ch <- info:
				return true
			case <-ctx.Done():
				return false
			}
		}

		paginator := s3.NewListObjectsV2Paginator(c.api, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				send(minio.ObjectInfo{Err: translateAWSError(err, "NoSuchBucket")})
				return
			}
			for _, p := range page.CommonPrefixes {
				if !send(minio.ObjectInfo{Key: aws.ToString(p.Prefix)}) {
					return
				}
			}
			for _, obj := range page.Contents {
				info := minio.ObjectInfo{
					Key:          aws.ToString(obj.Key),
					Size:         aws.ToInt64(obj.Size),
					ETag:         trimETag(obj.ETag),
					LastModified: aws.ToTime(obj.LastModified),
				}
				if !send(info) {
					return
				}
			}
		}
	}()

	return ch
}

func (c *awsClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
	}
	if opts.VersionID != "" {
		input.VersionId = aws.String(opts.VersionID)
	}
	_, err := c.api.DeleteObject(ctx, input)
	return translateAWSError(err, "NoSuchKey")
}

// translateAWSError converts SDK service errors into minio.ErrorResponse.
// HEAD requests carry no error body, so a bare 404 "NotFound" is reported
// with notFoundCode. Transport errors pass through untouched.
func translateAWSError(err error, notFoundCode string) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	code := apiErr.ErrorCode()
	if code == "NotFound" && notFoundCode != "" {
		code = notFoundCode
	}

	return minio.ErrorResponse{
		Code:       code,
		Message:    apiErr.ErrorMessage(),
		StatusCode: status,
	}
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}
