package storage

import (
	"context"
	"encoding/pem"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObject struct {
	data        []byte
	contentType string
}

// s3Stub is a path-style S3 endpoint covering the calls the aws driver makes.
type s3Stub struct {
	mu         sync.Mutex
	buckets    map[string]map[string]stubObject
	pageSize   int
	failStatus int
	requests   int
}

func newS3Stub() *s3Stub {
	return &s3Stub{buckets: make(map[string]map[string]stubObject), pageSize: 1000}
}

func (s *s3Stub) object(bucket, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buckets[bucket][key].data)
}

func (s *s3Stub) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *s3Stub) failWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

type listEntry struct {
	Key  string `xml:"Key"`
	Size int64  `xml:"Size"`
	ETag string `xml:"ETag"`
}

type commonPrefix struct {
	Prefix string `xml:"Prefix"`
}

type listResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	Name                  string         `xml:"Name"`
	Prefix                string         `xml:"Prefix"`
	KeyCount              int            `xml:"KeyCount"`
	IsTruncated           bool           `xml:"IsTruncated"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	Contents              []listEntry    `xml:"Contents"`
	CommonPrefixes        []commonPrefix `xml:"CommonPrefixes"`
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func (s *s3Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	if s.failStatus > 0 {
		writeS3Error(w, s.failStatus, "SlowDown")
		return
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	objects, ok := s.buckets[bucket]

	if key == "" {
		switch r.Method {
		case http.MethodPut:
			if ok {
				writeS3Error(w, http.StatusConflict, "BucketAlreadyOwnedByYou")
				return
			}
			s.buckets[bucket] = make(map[string]stubObject)
		case http.MethodHead:
			if !ok {
				w.WriteHeader(http.StatusNotFound)
			}
		case http.MethodDelete:
			switch {
			case !ok:
				writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
			case len(objects) > 0:
				writeS3Error(w, http.StatusConflict, "BucketNotEmpty")
			default:
				delete(s.buckets, bucket)
				w.WriteHeader(http.StatusNoContent)
			}
		case http.MethodGet:
			if !ok {
				writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
				return
			}
			s.list(w, r, bucket, objects)
		}
		return
	}

	if !ok {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		objects[key] = stubObject{data: data, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"etag-`+key+`"`)
	case http.MethodGet, http.MethodHead:
		obj, found := objects[key]
		if !found {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.Header().Set("ETag", `"etag-`+key+`"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.data)
		}
	case http.MethodDelete:
		delete(objects, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *s3Stub) list(w http.ResponseWriter, r *http.Request, bucket string, objects map[string]stubObject) {
	q := r.URL.Query()
	prefix, delimiter := q.Get("prefix"), q.Get("delimiter")

	keys := make([]string, 0, len(objects))
	for k := range objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	// entries holds object keys and, with a delimiter, folded common prefixes.
	var entries []string
	seen := make(map[string]bool)
	for _, k := range keys {
		if delimiter != "" {
			if i := strings.Index(k[len(prefix):], delimiter); i >= 0 {
				p := k[:len(prefix)+i+len(delimiter)]
				if !seen[p] {
					seen[p] = true
					entries = append(entries, p)
				}
				continue
			}
		}
		entries = append(entries, k)
	}

	start, _ := strconv.Atoi(q.Get("continuation-token"))
	end := start + s.pageSize
	if end > len(entries) {
		end = len(entries)
	}

	res := listResult{Name: bucket, Prefix: prefix}
	for _, e := range entries[start:end] {
		if seen[e] {
			res.CommonPrefixes = append(res.CommonPrefixes, commonPrefix{Prefix: e})
			continue
		}
		res.Contents = append(res.Contents, listEntry{Key: e, Size: int64(len(objects[e].data)), ETag: `"etag-` + e + `"`})
	}
	res.KeyCount = end - start
	if end < len(entries) {
		res.IsTruncated = true
		res.NextContinuationToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/xml")
	_ = xml.NewEncoder(w).Encode(res)
}

func newStubClient(t *testing.T, stub *s3Stub) Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Driver:    DriverAWS,
		Endpoint:  srv.URL,
		AccessKey: "testkey",
		SecretKey: "testsecret",
	})
	require.NoError(t, err)
	return client
}

// unseekable hides any Seek method of the wrapped reader.
type unseekable struct {
	io.Reader
}

func TestAWSClient_PutGetStat(t *testing.T) {
	ctx := context.Background()
	stub := newS3Stub()
	client := newStubClient(t, stub)

	require.NoError(t, client.MakeBucket(ctx, "test-bucket", minio.MakeBucketOptions{}))

	info, err := client.PutObject(ctx, "test-bucket", "key_img01.png", unseekable{strings.NewReader("test_content")}, 12, minio.PutObjectOptions{ContentType: "img/png"})
	require.NoError(t, err)
	assert.Equal(t, "etag-key_img01.png", info.ETag)
	assert.Equal(t, int64(12), info.Size)
	assert.Equal(t, "test_content", stub.object("test-bucket", "key_img01.png"))

	body, objInfo, err := client.GetObject(ctx, "test-bucket", "key_img01.png", minio.GetObjectOptions{})
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "test_content", string(data))
	assert.Equal(t, int64(12), objInfo.Size)
	assert.Equal(t, "img/png", objInfo.ContentType)

	stat, err := client.StatObject(ctx, "test-bucket", "key_img01.png", minio.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), stat.Size)
	assert.Equal(t, "img/png", stat.ContentType)
	assert.Equal(t, "etag-key_img01.png", stat.ETag)

	require.NoError(t, client.RemoveObject(ctx, "test-bucket", "key_img01.png", minio.RemoveObjectOptions{}))
	require.NoError(t, client.RemoveBucket(ctx, "test-bucket"))

	exists, err := client.BucketExists(ctx, "test-bucket")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAWSClient_MakeBucketTwice(t *testing.T) {
	ctx := context.Background()
	client := newStubClient(t, newS3Stub())

	require.NoError(t, client.MakeBucket(ctx, "test-bucket", minio.MakeBucketOptions{}))
	err := client.MakeBucket(ctx, "test-bucket", minio.MakeBucketOptions{})

	var resp minio.ErrorResponse
	require.True(t, errors.As(err, &resp))
	assert.Equal(t, "BucketAlreadyOwnedByYou", resp.Code)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAWSClient_NotFound(t *testing.T) {
	ctx := context.Background()
	client := newStubClient(t, newS3Stub())
	require.NoError(t, client.MakeBucket(ctx, "test-bucket", minio.MakeBucketOptions{}))

	code := func(t *testing.T, err error) string {
		t.Helper()
		var resp minio.ErrorResponse
		require.True(t, errors.As(err, &resp), "expected minio.ErrorResponse, got %v", err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		return resp.Code
	}

	t.Run("BucketExists", func(t *testing.T) {
		exists, err := client.BucketExists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("GetMissingKey", func(t *testing.T) {
		_, _, err := client.GetObject(ctx, "test-bucket", "missing", minio.GetObjectOptions{})
		assert.Equal(t, "NoSuchKey", code(t, err))
	})

	t.Run("GetMissingBucket", func(t *testing.T) {
		_, _, err := client.GetObject(ctx, "missing", "key", minio.GetObjectOptions{})
		assert.Equal(t, "NoSuchBucket", code(t, err))
	})

	t.Run("StatMissingKey", func(t *testing.T) {
		_, err := client.StatObject(ctx, "test-bucket", "missing", minio.StatObjectOptions{})
		assert.Equal(t, "NoSuchKey", code(t, err))
	})

	t.Run("StatMissingBucket", func(t *testing.T) {
		_, err := client.StatObject(ctx, "missing", "key", minio.StatObjectOptions{})
		assert.Equal(t, "NoSuchBucket", code(t, err))
	})

	t.Run("RemoveMissingBucket", func(t *testing.T) {
		err := client.RemoveBucket(ctx, "missing")
		assert.Equal(t, "NoSuchBucket", code(t, err))
	})

	t.Run("ListMissingBucket", func(t *testing.T) {
		var errs []error
		for info := range client.ListObjects(ctx, "missing", minio.ListObjectsOptions{Recursive: true}) {
			errs = append(errs, info.Err)
		}
		require.Len(t, errs, 1)
		assert.Equal(t, "NoSuchBucket", code(t, errs[0]))
	})
}

func TestAWSClient_ListObjects(t *testing.T) {
	ctx := context.Background()
	stub := newS3Stub()
	stub.pageSize = 2
	client := newStubClient(t, stub)
	require.NoError(t, client.MakeBucket(ctx, "test-bucket", minio.MakeBucketOptions{}))

	for _, key := range []string{"a/1", "a/2", "a/3", "a/sub/4", "a/5", "b/1", "root.txt"} {
		_, err := client.PutObject(ctx, "test-bucket", key, strings.NewReader("x"), 1, minio.PutObjectOptions{ContentType: "text/plain"})
		require.NoError(t, err)
	}

	collect := func(opts minio.ListObjectsOptions) []string {
		var keys []string
		for info := range client.ListObjects(ctx, "test-bucket", opts) {
			require.NoError(t, info.Err)
			keys = append(keys, info.Key)
		}
		sort.Strings(keys)
		return keys
	}

	t.Run("RecursivePaginated", func(t *testing.T) {
		keys := collect(minio.ListObjectsOptions{Prefix: "a/", Recursive: true})
		assert.Equal(t, []string{"a/1", "a/2", "a/3", "a/5", "a/sub/4"}, keys)
	})

	t.Run("Delimited", func(t *testing.T) {
		keys := collect(minio.ListObjectsOptions{})
		assert.Equal(t, []string{"a/", "b/", "root.txt"}, keys)
	})

	t.Run("DelimitedPrefix", func(t *testing.T) {
		keys := collect(minio.ListObjectsOptions{Prefix: "a/"})
		assert.Equal(t, []string{"a/1", "a/2", "a/3", "a/5", "a/sub/"}, keys)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		ch := client.ListObjects(cctx, "test-bucket", minio.ListObjectsOptions{Recursive: true})
		<-ch
		cancel()
		for range ch {
		}
	})
}

func TestAWSClient_ServerErrorIsNotRetried(t *testing.T) {
	ctx := context.Background()
	stub := newS3Stub()
	client := newStubClient(t, stub)
	stub.failWith(http.StatusServiceUnavailable)

	_, err := client.PutObject(ctx, "test-bucket", "key", strings.NewReader("x"), 1, minio.PutObjectOptions{})

	var resp minio.ErrorResponse
	require.True(t, errors.As(err, &resp))
	assert.Equal(t, "SlowDown", resp.Code)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, stub.requestCount())
}

func TestAWSClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(newS3Stub())
	endpoint := srv.URL
	srv.Close()

	client, err := NewClient(Config{Driver: DriverAWS, Endpoint: endpoint, AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)

	_, err = client.BucketExists(context.Background(), "test-bucket")
	var netErr net.Error
	assert.True(t, errors.As(err, &netErr), "expected net.Error, got %v", err)
}

func TestAWSClient_CABundle(t *testing.T) {
	stub := newS3Stub()
	srv := httptest.NewTLSServer(stub)
	t.Cleanup(srv.Close)

	bundle := filepath.Join(t.TempDir(), "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(bundle, certPEM, 0o600))
	t.Setenv("AWS_CA_BUNDLE", bundle)

	client, err := NewClient(Config{Driver: DriverAWS, Endpoint: srv.URL, AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.MakeBucket(ctx, "test-bucket", minio.MakeBucketOptions{}))
	_, err = client.PutObject(ctx, "test-bucket", "key", unseekable{strings.NewReader("test_content")}, 12, minio.PutObjectOptions{ContentType: "img/png"})
	require.NoError(t, err)
	assert.Equal(t, "test_content", stub.object("test-bucket", "key"))
}

func TestTranslateAWSError(t *testing.T) {
	withStatus := func(status int, apiErr error) error {
		return &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      apiErr,
			},
		}
	}
	plain := errors.New("dial tcp: connection refused")

	tests := []struct {
		name         string
		err          error
		notFoundCode string
		wantCode     string
		wantStatus   int
	}{
		{"HeadNotFoundBucket", withStatus(404, &smithy.GenericAPIError{Code: "NotFound"}), "NoSuchBucket", "NoSuchBucket", 404},
		{"HeadNotFoundKey", withStatus(404, &smithy.GenericAPIError{Code: "NotFound"}), "NoSuchKey", "NoSuchKey", 404},
		{"NotFoundWithoutFallback", withStatus(404, &smithy.GenericAPIError{Code: "NotFound"}), "", "NotFound", 404},
		{"ServerError", withStatus(503, &smithy.GenericAPIError{Code: "SlowDown"}), "", "SlowDown", 503},
		{"NoStatus", &smithy.GenericAPIError{Code: "AccessDenied"}, "", "AccessDenied", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp minio.ErrorResponse
			require.True(t, errors.As(translateAWSError(tt.err, tt.notFoundCode), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, translateAWSError(nil, "NoSuchKey"))
	})

	t.Run("TransportErrorPassesThrough", func(t *testing.T) {
		assert.Same(t, plain, translateAWSError(plain, "NoSuchKey"))
	})
}
