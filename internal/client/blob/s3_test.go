package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects and multipart uploads in memory.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	uploads  map[string]map[int32][]byte
	seq      int
	partErr  map[int32]error
	uploaded []int32
	delErr   error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, uploads: map[string]map[int32][]byte{}, partErr: map[int32]error{}}
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("upload-%d", f.seq)
	f.uploads[id] = map[int32][]byte{}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String(id)}, nil
}

func (f *fakeS3) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := aws.ToInt32(in.PartNumber)
	if err := f.partErr[n]; err != nil {
		return nil, err
	}
	f.uploads[aws.ToString(in.UploadId)][n] = b
	f.uploaded = append(f.uploaded, n)
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", n))}, nil
}

func (f *fakeS3) ListParts(ctx context.Context, in *s3.ListPartsInput, _ ...func(*s3.Options)) (*s3.ListPartsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts, ok := f.uploads[aws.ToString(in.UploadId)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchUpload", Message: "gone"}
	}
	out := &s3.ListPartsOutput{IsTruncated: aws.Bool(false)}
	for n, b := range parts {
		out.Parts = append(out.Parts, types.Part{PartNumber: aws.Int32(n), ETag: aws.String(fmt.Sprintf("etag-%d", n)), Size: aws.Int64(int64(len(b)))})
	}
	return out, nil
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := aws.ToString(in.UploadId)
	parts := f.uploads[id]
	nums := make([]int, 0, len(in.MultipartUpload.Parts))
	for _, p := range in.MultipartUpload.Parts {
		nums = append(nums, int(aws.ToInt32(p.PartNumber)))
	}
	if !sort.IntsAreSorted(nums) {
		return nil, errors.New("parts not sorted")
	}
	var buf bytes.Buffer
	for _, n := range nums {
		buf.Write(parts[int32(n)])
	}
	f.objects[aws.ToString(in.Key)] = buf.Bytes()
	delete(f.uploads, id)
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return nil, f.delErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

type fakePresign struct{}

func (fakePresign) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "http://minio/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?X-Amz-Signature=x"}, nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func drain(t *testing.T, tr *Transfer) []Progress {
	t.Helper()
	var out []Progress
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p, ok := <-tr.Progress():
			if !ok {
				return out
			}
			out = append(out, p)
		case <-timeout:
			t.Fatal("transfer did not finish")
		}
	}
}

func TestUpload_MultipartWithProgress(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, fakePresign{}, "diary", 4)
	path := writeFile(t, "0123456789")

	tr := s.Upload(context.Background(), "images/u1/photo-1.jpg", path, "")
	progress := drain(t, tr)
	require.NoError(t, tr.Wait())

	require.Len(t, progress, 4)
	assert.Equal(t, "upload-1", progress[0].Session)
	assert.Equal(t, int64(0), progress[0].Sent)
	assert.Equal(t, Progress{Session: "upload-1", Sent: 10, Total: 10}, progress[3])
	assert.Equal(t, []byte("0123456789"), fake.objects["images/u1/photo-1.jpg"])
}

func TestUpload_ResumesFromSession(t *testing.T) {
	fake := newFakeS3()
	fake.partErr[2] = errors.New("connection reset")
	s := newS3Storage(fake, fakePresign{}, "diary", 4)
	path := writeFile(t, "0123456789")

	first := s.Upload(context.Background(), "k", path, "")
	progress := drain(t, first)
	require.Error(t, first.Wait())
	session := progress[0].Session

	delete(fake.partErr, 2)
	fake.uploaded = nil

	second := s.Upload(context.Background(), "k", path, session)
	drain(t, second)
	require.NoError(t, second.Wait())

	assert.Equal(t, []int32{2, 3}, fake.uploaded, "part 1 must not be sent again")
	assert.Equal(t, []byte("0123456789"), fake.objects["k"])
}

func TestUpload_ExpiredSessionStartsOver(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, fakePresign{}, "diary", 4)
	path := writeFile(t, "abc")

	tr := s.Upload(context.Background(), "k", path, "stale")
	progress := drain(t, tr)
	require.NoError(t, tr.Wait())
	assert.Equal(t, "upload-1", progress[0].Session)
	assert.Equal(t, []byte("abc"), fake.objects["k"])
}

func TestUpload_MissingFile(t *testing.T) {
	s := newS3Storage(newFakeS3(), fakePresign{}, "diary", 4)

	tr := s.Upload(context.Background(), "k", "/does/not/exist", "")
	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("transfer should be finished")
	}
	assert.Error(t, tr.Err())
	_, open := <-tr.Progress()
	assert.False(t, open)
}

func TestUpload_Cancel(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, fakePresign{}, "diary", 4)
	path := writeFile(t, "0123456789")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := s.Upload(ctx, "k", path, "")
	tr.Cancel()
	drain(t, tr)
	_ = tr.Wait()
	_, ok := fake.objects["k"]
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	fake := newFakeS3()
	fake.objects["k"] = []byte("x")
	s := newS3Storage(fake, fakePresign{}, "diary", 0)

	require.NoError(t, s.Delete(context.Background(), "k"))
	assert.Empty(t, fake.objects)

	fake.delErr = &smithy.GenericAPIError{Code: "NoSuchKey"}
	assert.NoError(t, s.Delete(context.Background(), "k"))

	fake.delErr = errors.New("offline")
	assert.Error(t, s.Delete(context.Background(), "k"))
}

func TestDownload(t *testing.T) {
	fake := newFakeS3()
	fake.objects["k"] = []byte("jpeg-bytes")
	s := newS3Storage(fake, fakePresign{}, "diary", 0)

	var buf bytes.Buffer
	require.NoError(t, s.Download(context.Background(), "k", &buf))
	assert.Equal(t, "jpeg-bytes", buf.String())

	err := s.Download(context.Background(), "missing", &buf)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDownloadURL(t *testing.T) {
	s := newS3Storage(newFakeS3(), fakePresign{}, "diary", 0)
	u, err := s.DownloadURL(context.Background(), "images/u1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://minio/diary/images/u1/a.jpg?X-Amz-Signature=x", u)
}

func TestNewS3Storage_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, _ ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}

	_, err := NewS3Storage(context.Background(), S3Config{Bucket: "b"})
	assert.Error(t, err)
}
