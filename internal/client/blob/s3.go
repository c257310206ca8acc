package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/diary/internal/common"
)

// MinPartSize is the smallest part S3 accepts for all but the last part.
const MinPartSize = 5 << 20

// S3Config addresses a bucket. Endpoint is optional and targets
// S3-compatible servers such as MinIO.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PartSize  int64
}

type s3API interface {
	CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	ListParts(ctx context.Context, in *s3.ListPartsInput, optFns ...func(*s3.Options)) (*s3.ListPartsOutput, error)
	CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

type S3Storage struct {
	client   s3API
	presign  presignAPI
	bucket   string
	partSize int64
}

func NewS3Storage(ctx context.Context, c S3Config) (*S3Storage, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, s3.NewPresignClient(client), c.Bucket, c.PartSize), nil
}

func newS3Storage(client s3API, presign presignAPI, bucket string, partSize int64) *S3Storage {
	if partSize <= 0 {
		partSize = MinPartSize
	}
	return &S3Storage{client: client, presign: presign, bucket: bucket, partSize: partSize}
}

func (s *S3Storage) Upload(ctx context.Context, key, localPath, session string) *Transfer {
	info, err := os.Stat(localPath)
	if err != nil {
		return Failed(fmt.Errorf("stat %s: %w", localPath, err))
	}

	return Start(ctx, int(s.parts(info.Size()))+1, func(ctx context.Context, report func(Progress)) error {
		return s.upload(ctx, report, key, localPath, info.Size(), session)
	})
}

func (s *S3Storage) parts(size int64) int64 {
	n := (size + s.partSize - 1) / s.partSize
	if n == 0 {
		n = 1
	}
	return n
}

func (s *S3Storage) upload(ctx context.Context, report func(Progress), key, localPath string, size int64, session string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	stored := map[int32]types.CompletedPart{}
	var sent int64

	if session != "" {
		parts, err := s.listParts(ctx, key, session)
		switch {
		case isCode(err, "NoSuchUpload"):
			session = ""
		case err != nil:
			return err
		default:
			for _, p := range parts {
				stored[aws.ToInt32(p.PartNumber)] = types.CompletedPart{ETag: p.ETag, PartNumber: p.PartNumber}
				sent += aws.ToInt64(p.Size)
			}
		}
	}

	if session == "" {
		out, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType(localPath)),
		})
		if err != nil {
			return fmt.Errorf("create upload: %w", err)
		}
		session = aws.ToString(out.UploadId)
	}

	report(Progress{Session: session, Sent: sent, Total: size})

	completed := make([]types.CompletedPart, 0, s.parts(size))
	for n := int64(1); n <= s.parts(size); n++ {
		num := int32(n)
		if p, ok := stored[num]; ok {
			completed = append(completed, p)
			continue
		}

		offset := (n - 1) * s.partSize
		length := min(s.partSize, size-offset)

		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			UploadId:      aws.String(session),
			PartNumber:    aws.Int32(num),
			Body:          io.NewSectionReader(f, offset, length),
			ContentLength: aws.Int64(length),
		})
		if err != nil {
			return fmt.Errorf("upload part %d: %w", num, err)
		}

		completed = append(completed, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(num)})
		sent += length
		report(Progress{Session: session, Sent: sent, Total: size})
	}

	sort.Slice(completed, func(i, j int) bool {
		return aws.ToInt32(completed[i].PartNumber) < aws.ToInt32(completed[j].PartNumber)
	})

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(session),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return fmt.Errorf("complete upload: %w", err)
	}
	return nil
}

func (s *S3Storage) listParts(ctx context.Context, key, session string) ([]types.Part, error) {
	var parts []types.Part

	p := s3.NewListPartsPaginator(s.client, &s3.ListPartsInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(session),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list parts: %w", err)
		}
		parts = append(parts, page.Parts...)
	}
	return parts, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isCode(err, "NoSuchKey", "NotFound") {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Download(ctx context.Context, key string, w io.Writer) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isCode(err, "NoSuchKey", "NotFound") {
			return fmt.Errorf("%s: %w", key, common.ErrNotFound)
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) DownloadURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// isCode reports whether err is an API error with one of the codes.
func isCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	for _, c := range codes {
		if ae.ErrorCode() == c {
			return true
		}
	}
	return false
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
