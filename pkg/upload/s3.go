package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/corner4world/gstd-1.x/pkg/config"
	"github.com/corner4world/gstd-1.x/pkg/logger"
)

const (
	// smallest part size S3 accepts for all but the last part
	ChunkSize  = 5 * 1024 * 1024
	maxRetries = 5
)

type Uploader struct {
	svc s3iface.S3API
}

func NewUploader(conf config.S3Config) (*Uploader, error) {
	awsConf := &aws.Config{
		Credentials: credentials.NewStaticCredentials(conf.AccessKey, conf.Secret, ""),
		Region:      aws.String(conf.Region),
	}
	if conf.Endpoint != "" {
		awsConf.Endpoint = aws.String(conf.Endpoint)
		awsConf.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create aws session")
	}
	return &Uploader{svc: s3.New(sess)}, nil
}

func newUploaderWithClient(svc s3iface.S3API) *Uploader {
	return &Uploader{svc: svc}
}

// ParseURL splits s3://bucket/key. A missing key is generated from prefix
// and the current time.
func ParseURL(s3Url, prefix, ext string) (bucket, key string, err error) {
	s3Url = strings.TrimPrefix(s3Url, "s3://")
	if idx := strings.Index(s3Url, "/"); idx != -1 {
		bucket = s3Url[:idx]
		key = s3Url[idx+1:]
	} else {
		bucket = s3Url
	}
	if bucket == "" {
		return "", "", fmt.Errorf("invalid s3 url %q", s3Url)
	}
	if key == "" {
		key = fmt.Sprintf("%s-%s%s", prefix, time.Now().Format("20060102150405"), ext)
	}
	return bucket, key, nil
}

// Put uploads a small payload, such as a pipeline graph, in one request.
func (u *Uploader) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := u.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "could not upload s3://%s/%s", bucket, key)
	}
	logger.Debugw("uploaded object", "bucket", bucket, "key", key, "size", len(body))
	return nil
}

// Stream copies everything the reader produces into one multipart upload.
// It returns when the reader reaches EOF or ctx is cancelled; on failure the
// multipart upload is aborted.
func (u *Uploader) Stream(ctx context.Context, bucket, key string, reader *Reader) error {
	res, err := u.svc.CreateMultipartUploadWithContext(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return errors.Wrap(err, "could not start multipart upload")
	}

	if err = u.stream(ctx, res, reader); err != nil {
		logger.Errorw("upload failed", err, "bucket", bucket, "key", key)
		u.abort(res)
		return err
	}
	return nil
}

func (u *Uploader) stream(ctx context.Context, res *s3.CreateMultipartUploadOutput, reader *Reader) error {
	partNum := int64(1)
	completed := make([]*s3.CompletedPart, 0)

	for eof := false; !eof; {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := reader.Next()
		if err == io.EOF {
			eof = true
		} else if err != nil {
			return err
		}
		if len(chunk) == 0 {
			continue
		}

		part, err := u.uploadPart(ctx, res, chunk, partNum)
		if err != nil {
			return err
		}
		completed = append(completed, part)
		partNum++
	}

	if len(completed) == 0 {
		return errors.New("nothing to upload")
	}

	logger.Debugw("complete upload", "parts", len(completed))
	_, err := u.svc.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   res.Bucket,
		Key:      res.Key,
		UploadId: res.UploadId,
		MultipartUpload: &s3.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	return err
}

func (u *Uploader) uploadPart(ctx context.Context, res *s3.CreateMultipartUploadOutput, chunk []byte, partNumber int64) (*s3.CompletedPart, error) {
	start := time.Now()
	logger.Debugw("uploading part", "num", partNumber, "size", len(chunk))

	var err error
	for retry := 0; retry <= maxRetries; retry++ {
		var out *s3.UploadPartOutput
		out, err = u.svc.UploadPartWithContext(ctx, &s3.UploadPartInput{
			Body:          bytes.NewReader(chunk),
			Bucket:        res.Bucket,
			Key:           res.Key,
			PartNumber:    aws.Int64(partNumber),
			UploadId:      res.UploadId,
			ContentLength: aws.Int64(int64(len(chunk))),
		})
		if err == nil {
			logger.Debugw("upload part finished", "time", fmt.Sprint(time.Since(start)))
			return &s3.CompletedPart{
				ETag:       out.ETag,
				PartNumber: aws.Int64(partNumber),
			}, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Wrapf(err, "could not upload part %d", partNumber)
}

func (u *Uploader) abort(res *s3.CreateMultipartUploadOutput) {
	logger.Debugw("aborting upload")
	_, err := u.svc.AbortMultipartUpload(&s3.AbortMultipartUploadInput{
		Bucket:   res.Bucket,
		Key:      res.Key,
		UploadId: res.UploadId,
	})
	if err != nil {
		logger.Errorw("failed to abort upload", err)
	}
}
