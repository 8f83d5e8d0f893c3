package upload

import (
	"context"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API

	mu        sync.Mutex
	objects   map[string][]byte
	parts     map[int64][]byte
	completed []*s3.CompletedPart
	aborted   bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, parts: map[int64][]byte{}}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) CreateMultipartUploadWithContext(_ aws.Context, in *s3.CreateMultipartUploadInput, _ ...request.Option) (*s3.CreateMultipartUploadOutput, error) {
	return &s3.CreateMultipartUploadOutput{Bucket: in.Bucket, Key: in.Key, UploadId: aws.String("upload-1")}, nil
}

func (f *fakeS3) UploadPartWithContext(_ aws.Context, in *s3.UploadPartInput, _ ...request.Option) (*s3.UploadPartOutput, error) {
	b, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts[*in.PartNumber] = b
	return &s3.UploadPartOutput{ETag: aws.String("etag")}, nil
}

func (f *fakeS3) CompleteMultipartUploadWithContext(_ aws.Context, in *s3.CompleteMultipartUploadInput, _ ...request.Option) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = in.MultipartUpload.Parts
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(*s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
	return &s3.AbortMultipartUploadOutput{}, nil
}

func writeLog(t *testing.T, lines ...string) string {
	filename := filepath.Join(t.TempDir(), "gstd.log")
	require.NoError(t, ioutil.WriteFile(filename, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return filename
}

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://bucket/graphs/p0.dot", "graph", ".dot")
	require.NoError(t, err)
	require.Equal(t, "bucket", bucket)
	require.Equal(t, "graphs/p0.dot", key)

	bucket, key, err = ParseURL("bucket", "graph", ".dot")
	require.NoError(t, err)
	require.Equal(t, "bucket", bucket)
	require.True(t, strings.HasPrefix(key, "graph-"))
	require.True(t, strings.HasSuffix(key, ".dot"))

	_, _, err = ParseURL("s3:///key", "graph", ".dot")
	require.Error(t, err)
}

func TestReaderChunks(t *testing.T) {
	filename := writeLog(t, "0:00:00.1 INFO one", "0:00:00.2 INFO two", "0:00:00.3 INFO three")

	r, err := NewReader(filename, 30, false)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "0:00:00.1 INFO one\n0:00:00.2 INFO two\n", string(first))

	last, err := r.Next()
	require.Equal(t, io.EOF, err)
	require.Equal(t, "0:00:00.3 INFO three\n", string(last))
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.log"), 30, false)
	require.Error(t, err)
}

func TestPut(t *testing.T) {
	svc := newFakeS3()
	u := newUploaderWithClient(svc)

	require.NoError(t, u.Put(context.Background(), "bucket", "p0.dot", []byte("digraph p0 {}"), "text/vnd.graphviz"))
	require.Equal(t, "digraph p0 {}", string(svc.objects["bucket/p0.dot"]))
}

func TestStream(t *testing.T) {
	filename := writeLog(t, "aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc")
	r, err := NewReader(filename, 15, false)
	require.NoError(t, err)
	defer r.Close()

	svc := newFakeS3()
	u := newUploaderWithClient(svc)
	require.NoError(t, u.Stream(context.Background(), "bucket", "gstd.log", r))

	require.False(t, svc.aborted)
	require.Len(t, svc.completed, 2)
	require.Equal(t, "aaaaaaaaaa\nbbbbbbbbbb\n", string(svc.parts[1]))
	require.Equal(t, "cccccccccc\n", string(svc.parts[2]))
}
