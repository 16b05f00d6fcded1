package blob

import (
	"chat-sync/errors"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (r *recordingUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if r.err != nil {
		return nil, r.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	r.inputs = append(r.inputs, input)
	r.bodies = append(r.bodies, body)
	return &manager.UploadOutput{}, nil
}

func TestS3Store_Upload(t *testing.T) {
	req := require.New(t)
	up := &recordingUploader{}
	store := newS3Store(up, S3Config{Region: "eu-west-3", Bucket: "chat"})

	url, err := store.Upload(context.Background(), []byte("%PDF-1.4 minimal"), "chat_images/alice@x.com_10_0.pdf")

	req.NoError(err)
	req.Equal("https://chat.s3.eu-west-3.amazonaws.com/chat_images/alice@x.com_10_0.pdf", url)
	req.Len(up.inputs, 1)
	req.Equal("chat", aws.ToString(up.inputs[0].Bucket))
	req.Equal("chat_images/alice@x.com_10_0.pdf", aws.ToString(up.inputs[0].Key))
	req.Equal("application/pdf", aws.ToString(up.inputs[0].ContentType))
	req.Equal([]byte("%PDF-1.4 minimal"), up.bodies[0])
}

func TestS3Store_CustomEndpoint(t *testing.T) {
	store := newS3Store(&recordingUploader{}, S3Config{Bucket: "chat", Endpoint: "http://localhost:9000/"})

	url, err := store.Upload(context.Background(), []byte("x"), "group_images/1 2.png")

	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000/chat/group_images/1%202.png", url)
}

func TestS3Store_FailuresAreNetworkErrors(t *testing.T) {
	store := newS3Store(&recordingUploader{err: fmt.Errorf("503")}, S3Config{Bucket: "chat"})

	_, err := store.Upload(context.Background(), []byte("x"), "a.png")

	require.ErrorIs(t, err, errors.ErrNetwork)
}

func TestCleanKey_RejectsEscapes(t *testing.T) {
	for _, path := range []string{"", "/", "../etc/passwd", "a/../../b", "a//b", "./a"} {
		_, err := cleanKey(path)
		require.ErrorIs(t, err, errors.ErrValidation, path)
	}
	key, err := cleanKey("/profile_images/a.png")
	require.NoError(t, err)
	require.Equal(t, "profile_images/a.png", key)
}

func TestDiskStore_Upload(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()

	t.Run("file urls without base url", func(t *testing.T) {
		store, err := NewDiskStore(root, "")
		req.NoError(err)

		url, err := store.Upload(context.Background(), []byte("png"), "chat_images/a_1_0.png")
		req.NoError(err)
		req.Equal("file://"+filepath.ToSlash(filepath.Join(root, "chat_images", "a_1_0.png")), url)

		data, err := os.ReadFile(filepath.Join(root, "chat_images", "a_1_0.png"))
		req.NoError(err)
		req.Equal([]byte("png"), data)
	})

	t.Run("base url", func(t *testing.T) {
		store, err := NewDiskStore(root, "http://localhost:8080/blobs/")
		req.NoError(err)

		url, err := store.Upload(context.Background(), []byte("png"), "group_images/7.png")
		req.NoError(err)
		req.Equal("http://localhost:8080/blobs/group_images/7.png", url)
	})

	t.Run("canceled context writes nothing", func(t *testing.T) {
		store, err := NewDiskStore(root, "")
		req.NoError(err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = store.Upload(ctx, []byte("png"), "late.png")
		req.ErrorIs(err, errors.ErrNetwork)
		_, statErr := os.Stat(filepath.Join(root, "late.png"))
		req.True(os.IsNotExist(statErr))
	})
}
