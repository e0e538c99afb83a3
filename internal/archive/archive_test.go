package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadBucketOutput)
	return out, args.Error(1)
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte(`{"type":"full"}`)
	require.NoError(t, m.Put(ctx, "backups/1/1.json", data))
	data[0] = 'X'

	got, err := m.Get(ctx, "backups/1/1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"full"}`, string(got))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "backups/1/1.json"))
	require.NoError(t, m.Delete(ctx, "backups/1/1.json"))
	_, err = m.Get(ctx, "backups/1/1.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3_Put(t *testing.T) {
	client := &mockS3{}
	a := newS3(client, "panel-backups", zerolog.Nop())

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "panel-backups" && *in.Key == "backups/2/5.json" &&
			*in.ContentLength == 4 && string(body) == "data"
	})).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, a.Put(context.Background(), "backups/2/5.json", []byte("data")))
	client.AssertExpectations(t)
}

func TestS3_PutError(t *testing.T) {
	client := &mockS3{}
	a := newS3(client, "b", zerolog.Nop())
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := a.Put(context.Background(), "k", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put archive k")
}

func TestS3_Get(t *testing.T) {
	client := &mockS3{}
	a := newS3(client, "b", zerolog.Nop())
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "k"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("payload")))}, nil)

	got, err := a.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestS3_GetMissingKey(t *testing.T) {
	client := &mockS3{}
	a := newS3(client, "b", zerolog.Nop())
	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &s3types.NoSuchKey{})

	_, err := a.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3_DeleteAndPing(t *testing.T) {
	client := &mockS3{}
	a := newS3(client, "b", zerolog.Nop())
	client.On("DeleteObject", mock.Anything, mock.Anything).Return(&s3.DeleteObjectOutput{}, nil)
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, errors.New("no such bucket")).Once()

	require.NoError(t, a.Delete(context.Background(), "k"))
	err := a.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "head bucket b")
}
