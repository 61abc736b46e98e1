package exports

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestArchive(t *testing.T) {
	fake := &fakeS3{}
	a := NewWithClient(fake, Config{Bucket: "exports", Prefix: "shipments/"}, zerolog.Nop())

	key, err := a.Archive(context.Background(), "blueexpress_2026-03-01.csv", []byte("REFERENCIA\nABCD1234\n"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "shipments/"))
	require.True(t, strings.HasSuffix(key, "_blueexpress_2026-03-01.csv"))
	require.Equal(t, "exports", aws.ToString(fake.input.Bucket))
	require.Equal(t, key, aws.ToString(fake.input.Key))
	require.Equal(t, "text/csv; charset=utf-8", aws.ToString(fake.input.ContentType))
	require.Equal(t, "REFERENCIA\nABCD1234\n", fake.body)
}

func TestArchiveKeysAreUnique(t *testing.T) {
	a := NewWithClient(&fakeS3{}, Config{Bucket: "b"}, zerolog.Nop())
	require.NotEqual(t, a.Key("x.csv"), a.Key("x.csv"))
	require.False(t, strings.Contains(a.Key("../../etc/x.csv"), ".."))
}

func TestArchiveError(t *testing.T) {
	a := NewWithClient(&fakeS3{err: errors.New("access denied")}, Config{Bucket: "b"}, zerolog.Nop())
	_, err := a.Archive(context.Background(), "x.csv", nil)
	require.ErrorContains(t, err, "access denied")
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), Config{}, zerolog.Nop())
	require.Error(t, err)
}
