package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logm8/logmate/internal/common"
)

var testOptions = Options{
	Region:       "us-east-1",
	User:         "minioadmin",
	Password:     "minioadmin",
	BaseEndpoint: "http://127.0.0.1:9000",
}

// stubSeams replaces the AWS constructors for the duration of the test.
func stubSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origGet := getObject
	origPut := presignPutObject
	origPresGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		getObject = origGet
		presignPutObject = origPut
		presignGetObject = origPresGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestNew_AppliesRegionAndEndpoint(t *testing.T) {
	stubSeams(t)

	var region string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	st, err := New(context.Background(), testOptions)
	require.NoError(t, err)
	require.NotNil(t, st)

	assert.Equal(t, "us-east-1", region)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNew_LoadConfigError(t *testing.T) {
	stubSeams(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, err := New(context.Background(), testOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDownload(t *testing.T) {
	stubSeams(t)
	st, err := New(context.Background(), testOptions)
	require.NoError(t, err)

	t.Run("copies body", func(t *testing.T) {
		getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "assets", *in.Bucket)
			assert.Equal(t, "ServiceOptions.db", *in.Key)
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("sqlite bytes"))}, nil
		}
		var buf bytes.Buffer
		n, err := st.Download(context.Background(), "assets", "ServiceOptions.db", &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(len("sqlite bytes")), n)
		assert.Equal(t, "sqlite bytes", buf.String())
	})

	t.Run("missing key maps to not found", func(t *testing.T) {
		getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &types.NoSuchKey{}
		}
		_, err := st.Download(context.Background(), "assets", "nope", io.Discard)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, errors.New("conn reset")
		}
		_, err := st.Download(context.Background(), "assets", "k", io.Discard)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
		assert.Contains(t, err.Error(), "conn reset")
	})
}

func TestPresign(t *testing.T) {
	stubSeams(t)
	st, err := New(context.Background(), testOptions)
	require.NoError(t, err)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 15*time.Minute, po.Expires)
		require.NotNil(t, in.ContentType)
		assert.Equal(t, "image/png", *in.ContentType)
		return &v4.PresignedHTTPRequest{URL: "https://put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://get/" + *in.Key}, nil
	}

	u, err := st.PresignPut(context.Background(), "receipts", "receipts/a.png", "image/png", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://put/receipts/a.png", u)

	u, err = st.PresignGet(context.Background(), "receipts", "receipts/a.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://get/receipts/a.png", u)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign failed")
	}
	_, err = st.PresignGet(context.Background(), "receipts", "k", time.Hour)
	assert.Error(t, err)
}
