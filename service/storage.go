package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/samber/lo"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var _ core.StorageService = (*StorageServiceDefault)(nil)

// s3DeleteBatchSize is the DeleteObjects request limit.
const s3DeleteBatchSize = 1000

// S3API is the part of the S3 client used for purges.
type S3API interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type StorageServiceParams struct {
	fx.In
	Config config.Manager
	Logger *core.Logger
}

type StorageServiceDefault struct {
	bucket string
	client S3API
	logger *core.Logger
}

func NewStorageService(params StorageServiceParams) (*StorageServiceDefault, error) {
	cfg := params.Config.Config().Core.Storage.S3

	storage := &StorageServiceDefault{
		bucket: cfg.Bucket,
		logger: params.Logger,
	}

	if !cfg.Enabled() {
		params.Logger.Info("object storage not configured, document purge only removes rows")
		return storage, nil
	}

	client, err := newS3Client(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	storage.client = client

	return storage, nil
}

func NewStorageServiceWithClient(bucket string, client S3API, logger *core.Logger) *StorageServiceDefault {
	return &StorageServiceDefault{
		bucket: bucket,
		client: client,
		logger: logger,
	}
}

func newS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(cfg.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *StorageServiceDefault) DeleteObjects(ctx context.Context, keys []string) error {
	keys = lo.Uniq(lo.Compact(keys))

	if len(keys) == 0 {
		return nil
	}

	if s.client == nil {
		s.logger.Debug("skipping object purge, storage disabled", zap.Int("objects", len(keys)))
		return nil
	}

	for _, chunk := range lo.Chunk(keys, s3DeleteBatchSize) {
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: lo.Map(chunk, func(key string, _ int) types.ObjectIdentifier {
					return types.ObjectIdentifier{Key: aws.String(key)}
				}),
				Quiet: aws.Bool(true),
			},
		})
		if err != nil {
			return core.NewPrivacyError(core.ErrKeyObjectPurgeFailed, err)
		}

		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return core.NewPrivacyError(core.ErrKeyObjectPurgeFailed,
				fmt.Errorf("%d objects not deleted, first %s: %s", len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message)))
		}
	}

	return nil
}
