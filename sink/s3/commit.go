package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/subclust/sink"
)

// currentName is the pointer unit a manifest store flips last. Its value
// names the live manifest file.
const currentName = "CURRENT"

// ErrConcurrentPromotion is returned when another writer committed a new
// version first.
var ErrConcurrentPromotion = errors.New("concurrent promotion detected")

// DDBClient is the interface for the DynamoDB operations the commit sink
// uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitSink implements sink.Sink backed by S3 with DynamoDB for atomic
// CURRENT pointer commits. S3 alone cannot compare-and-swap an object;
// DynamoDB conditional writes can, so concurrent writers coordinate
// without losing commits. Every directory holding a CURRENT unit gets its
// own commit row, so independent hierarchies in one bucket do not contend.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 prefix/path
//   - Sort key: version (number) - monotonically increasing version
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name subclust-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitSink struct {
	store     *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// NewCommitSink creates a new S3+DynamoDB commit sink.
// The baseURI should be "s3://bucket/prefix" format; it is only used as
// the partition key.
func NewCommitSink(store *Store, ddbClient DDBClient, tableName, baseURI string) *CommitSink {
	return &CommitSink{
		store:     store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// partition derives the commit row key for a unit name, so CURRENT
// pointers in different directories version independently.
func (s *CommitSink) partition(name string) string {
	dir := path.Dir(name)
	if dir == "." {
		return s.baseURI
	}
	return s.baseURI + "/" + dir
}

// EnsureDir delegates to the S3 store.
func (s *CommitSink) EnsureDir(ctx context.Context, dir string) error {
	return s.store.EnsureDir(ctx, dir)
}

// Create delegates to the S3 store.
func (s *CommitSink) Create(ctx context.Context, name string) (sink.Unit, error) {
	return s.store.Create(ctx, name)
}

// Put writes a unit. For CURRENT pointers it becomes a DynamoDB
// conditional write instead of an S3 object.
func (s *CommitSink) Put(ctx context.Context, name string, data []byte) error {
	if path.Base(name) == currentName {
		return s.commitVersion(ctx, s.partition(name), string(data))
	}
	return s.store.Put(ctx, name, data)
}

// Open opens a unit. CURRENT pointers read the latest committed version
// from DynamoDB.
func (s *CommitSink) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if path.Base(name) == currentName {
		version, manifestPath, err := s.getLatestVersion(ctx, s.partition(name))
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, sink.ErrNotFound
		}
		return io.NopCloser(bytes.NewReader([]byte(manifestPath))), nil
	}
	return s.store.Open(ctx, name)
}

// Delete delegates to the S3 store.
func (s *CommitSink) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

// List delegates to the S3 store.
func (s *CommitSink) List(ctx context.Context, prefix string) ([]string, error) {
	return s.store.List(ctx, prefix)
}

// getLatestVersion queries DynamoDB for the latest committed version of a
// partition.
func (s *CommitSink) getLatestVersion(ctx context.Context, partition string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	pathAttr, ok := item["manifest_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid manifest_path attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, pathAttr.Value, nil
}

// commitVersion atomically commits a new manifest version using a
// DynamoDB conditional write.
func (s *CommitSink) commitVersion(ctx context.Context, partition, manifestPath string) error {
	currentVersion, _, err := s.getLatestVersion(ctx, partition)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":      &types.AttributeValueMemberS{Value: partition},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(newVersion, 10)},
			"manifest_path": &types.AttributeValueMemberS{Value: manifestPath},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentPromotion
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}
