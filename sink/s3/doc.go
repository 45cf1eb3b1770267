// Package s3 provides an S3 implementation of the sink.Sink interface.
//
// # Usage
//
//	st, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("hierarchies/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// # Features
//
//   - Streaming multipart uploads for large cluster units
//   - CRC32C integrity validation on whole-unit puts
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Optional DynamoDB commit sink for atomic CURRENT pointer updates
package s3
