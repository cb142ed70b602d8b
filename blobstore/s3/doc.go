// Package s3 provides an Amazon S3 implementation of the blobstore.Store
// interface, plus a DynamoDB-backed run ledger.
//
// Artifacts below the configured part size are written with a single
// checksummed PutObject; larger ones go through the SDK's parallel
// multipart uploader. The RunLedger uses DynamoDB conditional writes to
// guarantee a run id is published at most once, which S3 alone cannot
// express.
package s3
