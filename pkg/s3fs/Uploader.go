// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultPartSize is the minimum part size accepted by S3 for multipart uploads.
const DefaultPartSize = 5 * 1024 * 1024

// UploadAPI is the subset of the S3 client used by the Uploader.
type UploadAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// Uploader writes an object to S3.
// Objects smaller than the part size are written with a single PutObject call.
type Uploader struct {
	ctx context.Context
	//
	acl              types.ObjectCannedACL
	client           UploadAPI
	bucket           *string
	bucketKeyEnabled bool
	contentType      *string
	key              *string
	partSize         int
	//
	buffer         *bytes.Buffer
	uploadID       *string
	lastPartNumber int32
	etags          map[int32]*string
	closed         bool
}

// Abort discards the object.  Parts already uploaded are released.
func (u *Uploader) Abort() error {
	if u.closed {
		return io.ErrUnexpectedEOF
	}
	u.closed = true
	u.buffer.Reset()
	if u.uploadID == nil {
		return nil
	}
	_, err := u.client.AbortMultipartUpload(u.ctx, &s3.AbortMultipartUploadInput{
		Bucket:   u.bucket,
		Key:      u.key,
		UploadId: u.uploadID,
	})
	if err != nil {
		return fmt.Errorf("error aborting multipart upload %q: %w", aws.ToString(u.uploadID), err)
	}
	return nil
}

func (u *Uploader) Close() error {
	if u.closed {
		return io.ErrUnexpectedEOF
	}

	u.closed = true

	if u.uploadID == nil {
		// bytes.Reader lets the client rewind the body on retry
		reader := bytes.NewReader(u.buffer.Bytes())
		_, err := u.client.PutObject(u.ctx, &s3.PutObjectInput{
			ACL:              u.acl,
			Body:             reader,
			Bucket:           u.bucket,
			BucketKeyEnabled: aws.Bool(u.bucketKeyEnabled),
			ContentLength:    aws.Int64(int64(reader.Len())),
			ContentType:      u.contentType,
			Key:              u.key,
		})
		if err != nil {
			return fmt.Errorf("error putting object %q: %w", aws.ToString(u.key), err)
		}
		u.buffer.Reset()
		return nil
	}

	if u.buffer.Len() > 0 {
		if err := u.uploadPart(); err != nil {
			return u.abortAfter(err)
		}
	}

	completedParts := make([]types.CompletedPart, 0, u.lastPartNumber)
	for i := int32(1); i <= u.lastPartNumber; i++ {
		completedParts = append(completedParts, types.CompletedPart{
			ETag:       u.etags[i],
			PartNumber: aws.Int32(i),
		})
	}

	_, err := u.client.CompleteMultipartUpload(u.ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   u.bucket,
		Key:      u.key,
		UploadId: u.uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completedParts,
		},
	})
	if err != nil {
		return u.abortAfter(fmt.Errorf("error completing multipart upload %q: %w", aws.ToString(u.uploadID), err))
	}
	return nil
}

func (u *Uploader) Write(p []byte) (int, error) {
	if u.closed {
		return 0, io.ErrUnexpectedEOF
	}

	n, err := u.buffer.Write(p)
	if err != nil {
		return 0, err
	}

	if u.buffer.Len() >= u.partSize {
		if u.uploadID == nil {
			createMultipartUploadOutput, err := u.client.CreateMultipartUpload(u.ctx, &s3.CreateMultipartUploadInput{
				ACL:              u.acl,
				Bucket:           u.bucket,
				BucketKeyEnabled: aws.Bool(u.bucketKeyEnabled),
				ContentType:      u.contentType,
				Key:              u.key,
			})
			if err != nil {
				return 0, fmt.Errorf("error creating multipart upload for %q: %w", aws.ToString(u.key), err)
			}
			u.uploadID = createMultipartUploadOutput.UploadId
		}
		if err := u.uploadPart(); err != nil {
			return 0, err
		}
	}

	return n, nil
}

func (u *Uploader) uploadPart() error {
	reader := bytes.NewReader(u.buffer.Bytes())
	partNumber := u.lastPartNumber + 1
	uploadPartOutput, err := u.client.UploadPart(u.ctx, &s3.UploadPartInput{
		Body:          reader,
		Bucket:        u.bucket,
		Key:           u.key,
		PartNumber:    aws.Int32(partNumber),
		UploadId:      u.uploadID,
		ContentLength: aws.Int64(int64(reader.Len())),
	})
	if err != nil {
		return fmt.Errorf("error uploading part %d of %q: %w", partNumber, aws.ToString(u.key), err)
	}
	u.etags[partNumber] = uploadPartOutput.ETag
	u.lastPartNumber = partNumber
	u.buffer = bytes.NewBuffer([]byte{})
	return nil
}

func (u *Uploader) abortAfter(err error) error {
	_, abortErr := u.client.AbortMultipartUpload(u.ctx, &s3.AbortMultipartUploadInput{
		Bucket:   u.bucket,
		Key:      u.key,
		UploadId: u.uploadID,
	})
	return errors.Join(err, abortErr)
}

type UploaderInput struct {
	ACL              types.ObjectCannedACL
	Client           UploadAPI
	Bucket           string
	BucketKeyEnabled bool
	ContentType      string
	Key              string
	PartSize         int
}

func NewUploader(ctx context.Context, input *UploaderInput) *Uploader {
	partSize := input.PartSize
	if partSize < DefaultPartSize {
		partSize = DefaultPartSize
	}
	var contentType *string
	if len(input.ContentType) > 0 {
		contentType = aws.String(input.ContentType)
	}
	return &Uploader{
		ctx: ctx,
		//
		acl:              input.ACL,
		client:           input.Client,
		bucket:           aws.String(input.Bucket),
		bucketKeyEnabled: input.BucketKeyEnabled,
		contentType:      contentType,
		key:              aws.String(input.Key),
		partSize:         partSize,
		//
		buffer:         bytes.NewBuffer([]byte{}),
		uploadID:       nil,
		lastPartNumber: int32(0),
		etags:          map[int32]*string{},
		closed:         false,
	}
}
