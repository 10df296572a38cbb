// Package source opens recorded sessions from local files, standard input or S3.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/temirov/sessiontree/internal/session"
	"github.com/temirov/sessiontree/internal/utils"
)

const (
	s3Scheme = "s3://"

	errorOpenFileFormat      = "open session %s: %w"
	errorS3LocationFormat    = "%w: %q (expected s3://bucket/key)"
	errorS3ClientFormat      = "create s3 client: %w"
	errorS3GetObjectFormat   = "fetch s3://%s/%s: %w"
	errorParseSessionFormat  = "parse session %s: %w"
	errorMissingStdinMessage = "standard input is not available"
)

// ErrUnsupportedLocation reports a location that cannot be opened.
var ErrUnsupportedLocation = errors.New("unsupported session location")

// ObjectGetter fetches S3 objects. *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ClientFactory creates the S3 client on first use.
type S3ClientFactory func(ctx context.Context) (ObjectGetter, error)

// S3Options configures the AWS client.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, options S3Options) (*s3.Client, error) {
	var loadOptions []func(*awsconfig.LoadOptions) error
	if options.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(options.Region))
	}
	awsConfiguration, loadError := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if loadError != nil {
		return nil, fmt.Errorf("load aws config: %w", loadError)
	}
	return s3.NewFromConfig(awsConfiguration, func(clientOptions *s3.Options) {
		if options.Endpoint != "" {
			clientOptions.BaseEndpoint = aws.String(options.Endpoint)
		}
		clientOptions.UsePathStyle = options.UsePathStyle
	}), nil
}

// DefaultS3ClientFactory returns a factory backed by NewS3Client.
func DefaultS3ClientFactory(options S3Options) S3ClientFactory {
	return func(ctx context.Context) (ObjectGetter, error) {
		return NewS3Client(ctx, options)
	}
}

// Opener resolves session locations.
type Opener struct {
	Stdin io.Reader
	S3    S3ClientFactory

	clientOnce  sync.Once
	client      ObjectGetter
	clientError error
}

// Open returns a reader for location. "-" is standard input, s3://bucket/key
// an S3 object, anything else a local path.
func (opener *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case location == utils.StandardInputLocation:
		if opener.Stdin == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocation, errorMissingStdinMessage)
		}
		return io.NopCloser(opener.Stdin), nil
	case strings.HasPrefix(location, s3Scheme):
		return opener.openObject(ctx, location)
	default:
		file, openError := os.Open(location)
		if openError != nil {
			return nil, fmt.Errorf(errorOpenFileFormat, location, openError)
		}
		return file, nil
	}
}

func (opener *Opener) openObject(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, parseError := ParseS3Location(location)
	if parseError != nil {
		return nil, parseError
	}
	if opener.S3 == nil {
		return nil, fmt.Errorf(errorS3LocationFormat, ErrUnsupportedLocation, location)
	}
	opener.clientOnce.Do(func() {
		opener.client, opener.clientError = opener.S3(ctx)
	})
	if opener.clientError != nil {
		return nil, fmt.Errorf(errorS3ClientFormat, opener.clientError)
	}
	output, getError := opener.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if getError != nil {
		return nil, fmt.Errorf(errorS3GetObjectFormat, bucket, key, getError)
	}
	return output.Body, nil
}

// ParseS3Location splits s3://bucket/key.
func ParseS3Location(location string) (string, string, error) {
	trimmed := strings.TrimPrefix(location, s3Scheme)
	if trimmed == location {
		return "", "", fmt.Errorf(errorS3LocationFormat, ErrUnsupportedLocation, location)
	}
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf(errorS3LocationFormat, ErrUnsupportedLocation, location)
	}
	return bucket, key, nil
}

// ReadCommands opens location and parses it into commands.
func (opener *Opener) ReadCommands(ctx context.Context, location string) ([]session.Command, error) {
	reader, openError := opener.Open(ctx, location)
	if openError != nil {
		return nil, openError
	}
	defer reader.Close()
	commands, parseError := session.ParseReader(reader)
	if parseError != nil {
		return nil, fmt.Errorf(errorParseSessionFormat, location, parseError)
	}
	return commands, nil
}
