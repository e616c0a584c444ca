package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittrance/vector/pkg/event"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrBufferFull", ErrBufferFull},
		{"ErrConsumerClosed", ErrConsumerClosed},
		{"ErrInvalidEvent", ErrInvalidEvent},
		{"ErrSinkClosed", ErrSinkClosed},
		{"ErrWriterClosed", ErrWriterClosed},
		{"ErrConnectionLost", ErrConnectionLost},
		{"ErrUnknownConversion", ErrUnknownConversion},
		{"ErrUnknownEncoding", ErrUnknownEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Component: "coercer", Key: "number", Err: ErrUnknownConversion}

	assert.Contains(t, err.Error(), "component=coercer")
	assert.Contains(t, err.Error(), "key=number")
	assert.ErrorIs(t, err, ErrUnknownConversion)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestEncodeError(t *testing.T) {
	base := errors.New("unsupported value: NaN")
	err := &EncodeError{Encoding: "json", Err: base}

	assert.Contains(t, err.Error(), "encoding=json")
	assert.ErrorIs(t, err, base)
}

func TestConversionError(t *testing.T) {
	base := errors.New("invalid syntax")
	err := &ConversionError{Target: "integer", Value: "abc", Err: base}

	assert.Equal(t, `conversion error: target=integer value="abc": invalid syntax`, err.Error())
	assert.ErrorIs(t, err, base)
}

func TestDecodeError(t *testing.T) {
	err := &DecodeError{Decoding: "cloudevents", Err: ErrInvalidEvent}

	assert.Contains(t, err.Error(), "decoding=cloudevents")
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestProcessingError(t *testing.T) {
	baseErr := errors.New("base error")
	procErr := &ProcessingError{
		PartitionID: event.PartitionID{Topic: "test", Partition: 0},
		Offset:      100,
		Stage:       "sink",
		Err:         baseErr,
	}

	assert.Contains(t, procErr.Error(), "partition=test-0")
	assert.ErrorIs(t, procErr, baseErr)
}

func TestStorageError(t *testing.T) {
	baseErr := errors.New("network timeout")
	err := &StorageError{Backend: "s3", Operation: "upload", Path: "logs/a.log", Err: baseErr}

	assert.Contains(t, err.Error(), "backend=s3")
	assert.ErrorIs(t, err, baseErr)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"connection lost", ErrConnectionLost, true},
		{"storage upload", &StorageError{Operation: "upload"}, true},
		{"storage write", &StorageError{Operation: "write"}, true},
		{"storage create", &StorageError{Operation: "create"}, true},
		{"storage delete", &StorageError{Operation: "delete"}, false},
		{
			name: "processing wraps retryable",
			err:  &ProcessingError{Err: &StorageError{Operation: "upload"}},
			want: true,
		},
		{
			name: "processing wraps encode failure",
			err:  &ProcessingError{Err: &EncodeError{Encoding: "json"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
