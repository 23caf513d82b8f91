package errors

import (
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "ledger failure is retried",
			err:             NewLedgerFailureError("insertSale", stderrors.New("conn reset")),
			expectedCode:    "LEDGER_UNAVAILABLE",
			expectedRetries: 3,
		},
		{
			name:            "bad job variables are not retried",
			err:             NewInvalidJobVariablesError(stderrors.New("unexpected EOF")),
			expectedCode:    "INVALID_MESSAGE",
			expectedRetries: 0,
		},
		{
			name:            "unmapped code falls back to itself",
			err:             NewFormatError("sale", "sale 2 soap @50"),
			expectedCode:    "FORMAT_ERROR",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "NONE", GetErrorCategory(ErrCodeNone))
	assert.Equal(t, "INPUT", GetErrorCategory(ErrCodeFormatError))
	assert.Equal(t, "INPUT", GetErrorCategory(ErrCodeNoMatch))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeLedgerFailure))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogInvalid))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidJobVariables))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestAsStandardError(t *testing.T) {
	original := NewNotFoundError("soap")
	assert.Same(t, original, AsStandardError(original))

	wrapped := AsStandardError(stderrors.New("plain"))
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
	assert.Equal(t, "plain", wrapped.Details)
	assert.False(t, IsRetryableErrorCode(wrapped.Code))
}

func TestRetriesFor(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewLedgerFailureError("sum", stderrors.New("x")))

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 1}}
	assert.Equal(t, int32(1), RetriesFor(job, bpmnErr))

	job = entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 5}}
	assert.Equal(t, int32(3), RetriesFor(job, bpmnErr))
}
