package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("apply coupon: %w", NotApplicable("coupon code is not valid for this shop"))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindNotApplicable, kind)
	assert.True(t, IsKind(err, KindNotApplicable))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestErrorsIs_MatchesByKind(t *testing.T) {
	err := InvalidToken("invalid or expired OTP")

	assert.ErrorIs(t, err, &Error{Kind: KindExpiredOrInvalidToken})
	assert.NotErrorIs(t, err, &Error{Kind: KindValidation})
}

func TestTransport_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Transport("error sending OTP email", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindNotApplicable))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindExpiredOrInvalidToken))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindTransport))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindUnauthorized))
}
