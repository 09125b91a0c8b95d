package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRequest(t *testing.T) {
	var dst struct {
		Player int `json:"player"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"player":2}`))
	require.NoError(t, DecodeJSONRequest(r, &dst))
	assert.Equal(t, 2, dst.Player)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"player":2,"color":"black"}`))
	assert.ErrorContains(t, DecodeJSONRequest(r, &dst), "invalid JSON")

	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	assert.Error(t, DecodeJSONRequest(r, &dst))
}
