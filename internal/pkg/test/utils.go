package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

//Contains checks if slice contains value
func Contains(s []string, v string) bool {
	for _, a := range s {
		if a == v {
			return true
		}
	}
	return false
}

//Decode reads JSON from recorded response
func Decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.Nil(t, json.Unmarshal(resp.Body.Bytes(), &res), resp.Body.String())
	return res
}

//Serve runs request against handler and returns recorded response
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}
