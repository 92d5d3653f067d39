package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, want: "203.0.113.7"},
		{name: "invalid forwarded falls through", headers: map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.2"}, want: "198.51.100.2"},
		{name: "remote addr", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "remote without port", remote: "192.0.2.11", want: "192.0.2.11"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if tc.remote != "" {
				req.RemoteAddr = tc.remote
			}
			require.Equal(t, tc.want, ClientIP(req))
		})
	}
	require.Empty(t, ClientIP(nil))
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=3&limit=500", nil)
	page, perPage := ParsePagination(req, 20)
	require.Equal(t, 3, page)
	require.Equal(t, MaxPerPage, perPage)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products?page=-1&limit=x", nil)
	page, perPage = ParsePagination(req, 20)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)

	require.Equal(t, 3, NewPagination(1, 2, 5).TotalPages)
	require.Equal(t, 0, NewPagination(1, 2, 0).TotalPages)
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{err: ErrInvalidArgument, code: http.StatusBadRequest},
		{err: ErrNotFound, code: http.StatusNotFound},
		{err: NewAppError("CONFLICT", "dup", http.StatusConflict, nil), code: http.StatusConflict},
		{err: http.ErrBodyNotAllowed, code: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteError(rr, tc.err)
		require.Equal(t, tc.code, rr.Code, tc.err.Error())
		require.Contains(t, rr.Body.String(), `"error"`)
	}
}
