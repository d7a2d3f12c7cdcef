package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteStatusShape(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteStatus(rec, http.StatusForbidden, "you do not have enough permission")

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, http.StatusForbidden, body.StatusCode)
	require.Equal(t, "FORBIDDEN", body.StatusName)
	require.Equal(t, "YOU DO NOT HAVE ENOUGH PERMISSION", body.Message)
}
