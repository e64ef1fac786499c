package tailor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/shared/metrics"
)

func newRouter() (*gin.Engine, *metrics.Registry) {
	gin.SetMode(gin.TestMode)
	reg := metrics.New()
	r := gin.New()
	NewHandler(reg).RegisterRoutes(r.Group("/api/v1"))
	return r, reg
}

func post(t *testing.T, r *gin.Engine, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), w.Body.String())
	return w, payload
}

func TestValidateEndpoint(t *testing.T) {
	r, reg := newRouter()

	w, body := post(t, r, "/api/v1/edits/validate", `{
		"lines": ["A", "B", "C"],
		"edits": {"version":1,"meta":{},"ops":[{"op":"replace_line","line":2,"text":"X"}]}
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, []any{}, body["findings"])

	w, body = post(t, r, "/api/v1/edits/validate", `{
		"lines": ["A"],
		"edits": {"version":1,"meta":{},"ops":[{"op":"replace_line","line":5,"text":"X"}]},
		"risk": "strict"
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["findings"])
	assert.Contains(t, reg.Render(), "tailor_validations_total 2\n")
}

func TestValidateEndpointRejectsBadInput(t *testing.T) {
	r, _ := newRouter()
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, "validation_error"},
		{"missing edits", `{"lines":["A"]}`, "validation_error"},
		{"bad risk", `{"lines":["A"],"edits":{"version":1,"meta":{},"ops":[]},"risk":"extreme"}`, "validation_error"},
		{"bad version", `{"lines":["A"],"edits":{"version":9,"meta":{},"ops":[]}}`, "invalid_edits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := post(t, r, "/api/v1/edits/validate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, body["error"].(map[string]any)["code"])
		})
	}
}

func TestApplyEndpoint(t *testing.T) {
	r, _ := newRouter()

	w, body := post(t, r, "/api/v1/edits/apply", `{
		"lines": ["A", "B", "C"],
		"edits": {"version":1,"meta":{},"ops":[
			{"op":"replace_range","start":2,"end":3,"text":"X\nY\nZ"},
			{"op":"insert_after","line":1,"text":"Q"}
		]},
		"risk": "low",
		"force": true
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"A", "Q", "X", "Y", "Z"}, body["lines"])
	assert.Contains(t, body["warnings"], "Op 0: replace_range line count mismatch (2 -> 3)")
	assert.Contains(t, body["diff"], "+   2 Q")
}

func TestApplyEndpointRefusesFindingsUnlessForced(t *testing.T) {
	r, _ := newRouter()
	payload := `{"lines":["A"],"edits":{"version":1,"meta":{},"ops":[{"op":"replace_line","line":4,"text":"X"}]}%s}`

	w, body := post(t, r, "/api/v1/edits/apply", strings.Replace(payload, "%s", "", 1))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", body["error"].(map[string]any)["code"])

	w, body = post(t, r, "/api/v1/edits/apply", strings.Replace(payload, "%s", `,"force":true`, 1))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "edit_error", errBody["code"])
	assert.EqualValues(t, 0, errBody["details"].(map[string]any)["opIndex"])
}
