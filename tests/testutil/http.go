package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// HTTPTestCase drives a single handler call.
type HTTPTestCase struct {
	Name   string
	Method string
	Path   string
	Params gin.Params
	Body   any
	// Actor authenticates the request when set
	Actor          *appinv.Actor
	ExpectedStatus int
	ExpectedCode   string
	Validate       func(t *testing.T, tc *TestContext)
}

// RunHTTPTestCases runs each case as a subtest against handler.
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// RunHTTPTestCase builds the request, invokes handler and checks the envelope.
func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) {
	t.Helper()

	var body io.Reader
	if tc.Body != nil {
		body = ToJSONReader(t, tc.Body)
	}

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}
	req := httptest.NewRequest(method, path, body)
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = req
	c.Params = tc.Params

	testCtx := &TestContext{Context: c, Recorder: w, Engine: engine}
	if tc.Actor != nil {
		testCtx.SetActor(*tc.Actor)
	}

	handler(c)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code: %s", w.Body.String())
	}
	if tc.ExpectedCode != "" {
		AssertErrorResponse(t, testCtx, tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, testCtx)
	}
}

// DecodeResponse parses the standard response envelope, decoding data into T.
func DecodeResponse[T any](t *testing.T, tc *TestContext) (T, *dto.ErrorInfo) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &envelope), "Failed to parse JSON response")

	var data T
	if len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, &data), "Failed to parse response data")
	}
	return data, envelope.Error
}

// AssertSuccessResponse asserts the envelope reports success.
func AssertSuccessResponse(t *testing.T, tc *TestContext) {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &resp), "Failed to parse JSON response")
	assert.True(t, resp.Success, "Expected success to be true")
	assert.Nil(t, resp.Error, "Expected no error")
}

// AssertErrorResponse asserts the envelope carries the given error code.
func AssertErrorResponse(t *testing.T, tc *TestContext, expectedCode string) {
	t.Helper()

	_, errInfo := DecodeResponse[json.RawMessage](t, tc)
	require.NotNil(t, errInfo, "Expected error object in response")
	assert.Equal(t, expectedCode, errInfo.Code, "Unexpected error code")
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
