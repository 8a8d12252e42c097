package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchBody struct {
	Query string `json:"query" validate:"required,min=1,max=64"`
	Limit int    `json:"limit" default:"5" validate:"gte=1,lte=20"`
}

func jsonContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestBindAppliesDefaults(t *testing.T) {
	c, _ := jsonContext(`{"query":"tesla"}`)

	body := &searchBody{}
	require.Nil(t, Bind(c, body))
	assert.Equal(t, "tesla", body.Query)
	assert.Equal(t, 5, body.Limit)
}

func TestBindReportsJSONFieldNames(t *testing.T) {
	c, _ := jsonContext(`{"limit":50}`)

	errs := Bind(c, &searchBody{})
	require.Len(t, errs, 2)
	assert.Equal(t, FieldError{Code: "ERR_REQUIRED", Field: "query", Message: "query is required"}, errs[0])
	assert.Equal(t, "limit must be 20 or less", errs[1].Message)
	assert.Equal(t, map[string]any{"max": "20"}, errs[1].Params)
}

func TestInvalidUsesFirstMessage(t *testing.T) {
	c, rec := jsonContext(`{}`)
	require.NoError(t, Invalid(c, []FieldError{{Field: "query", Message: "query is required"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "query is required", body.Error)
	assert.Equal(t, "ERR_BAD_REQUEST", body.Code)
}

func TestFail(t *testing.T) {
	c, rec := jsonContext(`{}`)
	require.NoError(t, Fail(c, Unavailable("funnel storage unavailable").Wrap(errors.New("dial tcp: refused"))))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")

	c, rec = jsonContext(`{}`)
	require.NoError(t, Fail(c, errors.New("secret internals")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong","code":"ERR_INTERNAL"}`, rec.Body.String())
}
