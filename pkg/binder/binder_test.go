package binder_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/binder"
)

type profileRequest struct {
	Name     *string               `json:"name" form:"name"`
	Email    *string               `json:"email" form:"email"`
	Age      int                   `json:"age" form:"age"`
	Tags     []string              `json:"tags" form:"tags"`
	Internal string                `json:"-"`
	Avatar   *multipart.FileHeader `json:"-" file:"avatar"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann","age":30}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		var v profileRequest
		require.NoError(t, binder.JSON()(req, &v))
		require.NotNil(t, v.Name)
		assert.Equal(t, "Ann", *v.Name)
		assert.Nil(t, v.Email)
		assert.Equal(t, 30, v.Age)
	})

	t.Run("empty body is a no-op", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Content-Type", "application/json")

		var v profileRequest
		require.NoError(t, binder.JSON()(req, &v))
		assert.Nil(t, v.Name)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")

		var v profileRequest
		assert.ErrorIs(t, binder.JSON()(req, &v), binder.ErrFailedToParseJSON)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		big := `{"name":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		req.Header.Set("Content-Type", "application/json")

		var v profileRequest
		assert.ErrorIs(t, binder.JSON()(req, &v), binder.ErrFailedToParseJSON)
	})

	t.Run("other content type is not applicable", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=Ann"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var v profileRequest
		assert.ErrorIs(t, binder.JSON()(req, &v), binder.ErrBinderNotApplicable)
	})
}

func TestForm(t *testing.T) {
	t.Parallel()

	t.Run("urlencoded", func(t *testing.T) {
		t.Parallel()
		form := url.Values{"name": {"Ann"}, "age": {"41"}, "tags": {"a", "b"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var v profileRequest
		require.NoError(t, binder.Form()(req, &v))
		require.NotNil(t, v.Name)
		assert.Equal(t, "Ann", *v.Name)
		assert.Equal(t, 41, v.Age)
		assert.Equal(t, []string{"a", "b"}, v.Tags)
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("age=old"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var v profileRequest
		assert.ErrorIs(t, binder.Form()(req, &v), binder.ErrInvalidForm)
	})

	t.Run("multipart with file", func(t *testing.T) {
		t.Parallel()
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("email", "ann@example.com"))
		fw, err := mw.CreateFormFile("avatar", "face.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPatch, "/", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		var v profileRequest
		require.NoError(t, binder.Form()(req, &v))
		require.NotNil(t, v.Email)
		assert.Equal(t, "ann@example.com", *v.Email)
		assert.Nil(t, v.Name)
		require.NotNil(t, v.Avatar)
		assert.Equal(t, "face.png", v.Avatar.Filename)
	})

	t.Run("json is not applicable", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		var v profileRequest
		assert.ErrorIs(t, binder.Form()(req, &v), binder.ErrBinderNotApplicable)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type callback struct {
		Code  string `query:"code"`
		State string `query:"state"`
		Other string
	}

	req := httptest.NewRequest(http.MethodGet, "/google-redirect?code=abc&state=xyz&Other=skip", nil)

	var v callback
	require.NoError(t, binder.Query()(req, &v))
	assert.Equal(t, "abc", v.Code)
	assert.Equal(t, "xyz", v.State)
	assert.Empty(t, v.Other)

	var notStruct string
	assert.ErrorIs(t, binder.Query()(req, &notStruct), binder.ErrFailedToParseQuery)
}
