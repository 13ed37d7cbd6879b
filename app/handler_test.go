package main

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/quill/internal/userservice"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func authCookie(header http.Header) *http.Cookie {
	res := http.Response{Header: header}
	for _, c := range res.Cookies() {
		if c.Name == authCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandlers(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name        string
		path        string
		payload     map[string]any
		wantStatus  int
		wantMessage string
		wantCookie  bool
	}{
		{
			name:       "signup",
			path:       "/auth/signup",
			payload:    map[string]any{"name": "Test", "email": "test@example.com", "password": "Test_1234!"},
			wantStatus: http.StatusCreated,
			wantCookie: true,
		},
		{
			name:       "signup duplicate email",
			path:       "/auth/signup",
			payload:    map[string]any{"name": "Test", "email": "test@example.com", "password": "Test_1234!"},
			wantStatus: http.StatusConflict,
		},
		{
			name:        "signup invalid email",
			path:        "/auth/signup",
			payload:     map[string]any{"name": "Test", "email": "test", "password": "Test_1234!"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "email must be a valid email address",
		},
		{
			name:       "signin",
			path:       "/auth/signin",
			payload:    map[string]any{"email": "test@example.com", "password": "Test_1234!"},
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name:        "signin wrong email",
			path:        "/auth/signin",
			payload:     map[string]any{"email": "nobody@example.com", "password": "Test_1234!"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Wrong email address",
		},
		{
			name:        "signin wrong password",
			path:        "/auth/signin",
			payload:     map[string]any{"email": "test@example.com", "password": "Wrong_1234!"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Wrong password",
		},
		{
			name:        "unknown field",
			path:        "/auth/signin",
			payload:     map[string]any{"username": "test"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: `request body contains unknown field "username"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, header, body := ts.post(t, tc.path, tc.payload, "")
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, body["message"])
				assert.Equal(t, float64(tc.wantStatus), body["statusCode"])
			}

			cookie := authCookie(header)
			switch {
			case tc.wantCookie:
				require.NotNil(t, cookie)
				assert.Equal(t, body["accessToken"], cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.NotEmpty(t, body["refreshToken"])
			case tc.wantStatus == http.StatusUnauthorized:
				require.NotNil(t, cookie)
				assert.Empty(t, cookie.Value)
				assert.Less(t, cookie.MaxAge, 0)
			}
		})
	}
}

func TestRefreshTokenHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.post(t, "/auth/signup", map[string]any{"name": "Test", "email": "test@example.com", "password": "Test_1234!"}, "")
	require.Equal(t, http.StatusCreated, status)

	refresh := body["refreshToken"]

	status, header, body := ts.post(t, "/auth/refresh-token", map[string]any{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["accessToken"])
	assert.Equal(t, body["accessToken"], authCookie(header).Value)

	status, _, body = ts.post(t, "/auth/refresh-token", map[string]any{"refreshToken": "garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token failed", body["message"])

	expiredCfg := *app.config
	expiredCfg.AccessTTL = -time.Minute
	expired, err := newTokenManager(&expiredCfg).Generate(userservice.AccessToken, 1, userservice.RoleNormal, nil)
	require.NoError(t, err)

	status, header, body = ts.post(t, "/auth/refresh-token", map[string]any{"refreshToken": refresh}, expired)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, body["accessToken"], authCookie(header).Value)

	status, _, _ = ts.get(t, "/blog", expired)
	assert.Equal(t, http.StatusOK, status)

	status, _, body = ts.post(t, "/blog", map[string]any{"title": "t", "content": "c"}, expired)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token failed", body["message"])
}

func TestForgotPasswordHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	ts.signup(t, "Test", "test@example.com")

	status, _, _ := ts.post(t, "/auth/forgot-password", map[string]any{"email": "test@example.com"}, "")
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.post(t, "/auth/forgot-password", map[string]any{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = ts.put(t, "/auth/reset-password/garbage", map[string]any{"password": "Other_1234!"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserHandlers(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	id, token := ts.signup(t, "Test", "test@example.com")
	otherID, otherToken := ts.signup(t, "Other", "other@example.com")

	status, _, body := ts.get(t, fmt.Sprintf("/user/%d", id), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Normal", body["userType"])
	assert.NotContains(t, body, "password")

	status, _, body = ts.get(t, "/user?limit=1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["pageCount"])

	status, _, body = ts.get(t, "/search/user/oth", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _, _ = ts.put(t, fmt.Sprintf("/user/%d", otherID), map[string]any{"password": "Test_1234!", "name": "x", "email": "x@example.com"}, token)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = ts.put(t, fmt.Sprintf("/user/password/%d", id), map[string]any{"oldPassword": "Test_1234!", "newPassword": "Test_1234!"}, token)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = ts.put(t, fmt.Sprintf("/user/password/%d", id), map[string]any{"oldPassword": "Test_1234!", "newPassword": "Other_1234!"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = ts.put(t, fmt.Sprintf("/user/password/%d", id), map[string]any{"oldPassword": "Test_1234!", "newPassword": "Other_1234!"}, token)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.delete(t, fmt.Sprintf("/user/%d", otherID), map[string]any{"password": "Other_1234!"}, otherToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = ts.delete(t, fmt.Sprintf("/user/%d", otherID), map[string]any{"password": "Test_1234!"}, otherToken)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.get(t, fmt.Sprintf("/user/%d", otherID), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func uploadImage(t *testing.T, ts *testServer, path, token string) (int, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(imageField, "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})

	res, err := ts.Client().Do(req)
	require.NoError(t, err)

	status, _, body := readResponse(t, res)
	return status, body
}

func TestProfileImageHandler(t *testing.T) {
	app, store := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	id, token := ts.signup(t, "Test", "test@example.com")
	otherID, _ := ts.signup(t, "Other", "other@example.com")

	first := "https://cdn.example.com/quill/first.png"
	second := "https://cdn.example.com/quill/second.png"
	orphan := "https://cdn.example.com/quill/orphan.png"

	store.On("Store", mock.Anything, mock.Anything, "image/png").Return(first, nil).Once()
	store.On("Store", mock.Anything, mock.Anything, "image/png").Return(orphan, nil).Once()
	store.On("Store", mock.Anything, mock.Anything, "image/png").Return(second, nil).Once()
	store.On("Delete", mock.Anything, orphan).Return(true, nil).Once()
	store.On("Delete", mock.Anything, first).Return(true, nil).Once()

	status, body := uploadImage(t, ts, fmt.Sprintf("/user/profile-image/%d", id), token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, first, body["profileImage"])

	// the upload to a foreign profile is released again
	status, _ = uploadImage(t, ts, fmt.Sprintf("/user/profile-image/%d", otherID), token)
	assert.Equal(t, http.StatusForbidden, status)

	// replacing releases the previous image
	status, body = uploadImage(t, ts, fmt.Sprintf("/user/profile-image/%d", id), token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, second, body["profileImage"])

	store.AssertExpectations(t)
}

func TestBlogHandlers(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	userID, token := ts.signup(t, "Test", "test@example.com")
	_, otherToken := ts.signup(t, "Other", "other@example.com")

	blog := map[string]any{"title": "Hello", "content": "<p>First post</p>"}

	status, _, _ := ts.post(t, "/blog", blog, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = ts.post(t, "/blog", map[string]any{"title": "Hello", "content": "<p>x</p>", "coverImage": "https://cdn.example.com/quill/someone-elses-image"}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, body := ts.post(t, "/blog", blog, token)
	require.Equal(t, http.StatusCreated, status)
	id := int(body["id"].(float64))
	assert.Equal(t, float64(userID), body["user"].(map[string]any)["id"])

	status, _, body = ts.get(t, fmt.Sprintf("/blog/%d", id), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello", body["title"])

	status, _, _ = ts.put(t, fmt.Sprintf("/blog/%d", id), map[string]any{"title": "", "content": ""}, otherToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, body = ts.put(t, fmt.Sprintf("/blog/%d", id), map[string]any{"title": "Hello again", "content": "<p>Edited</p>"}, token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello again", body["title"])

	status, _, body = ts.put(t, fmt.Sprintf("/blog/%d", id), map[string]any{"title": "Hello again", "content": "<p>Edited</p>", "coverImage": "https://cdn.example.com/quill/someone-elses-image"}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "coverImage must be uploaded as an image file", body["message"])

	status, _, body = ts.get(t, fmt.Sprintf("/blog/%d", id), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["coverImage"])

	for _, liked := range []bool{true, false, true} {
		status, _, body = ts.put(t, fmt.Sprintf("/blog/like/%d", id), nil, otherToken)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, liked, body["liked"])
	}

	status, _, body = ts.get(t, fmt.Sprintf("/blog/user/%d", userID), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["pageCount"])

	status, _, body = ts.get(t, "/search/blog/again", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _, body = ts.get(t, "/blog?page=2", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, _, _ = ts.get(t, "/blog/unknown/1", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = ts.delete(t, fmt.Sprintf("/blog/%d", id), nil, token)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.get(t, fmt.Sprintf("/blog/%d", id), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCommentHandlers(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, token := ts.signup(t, "Test", "test@example.com")
	_, otherToken := ts.signup(t, "Other", "other@example.com")

	status, _, body := ts.post(t, "/blog", map[string]any{"title": "Hello", "content": "<p>body</p>"}, token)
	require.Equal(t, http.StatusCreated, status)
	blogID := body["id"].(float64)

	status, _, body = ts.post(t, "/comment", map[string]any{"text": "first", "blogId": blogID}, token)
	require.Equal(t, http.StatusCreated, status)
	commentID := body["id"].(float64)
	assert.Nil(t, body["parentId"])

	status, _, body = ts.post(t, "/comment", map[string]any{"text": "reply", "blogId": blogID, "parentId": commentID}, otherToken)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, commentID, body["parentId"])

	status, _, _ = ts.post(t, "/comment", map[string]any{"text": "lost", "blogId": blogID, "parentId": commentID + 1000}, otherToken)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, body = ts.get(t, fmt.Sprintf("/comment/blog/%d", int(blogID)), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _, body = ts.get(t, fmt.Sprintf("/comment/reply/%d", int(commentID)), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _, body = ts.put(t, fmt.Sprintf("/comment/like/%d", int(commentID)), nil, otherToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["liked"])

	status, _, _ = ts.put(t, fmt.Sprintf("/comment/%d", int(commentID)), map[string]any{"text": "mine now"}, otherToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, body = ts.put(t, fmt.Sprintf("/comment/%d", int(commentID)), map[string]any{"text": "edited"}, token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", body["text"])

	status, _, _ = ts.delete(t, fmt.Sprintf("/comment/%d", int(commentID)), nil, token)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.get(t, fmt.Sprintf("/comment/%d", int(commentID)), "")
	assert.Equal(t, http.StatusNotFound, status)
}
