package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbd/internal/models"
	"dbd/internal/providers"
	"dbd/internal/services"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type mockLedger struct {
	posts      []*models.Post
	submitErr  error
	editErr    error
	deleteErr  error
	commentErr error

	submitted struct {
		tenant, caller, text, image, channel string
	}
	deletedId uint64
}

func (m *mockLedger) ListPosts(_ context.Context, _, _, _ string, _ int) ([]*models.Post, error) {
	return m.posts, nil
}

func (m *mockLedger) SubmitPost(_ context.Context, tenant, caller, text, image, channel string) (*models.Post, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.submitted.tenant = tenant
	m.submitted.caller = caller
	m.submitted.text = text
	m.submitted.image = image
	m.submitted.channel = channel
	return &models.Post{Id: 1, Text: text, Author: caller, Channel: channel}, nil
}

func (m *mockLedger) SubmitComment(_ context.Context, _, caller string, postId uint64, text string) (*models.Comment, error) {
	if m.commentErr != nil {
		return nil, m.commentErr
	}
	return &models.Comment{Id: 2, Text: text, Author: caller}, nil
}

func (m *mockLedger) EditPost(_ context.Context, _, caller string, postId uint64, text string) (*models.Post, error) {
	if m.editErr != nil {
		return nil, m.editErr
	}
	return &models.Post{Id: postId, Text: text, Author: caller, EditedAt: 1}, nil
}

func (m *mockLedger) DeletePost(_ context.Context, _, _ string, postId uint64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedId = postId
	return nil
}

type mockChannels struct {
	channels  []*models.Channel
	createErr error
	deleteErr error
}

func (m *mockChannels) List(_ context.Context, _, _ string) ([]*models.Channel, error) {
	return m.channels, nil
}

func (m *mockChannels) Create(_ context.Context, _, _, name string, accessList []string) (*models.Channel, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Channel{Name: name, AccessList: accessList}, nil
}

func (m *mockChannels) Delete(_ context.Context, _, _, _ string) error {
	return m.deleteErr
}

func (m *mockChannels) Exists(_, _ string) (bool, error) { return true, nil }

func (m *mockChannels) AccessibleNames(_ context.Context, _, _ string) (map[string]struct{}, error) {
	return map[string]struct{}{services.DefaultChannel: {}}, nil
}

type mockSettings struct {
	current  *models.ImageSettings
	patchErr error
}

func (m *mockSettings) Get() (*models.ImageSettings, error) {
	if m.current == nil {
		return models.DefaultImageSettings(), nil
	}
	return m.current, nil
}

func (m *mockSettings) Patch(_ context.Context, _, _ string, _ *services.ImageSettingsPatch) (*models.ImageSettings, error) {
	if m.patchErr != nil {
		return nil, m.patchErr
	}
	return m.Get()
}

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache                     { return &mockCache{data: make(map[string][]byte)} }
func (m *mockCache) Get(key string) ([]byte, bool) { v, ok := m.data[key]; return v, ok }
func (m *mockCache) Set(key string, value []byte)  { m.data[key] = value }

// --- helpers ---

func newTestController(ledger *mockLedger, channels *mockChannels, settings *mockSettings, cache *mockCache) *ApiController {
	if ledger == nil {
		ledger = &mockLedger{}
	}
	if channels == nil {
		channels = &mockChannels{}
	}
	if settings == nil {
		settings = &mockSettings{}
	}
	if cache == nil {
		cache = newMockCache()
	}
	return NewApiController(&mockLogger{}, ledger, channels, settings, cache)
}

func withCaller(req *http.Request, address string) *http.Request {
	req.Header.Set("X-Board-Address", address)
	return req
}

// --- tenant resolution ---

func TestGetTenant_FromQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/posts?d=Other.Example", nil)
	assert.Equal(t, "other.example", getTenant(req))
}

func TestGetTenant_FromHost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Host = "Board.Example:8080"
	assert.Equal(t, "board.example", getTenant(req))
}

// --- posts ---

func TestListPosts_ReturnsPosts(t *testing.T) {
	ledger := &mockLedger{posts: []*models.Post{{Id: 1, Text: "hello"}}}
	ac := newTestController(ledger, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	rr := httptest.NewRecorder()
	ac.ListPosts(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var posts []*models.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Text)
}

func TestListPosts_ServesFromCache(t *testing.T) {
	cache := newMockCache()
	ledger := &mockLedger{posts: []*models.Post{{Id: 1, Text: "fresh"}}}
	ac := newTestController(ledger, nil, nil, cache)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Host = "board.example"
	rr := httptest.NewRecorder()
	ac.ListPosts(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Second call must not see the changed backing data.
	ledger.posts = []*models.Post{{Id: 2, Text: "changed"}}
	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Host = "board.example"
	rr = httptest.NewRecorder()
	ac.ListPosts(rr, req)

	var posts []*models.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "fresh", posts[0].Text)
}

func TestCreatePost_Valid(t *testing.T) {
	ledger := &mockLedger{}
	ac := newTestController(ledger, nil, nil, nil)

	body := `{"text":"hello board","channel":"news"}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/posts?d=board.example", strings.NewReader(body)), "0xABCDEF")
	rr := httptest.NewRecorder()
	ac.CreatePost(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "board.example", ledger.submitted.tenant)
	assert.Equal(t, "0xabcdef", ledger.submitted.caller)
	assert.Equal(t, "hello board", ledger.submitted.text)
	assert.Equal(t, "news", ledger.submitted.channel)
}

func TestCreatePost_MissingIdentity(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	body := `{"text":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	rr := httptest.NewRecorder()
	ac.CreatePost(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreatePost_InvalidJSON(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	req := withCaller(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("{not json")), "0xabc")
	rr := httptest.NewRecorder()
	ac.CreatePost(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreatePost_PermissionDenied(t *testing.T) {
	ledger := &mockLedger{submitErr: models.PermissionError("address is not on the posting list")}
	ac := newTestController(ledger, nil, nil, nil)

	body := `{"text":"hello"}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.CreatePost(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreatePost_ValidationError(t *testing.T) {
	ledger := &mockLedger{submitErr: models.ValidationError("post text cannot be empty")}
	ac := newTestController(ledger, nil, nil, nil)

	body := `{"text":""}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.CreatePost(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditPost_Valid(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	body := `{"id":7,"text":"updated"}`
	req := withCaller(httptest.NewRequest(http.MethodPatch, "/posts", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.EditPost(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var post models.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &post))
	assert.Equal(t, uint64(7), post.Id)
	assert.Equal(t, "updated", post.Text)
}

func TestEditPost_NotAuthor(t *testing.T) {
	ledger := &mockLedger{editErr: models.PermissionError("only the author can edit a post")}
	ac := newTestController(ledger, nil, nil, nil)

	body := `{"id":7,"text":"updated"}`
	req := withCaller(httptest.NewRequest(http.MethodPatch, "/posts", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.EditPost(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeletePost_Valid(t *testing.T) {
	ledger := &mockLedger{}
	ac := newTestController(ledger, nil, nil, nil)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/posts?id=9", nil), "0xabc")
	rr := httptest.NewRecorder()
	ac.DeletePost(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, uint64(9), ledger.deletedId)
}

func TestDeletePost_MissingId(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/posts", nil), "0xabc")
	rr := httptest.NewRecorder()
	ac.DeletePost(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeletePost_NotFound(t *testing.T) {
	ledger := &mockLedger{deleteErr: models.NotFoundError("post 9")}
	ac := newTestController(ledger, nil, nil, nil)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/posts?id=9", nil), "0xabc")
	rr := httptest.NewRecorder()
	ac.DeletePost(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateComment_Valid(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	body := `{"post_id":3,"text":"nice"}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.CreateComment(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var comment models.Comment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &comment))
	assert.Equal(t, "nice", comment.Text)
}

// --- channels ---

func TestListChannels_ReturnsChannels(t *testing.T) {
	channels := &mockChannels{channels: []*models.Channel{{Name: "default"}, {Name: "news"}}}
	ac := newTestController(nil, channels, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rr := httptest.NewRecorder()
	ac.ListChannels(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var list []*models.Channel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
}

func TestCreateChannel_Valid(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	body := `{"name":"news","access_list":["0xAAA"]}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/channels", strings.NewReader(body)), "0xadmin")
	rr := httptest.NewRecorder()
	ac.CreateChannel(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreateChannel_NotAdmin(t *testing.T) {
	channels := &mockChannels{createErr: models.PermissionError("channel management requires admin access")}
	ac := newTestController(nil, channels, nil, nil)

	body := `{"name":"news"}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/channels", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.CreateChannel(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeleteChannel_MissingName(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/channels", nil), "0xadmin")
	rr := httptest.NewRecorder()
	ac.DeleteChannel(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteChannel_Valid(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/channels?name=news", nil), "0xadmin")
	rr := httptest.NewRecorder()
	ac.DeleteChannel(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

// --- settings ---

func TestGetSettings_ReturnsDefaults(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	rr := httptest.NewRecorder()
	ac.GetSettings(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var settings models.ImageSettings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &settings))
	assert.Equal(t, models.DefaultImageSettings().MaxUploadSize, settings.MaxUploadSize)
}

func TestPatchSettings_NotAdmin(t *testing.T) {
	settings := &mockSettings{patchErr: models.PermissionError("settings changes require admin access")}
	ac := newTestController(nil, nil, settings, nil)

	body := `{"max_width":800}`
	req := withCaller(httptest.NewRequest(http.MethodPatch, "/settings", strings.NewReader(body)), "0xabc")
	rr := httptest.NewRecorder()
	ac.PatchSettings(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPatchSettings_Valid(t *testing.T) {
	ac := newTestController(nil, nil, nil, nil)

	body := `{"max_width":800}`
	req := withCaller(httptest.NewRequest(http.MethodPatch, "/settings", strings.NewReader(body)), "0xadmin")
	rr := httptest.NewRecorder()
	ac.PatchSettings(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
