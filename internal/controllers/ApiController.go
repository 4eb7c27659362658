package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"net/http"
	"strconv"
	"strings"

	"dbd/internal/models"
	"dbd/internal/providers"
	"dbd/internal/services"
)

const maxRequestBodySize = 48 << 20 // posts can carry base64 images

const addressHeader = "X-Board-Address"

type ApiController struct {
	logger   providers.Logger
	ledger   services.LedgerServiceInterface
	channels services.ChannelServiceInterface
	settings services.SettingsServiceInterface
	cache    providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, ledger services.LedgerServiceInterface, channels services.ChannelServiceInterface, settings services.SettingsServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:   logger,
		ledger:   ledger,
		channels: channels,
		settings: settings,
		cache:    cache,
	}
}

// getTenant resolves the board instance: explicit ?d= wins, otherwise
// the served domain.
func getTenant(r *http.Request) string {
	if d := r.URL.Query().Get("d"); d != "" {
		return strings.ToLower(d)
	}
	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return strings.ToLower(host)
}

func getCaller(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.Header.Get(addressHeader)))
}

// requireCaller writes a 401 and returns "" when no identity header is
// present. Writes always need an identity; reads do not.
func (ac *ApiController) requireCaller(w http.ResponseWriter, r *http.Request) string {
	caller := getCaller(r)
	if caller == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing "+addressHeader+" header")
	}
	return caller
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	gson, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the ledger error taxonomy onto HTTP statuses.
// Storage details never leak to the caller.
func (ac *ApiController) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrPermission):
		writeJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		ac.logger.Errorf(providers.TypeApp, "internal error: %s", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// --- posts ---

type createPostRequest struct {
	Text    string `json:"text"`
	Image   string `json:"image,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type editPostRequest struct {
	Id   uint64 `json:"id"`
	Text string `json:"text"`
}

type createCommentRequest struct {
	PostId uint64 `json:"post_id"`
	Text   string `json:"text"`
}

func (ac *ApiController) ListPosts(w http.ResponseWriter, r *http.Request) {
	tenant := getTenant(r)
	caller := getCaller(r)
	channel := r.URL.Query().Get("ch")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	cacheKey := "posts:" + tenant + ":" + channel + ":" + caller + ":" + strconv.Itoa(limit)
	ac.serveFromCacheOrCompute(w, cacheKey, func() (any, error) {
		return ac.ledger.ListPosts(r.Context(), tenant, caller, channel, limit)
	})
}

func (ac *ApiController) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	post, err := ac.ledger.SubmitPost(r.Context(), getTenant(r), caller, payload.Text, payload.Image, payload.Channel)
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (ac *ApiController) EditPost(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload editPostRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	post, err := ac.ledger.EditPost(r.Context(), getTenant(r), caller, payload.Id, payload.Text)
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (ac *ApiController) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing or malformed id parameter")
		return
	}

	if err := ac.ledger.DeletePost(r.Context(), getTenant(r), caller, id); err != nil {
		ac.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) CreateComment(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	comment, err := ac.ledger.SubmitComment(r.Context(), getTenant(r), caller, payload.PostId, payload.Text)
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// --- channels ---

type createChannelRequest struct {
	Name       string   `json:"name"`
	AccessList []string `json:"access_list,omitempty"`
}

func (ac *ApiController) ListChannels(w http.ResponseWriter, r *http.Request) {
	tenant := getTenant(r)
	caller := getCaller(r)
	ac.serveFromCacheOrCompute(w, "channels:"+tenant+":"+caller, func() (any, error) {
		return ac.channels.List(r.Context(), tenant, caller)
	})
}

func (ac *ApiController) CreateChannel(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	var payload createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	channel, err := ac.channels.Create(r.Context(), getTenant(r), caller, payload.Name, payload.AccessList)
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (ac *ApiController) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	if err := ac.channels.Delete(r.Context(), getTenant(r), caller, name); err != nil {
		ac.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- settings ---

func (ac *ApiController) GetSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := ac.settings.Get()
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (ac *ApiController) PatchSettings(w http.ResponseWriter, r *http.Request) {
	caller := ac.requireCaller(w, r)
	if caller == "" {
		return
	}

	var patch services.ImageSettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	settings, err := ac.settings.Patch(r.Context(), getTenant(r), caller, &patch)
	if err != nil {
		ac.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
