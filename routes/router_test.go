package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/articles/config"
	"github.com/cppla/articles/models"
	"github.com/cppla/articles/utils"
)

type envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

type articleBody struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	IsPublic bool   `json:"is_public"`
}

type commentBody struct {
	ID           uint   `json:"id"`
	Message      string `json:"message"`
	Article      uint   `json:"article"`
	Author       string `json:"author"`
	IsReply      bool   `json:"is_reply"`
	CommentReply *uint  `json:"comment_reply"`
	Like         int    `json:"like"`
	Dislike      int    `json:"dislike"`
}

type page[T any] struct {
	Items      []T `json:"items"`
	Pagination struct {
		Count  int64 `json:"count"`
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Total  int64 `json:"total"`
	} `json:"pagination"`
}

type testServer struct {
	t  *testing.T
	r  *gin.Engine
	db *gorm.DB
}

func newTestServer(t *testing.T, opts ...func(*config.AppConfig)) *testServer {
	t.Helper()
	cfg := config.AppConfig{
		App: config.AppSection{
			GinMode:            "test",
			JWTSecret:          "test-secret",
			AccessTokenTTL:     time.Hour,
			TokenCacheTTL:      time.Minute,
			RateLimitPerMinute: 10000,
			AllowedOrigins:     []string{"*"},
		},
		Database: config.DatabaseSection{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		},
		Log: config.LogSection{Level: "silent"},
		Pagination: config.PaginationSection{
			ArticlesDefaultLimit: 5,
			ArticlesMaxLimit:     6,
			CommentsDefaultLimit: 10,
			CommentsMaxLimit:     20,
			UsersPageSize:        10,
			UsersMaxPageSize:     12,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testServer{t: t, r: SetupRouter(cfg, db, utils.NewMemoryCache()), db: db}
}

// do sends a JSON request. auth is the full Authorization header value, empty for none.
func (s *testServer) do(method, path string, body interface{}, auth string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: invalid JSON response %q", method, path, w.Body.String())
		}
	}
	return w, env
}

func (s *testServer) expect(w *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if w.Code != status {
		s.t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", string(env.Data), err)
	}
}

// register creates a user and returns its "Token <key>" header value.
func (s *testServer) register(username string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/users", map[string]interface{}{
		"username": username,
		"email":    strings.ToLower(username) + "@example.com",
		"password": "pass-" + username,
		"gender":   "M",
		"birth":    "1990-05-01T00:00:00Z",
		"level":    "MID",
	}, "")
	s.expect(w, http.StatusCreated)
	var out struct {
		Token string `json:"token"`
	}
	decodeData(s.t, env, &out)
	if out.Token == "" {
		s.t.Fatalf("registration returned no token")
	}
	return "Token " + out.Token
}

func (s *testServer) promote(username string) {
	s.t.Helper()
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Update("is_staff", true).Error; err != nil {
		s.t.Fatalf("promote %s: %v", username, err)
	}
}

func (s *testServer) createArticle(auth, title string, public bool) articleBody {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/articles", map[string]interface{}{"title": title, "text": "text of " + title, "is_public": public}, auth)
	s.expect(w, http.StatusCreated)
	var a articleBody
	decodeData(s.t, env, &a)
	return a
}

func TestExampleScenario(t *testing.T) {
	s := newTestServer(t)
	s.register("Pablo")

	w, env := s.do(http.MethodPost, "/api/login", map[string]string{"username": "Pablo", "password": "pass-Pablo"}, "")
	s.expect(w, http.StatusOK)
	var login struct {
		Token  string `json:"token"`
		Access string `json:"access"`
	}
	decodeData(t, env, &login)
	auth := "Token " + login.Token
	s.promote("Pablo")

	w, env = s.do(http.MethodPost, "/articles", map[string]string{"title": "T", "text": "X"}, auth)
	s.expect(w, http.StatusCreated)
	var created articleBody
	decodeData(t, env, &created)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/articles/%d", created.ID), nil, auth)
	s.expect(w, http.StatusOK)
	var got articleBody
	decodeData(t, env, &got)
	if got.Title != "T" || got.Text != "X" || got.Author != "Pablo" || got.IsPublic {
		t.Fatalf("unexpected article %+v", got)
	}

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/articles/%d", created.ID), nil, "")
	s.expect(w, http.StatusUnauthorized)

	w, env = s.do(http.MethodGet, "/articles", nil, "")
	s.expect(w, http.StatusOK)
	var list page[articleBody]
	decodeData(t, env, &list)
	if len(list.Items) != 0 || list.Pagination.Count != 0 {
		t.Fatalf("anonymous list must exclude private article: %+v", list)
	}

	w, _ = s.do(http.MethodPatch, fmt.Sprintf("/articles/%d", created.ID), map[string]bool{"is_public": true}, auth)
	s.expect(w, http.StatusOK)

	w, env = s.do(http.MethodGet, "/articles", nil, "")
	s.expect(w, http.StatusOK)
	decodeData(t, env, &list)
	if len(list.Items) != 1 || list.Items[0].ID != created.ID || list.Items[0].Author != "Pablo" {
		t.Fatalf("anonymous list must include the public article: %+v", list)
	}
}

func TestDuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	s.register("maria")
	w, env := s.do(http.MethodPost, "/users", map[string]string{
		"username": "maria", "email": "other@example.com", "password": "pw",
		"gender": "F", "birth": "1991-01-01T00:00:00Z", "level": "JR",
	}, "")
	s.expect(w, http.StatusBadRequest)
	if msgs := env.Errors["username"]; len(msgs) != 1 || msgs[0] != "user with this username already exists." {
		t.Fatalf("unexpected errors %v", env.Errors)
	}

	w, env = s.do(http.MethodPost, "/users", map[string]string{"username": "x"}, "")
	s.expect(w, http.StatusBadRequest)
	if len(env.Errors["email"]) == 0 || len(env.Errors["password"]) == 0 {
		t.Fatalf("missing fields must be reported: %v", env.Errors)
	}
}

func TestRegisterPrivilegedFlags(t *testing.T) {
	s := newTestServer(t)
	body := map[string]interface{}{
		"username": "sneaky", "email": "sneaky@example.com", "password": "pw",
		"gender": "O", "birth": "1991-01-01T00:00:00Z", "level": "JR", "is_staff": true,
	}
	w, _ := s.do(http.MethodPost, "/users", body, "")
	s.expect(w, http.StatusUnauthorized)

	admin := s.register("boss")
	s.promote("boss")
	w, env := s.do(http.MethodPost, "/users", body, admin)
	s.expect(w, http.StatusCreated)
	if strings.Contains(string(env.Data), "is_staff") || strings.Contains(string(env.Data), "password") {
		t.Fatalf("write-only fields leaked: %s", env.Data)
	}
}

func TestArticleWritesNeedStaff(t *testing.T) {
	s := newTestServer(t)
	member := s.register("member")

	w, _ := s.do(http.MethodPost, "/articles", map[string]string{"title": "T", "text": "X"}, "")
	s.expect(w, http.StatusUnauthorized)
	w, _ = s.do(http.MethodPost, "/articles", map[string]string{"title": "T", "text": "X"}, member)
	s.expect(w, http.StatusForbidden)
	w, _ = s.do(http.MethodDelete, "/articles/1", nil, member)
	s.expect(w, http.StatusForbidden)

	s.promote("member")
	w, env := s.do(http.MethodPost, "/articles", map[string]string{"title": "this title is far longer than thirty chars", "text": "X"}, member)
	s.expect(w, http.StatusBadRequest)
	if len(env.Errors["title"]) == 0 {
		t.Fatalf("expected title error, got %v", env.Errors)
	}

	first := s.createArticle(member, "Same", false)
	w, env = s.do(http.MethodPost, "/articles", map[string]string{"title": "Same", "text": "Y"}, member)
	s.expect(w, http.StatusBadRequest)
	if msgs := env.Errors["title"]; len(msgs) != 1 || msgs[0] != "article with this title already exists." {
		t.Fatalf("unexpected errors %v", env.Errors)
	}

	w, _ = s.do(http.MethodPut, fmt.Sprintf("/articles/%d", first.ID), map[string]interface{}{"title": "Same", "text": "new"}, member)
	s.expect(w, http.StatusOK)
}

func TestDeleteArticleTwice(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")
	a := s.createArticle(staff, "Gone", true)

	w, _ := s.do(http.MethodDelete, fmt.Sprintf("/articles/%d", a.ID), nil, staff)
	s.expect(w, http.StatusNoContent)
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/articles/%d", a.ID), nil, staff)
	s.expect(w, http.StatusNotFound)
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/articles/%d", a.ID), nil, staff)
	s.expect(w, http.StatusNotFound)
}

func TestArticlePaginationAndSort(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")
	for i := 1; i <= 8; i++ {
		s.createArticle(staff, fmt.Sprintf("A%d", i), true)
	}

	w, env := s.do(http.MethodGet, "/articles?limit=100", nil, "")
	s.expect(w, http.StatusOK)
	var list page[articleBody]
	decodeData(t, env, &list)
	if len(list.Items) != 6 || list.Pagination.Count != 8 || list.Items[0].Title != "A8" {
		t.Fatalf("unexpected page %+v", list)
	}

	w, env = s.do(http.MethodGet, "/articles?offset=1", nil, staff, "Sort", "ASC")
	s.expect(w, http.StatusOK)
	decodeData(t, env, &list)
	if len(list.Items) != 5 || list.Items[0].Title != "A2" {
		t.Fatalf("unexpected ascending page %+v", list)
	}

	w, _ = s.do(http.MethodGet, "/articles", nil, "", "Sort", "sideways")
	s.expect(w, http.StatusBadRequest)
}

func TestCommentsAndReplies(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")
	reader := s.register("reader")
	a1 := s.createArticle(staff, "One", true)
	a2 := s.createArticle(staff, "Two", true)

	w, _ := s.do(http.MethodGet, "/articles-comments", nil, "")
	s.expect(w, http.StatusUnauthorized)

	w, env := s.do(http.MethodPost, "/articles-comments", map[string]interface{}{"message": "first!", "article": a1.ID}, reader)
	s.expect(w, http.StatusCreated)
	var parent commentBody
	decodeData(t, env, &parent)
	if parent.Author != "reader" || parent.IsReply || parent.Article != a1.ID {
		t.Fatalf("unexpected comment %+v", parent)
	}

	w, env = s.do(http.MethodPost, "/reply/articles-comments", map[string]interface{}{
		"message": "reply", "comment_reply": parent.ID, "article": a2.ID, "is_reply": false,
	}, staff)
	s.expect(w, http.StatusCreated)
	var reply commentBody
	decodeData(t, env, &reply)
	if !reply.IsReply || reply.Article != a1.ID || reply.CommentReply == nil || *reply.CommentReply != parent.ID {
		t.Fatalf("reply must inherit the parent article: %+v", reply)
	}

	w, env = s.do(http.MethodPost, "/reply/articles-comments", map[string]interface{}{"message": "x", "comment_reply": 9999}, staff)
	s.expect(w, http.StatusBadRequest)
	if len(env.Errors["comment_reply"]) == 0 {
		t.Fatalf("expected comment_reply error, got %v", env.Errors)
	}
	w, env = s.do(http.MethodPost, "/articles-comments", map[string]interface{}{"message": "x", "article": 9999}, staff)
	s.expect(w, http.StatusBadRequest)
	if len(env.Errors["article"]) == 0 {
		t.Fatalf("expected article error, got %v", env.Errors)
	}

	w, env = s.do(http.MethodPatch, fmt.Sprintf("/articles-comments/%d", parent.ID), map[string]interface{}{"article": a2.ID}, reader)
	s.expect(w, http.StatusBadRequest)
	if msgs := env.Errors["article"]; len(msgs) != 1 || msgs[0] != "This field cannot be changed after creation." {
		t.Fatalf("unexpected errors %v", env.Errors)
	}
	w, _ = s.do(http.MethodPatch, fmt.Sprintf("/articles-comments/%d", parent.ID), map[string]interface{}{"message": "edited"}, staff)
	s.expect(w, http.StatusOK)
	w, _ = s.do(http.MethodPatch, fmt.Sprintf("/articles-comments/%d", reply.ID), map[string]interface{}{"message": "not mine"}, reader)
	s.expect(w, http.StatusForbidden)

	w, env = s.do(http.MethodPost, fmt.Sprintf("/articles-comments/%d/like", parent.ID), nil, reader)
	s.expect(w, http.StatusOK)
	var liked commentBody
	decodeData(t, env, &liked)
	if liked.Like != 1 || liked.Message != "edited" {
		t.Fatalf("unexpected like result %+v", liked)
	}

	w, env = s.do(http.MethodGet, fmt.Sprintf("/articles-comments?article=%d", a1.ID), nil, reader)
	s.expect(w, http.StatusOK)
	var list page[commentBody]
	decodeData(t, env, &list)
	if list.Pagination.Count != 2 || list.Pagination.Limit != 10 {
		t.Fatalf("unexpected comment page %+v", list)
	}

	w, env = s.do(http.MethodGet, fmt.Sprintf("/articles/%d/comments", a1.ID), nil, reader)
	s.expect(w, http.StatusOK)
	var thread struct {
		Count    int `json:"count"`
		Comments []struct {
			ID      uint `json:"id"`
			Replies []struct {
				ID uint `json:"id"`
			} `json:"replies"`
		} `json:"comments"`
	}
	decodeData(t, env, &thread)
	if thread.Count != 2 || len(thread.Comments) != 1 || len(thread.Comments[0].Replies) != 1 || thread.Comments[0].Replies[0].ID != reply.ID {
		t.Fatalf("unexpected thread %+v", thread)
	}

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/articles-comments/%d", parent.ID), nil, reader)
	s.expect(w, http.StatusNoContent)
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/articles-comments/%d", reply.ID), nil, reader)
	s.expect(w, http.StatusNotFound)
}

func TestReportLedger(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")
	reader := s.register("reader")
	flagged := s.createArticle(staff, "Flagged", true)
	clean := s.createArticle(staff, "Clean", true)

	w, _ := s.do(http.MethodPost, fmt.Sprintf("/report/%d", flagged.ID), nil, reader)
	s.expect(w, http.StatusCreated)
	w, env := s.do(http.MethodPost, fmt.Sprintf("/report/%d", flagged.ID), nil, reader)
	s.expect(w, http.StatusBadRequest)
	if len(env.Errors["non_field_errors"]) == 0 {
		t.Fatalf("expected already reported error, got %v", env.Errors)
	}
	w, _ = s.do(http.MethodPost, "/report/9999", nil, reader)
	s.expect(w, http.StatusNotFound)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/report/%d", flagged.ID), nil, reader)
	s.expect(w, http.StatusOK)
	var one struct {
		ArticleID uint `json:"article_id"`
		Count     int  `json:"count"`
		Users     []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	decodeData(t, env, &one)
	if one.Count != 1 || one.Users[0].Username != "reader" {
		t.Fatalf("unexpected report %+v", one)
	}

	w, _ = s.do(http.MethodGet, "/report", nil, "")
	s.expect(w, http.StatusUnauthorized)
	w, _ = s.do(http.MethodGet, "/report", nil, reader)
	s.expect(w, http.StatusOK)
	w, env = s.do(http.MethodGet, "/report", nil, staff)
	s.expect(w, http.StatusOK)
	var all map[string]struct {
		Count int `json:"count"`
	}
	decodeData(t, env, &all)
	if all[fmt.Sprint(flagged.ID)].Count != 1 {
		t.Fatalf("unexpected grouping %+v", all)
	}
	if entry, ok := all[fmt.Sprint(clean.ID)]; !ok || entry.Count != 0 {
		t.Fatalf("articles without reports must be listed: %+v", all)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestServer(t)
	pablo := s.register("pablo")
	maria := s.register("maria")

	w, _ := s.do(http.MethodGet, "/users/pablo", nil, "")
	s.expect(w, http.StatusUnauthorized)

	w, env := s.do(http.MethodGet, "/users?size=1&page=2", nil, maria)
	s.expect(w, http.StatusOK)
	var users struct {
		Items []struct {
			Username string `json:"username"`
		} `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decodeData(t, env, &users)
	if users.Pagination.Total != 2 || len(users.Items) != 1 || users.Items[0].Username != "maria" {
		t.Fatalf("unexpected users page %+v", users)
	}

	w, _ = s.do(http.MethodPatch, "/users/pablo", map[string]string{"first_name": "P"}, maria)
	s.expect(w, http.StatusForbidden)
	w, _ = s.do(http.MethodPatch, "/users/pablo", map[string]bool{"is_staff": true}, pablo)
	s.expect(w, http.StatusForbidden)

	w, env = s.do(http.MethodPatch, "/users/pablo", map[string]string{"first_name": "Pablo"}, pablo)
	s.expect(w, http.StatusOK)
	w, _ = s.do(http.MethodPut, "/users/pablo", map[string]string{
		"username": "pablo", "email": "pablo@example.com", "password": "new-pass",
		"gender": "M", "birth": "1990-05-01T00:00:00Z", "level": "SR",
	}, pablo)
	s.expect(w, http.StatusAccepted)

	w, _ = s.do(http.MethodPost, "/api/login", map[string]string{"username": "pablo", "password": "pass-pablo"}, "")
	s.expect(w, http.StatusBadRequest)
	w, _ = s.do(http.MethodPost, "/api/login", map[string]string{"username": "pablo", "password": "new-pass"}, "")
	s.expect(w, http.StatusOK)

	w, _ = s.do(http.MethodPatch, "/users/maria", map[string]string{"email": "pablo@example.com"}, maria)
	s.expect(w, http.StatusBadRequest)

	w, _ = s.do(http.MethodDelete, "/users/pablo", nil, pablo)
	s.expect(w, http.StatusNoContent)
	w, _ = s.do(http.MethodGet, "/users/maria", nil, pablo)
	s.expect(w, http.StatusUnauthorized)
	w, _ = s.do(http.MethodDelete, "/users/pablo", nil, maria)
	s.expect(w, http.StatusNotFound)
}

func TestInvalidTokenRejectedEverywhere(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/articles", nil, "Token not-a-real-token")
	s.expect(w, http.StatusUnauthorized)
	w, _ = s.do(http.MethodGet, "/articles", nil, "Basic abc")
	s.expect(w, http.StatusUnauthorized)
	w, _ = s.do(http.MethodGet, "/health", nil, "Token not-a-real-token")
	s.expect(w, http.StatusOK)
}

func TestAccessTokenRotateAndLogout(t *testing.T) {
	s := newTestServer(t)
	opaque := s.register("jwtuser")

	w, env := s.do(http.MethodPost, "/api/login", map[string]string{"username": "jwtuser", "password": "pass-jwtuser"}, "")
	s.expect(w, http.StatusOK)
	var login struct {
		Token  string `json:"token"`
		Access string `json:"access"`
	}
	decodeData(t, env, &login)
	if "Token "+login.Token != opaque {
		t.Fatalf("login must return the token issued at registration")
	}
	bearer := "Bearer " + login.Access

	w, _ = s.do(http.MethodGet, "/users", nil, bearer)
	s.expect(w, http.StatusOK)
	w, _ = s.do(http.MethodPost, "/api/logout", nil, opaque)
	s.expect(w, http.StatusBadRequest)
	w, _ = s.do(http.MethodPost, "/api/logout", nil, bearer)
	s.expect(w, http.StatusOK)
	w, _ = s.do(http.MethodGet, "/users", nil, bearer)
	s.expect(w, http.StatusUnauthorized)

	w, env = s.do(http.MethodPost, "/api/token/rotate", nil, opaque)
	s.expect(w, http.StatusOK)
	var rotated struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &rotated)
	w, _ = s.do(http.MethodGet, "/users", nil, opaque)
	s.expect(w, http.StatusUnauthorized)
	w, _ = s.do(http.MethodGet, "/users", nil, "Token "+rotated.Token)
	s.expect(w, http.StatusOK)
}

func TestStatsCountsArticleViews(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")
	a := s.createArticle(staff, "Viewed", true)

	for i := 0; i < 2; i++ {
		w, _ := s.do(http.MethodGet, fmt.Sprintf("/articles/%d", a.ID), nil, "")
		s.expect(w, http.StatusOK)
	}
	w, env := s.do(http.MethodGet, "/stats", nil, "")
	s.expect(w, http.StatusOK)
	var stats struct {
		Users      int64 `json:"user_count"`
		Articles   int64 `json:"article_count"`
		ViewsToday int64 `json:"views_today"`
	}
	decodeData(t, env, &stats)
	if stats.Users != 1 || stats.Articles != 1 || stats.ViewsToday != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRegisterAccountFlagsNeedAdmin(t *testing.T) {
	s := newTestServer(t, func(cfg *config.AppConfig) { cfg.App.OpenStaffSignup = true })
	base := func(username string) map[string]interface{} {
		return map[string]interface{}{
			"username": username, "email": username + "@example.com", "password": "pw",
			"gender": "F", "birth": "1991-01-01T00:00:00Z", "level": "JR",
		}
	}

	confirmed := base("confirmed")
	confirmed["confirmed_email"] = true
	w, _ := s.do(http.MethodPost, "/users", confirmed, "")
	s.expect(w, http.StatusUnauthorized)

	inactive := base("inactive")
	inactive["is_active"] = false
	w, _ = s.do(http.MethodPost, "/users", inactive, "")
	s.expect(w, http.StatusUnauthorized)

	staff := base("selfstaff")
	staff["is_staff"] = true
	w, _ = s.do(http.MethodPost, "/users", staff, "")
	s.expect(w, http.StatusCreated)

	admin := s.register("boss")
	s.promote("boss")
	w, _ = s.do(http.MethodPost, "/users", confirmed, admin)
	s.expect(w, http.StatusCreated)
	var user models.User
	if err := s.db.Where("username = ?", "confirmed").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if !user.ConfirmedEmail {
		t.Fatalf("admin should be able to confirm email")
	}
}

func TestArticleTextWithoutMarkupIsKept(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")

	title := strings.Repeat("<", 30)
	w, env := s.do(http.MethodPost, "/articles", map[string]interface{}{"title": title, "text": "a < b and c > d", "is_public": true}, staff)
	s.expect(w, http.StatusCreated)
	var created articleBody
	decodeData(t, env, &created)
	if created.Title != title || created.Text != "a < b and c > d" {
		t.Fatalf("plain text altered: %+v", created)
	}

	w, env = s.do(http.MethodGet, fmt.Sprintf("/articles/%d", created.ID), nil, staff)
	s.expect(w, http.StatusOK)
	var loaded articleBody
	decodeData(t, env, &loaded)
	if loaded.Title != title || loaded.Text != created.Text {
		t.Fatalf("stored article differs: %+v", loaded)
	}

	// escaping pushes the stored title past its column width
	w, env = s.do(http.MethodPost, "/articles", map[string]interface{}{"title": "<i>a</i>" + strings.Repeat("&", 10), "text": "x"}, staff)
	s.expect(w, http.StatusBadRequest)
	if len(env.Errors["title"]) == 0 {
		t.Fatalf("expected title error, got %v", env.Errors)
	}
}

func TestPrivatizedArticleLeavesCachedList(t *testing.T) {
	s := newTestServer(t)
	staff := s.register("staff")
	s.promote("staff")
	a := s.createArticle(staff, "Soon private", true)

	w, env := s.do(http.MethodGet, "/articles", nil, "")
	s.expect(w, http.StatusOK)
	var list page[articleBody]
	decodeData(t, env, &list)
	if len(list.Items) != 1 {
		t.Fatalf("expected the public article, got %+v", list)
	}

	w, _ = s.do(http.MethodPatch, fmt.Sprintf("/articles/%d", a.ID), map[string]interface{}{"is_public": false}, staff)
	s.expect(w, http.StatusOK)

	w, env = s.do(http.MethodGet, "/articles", nil, "")
	s.expect(w, http.StatusOK)
	list = page[articleBody]{}
	decodeData(t, env, &list)
	if len(list.Items) != 0 {
		t.Fatalf("private article still listed: %+v", list)
	}
}

func TestRateLimitsAreSeparatePerRoute(t *testing.T) {
	// four per minute gives a burst of two
	s := newTestServer(t, func(cfg *config.AppConfig) { cfg.App.RateLimitPerMinute = 4 })
	staff := s.register("staff")
	s.register("reader")
	w, _ := s.do(http.MethodPost, "/users", map[string]string{"username": "third"}, "")
	s.expect(w, http.StatusTooManyRequests)

	s.promote("staff")
	a := s.createArticle(staff, "Flag me", true)
	b := s.createArticle(staff, "Flag me too", true)
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/report/%d", a.ID), nil, staff)
	s.expect(w, http.StatusCreated)
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/report/%d", b.ID), nil, staff)
	s.expect(w, http.StatusCreated)

	for _, username := range []string{"staff", "reader"} {
		w, _ = s.do(http.MethodPost, "/api/login", map[string]string{"username": username, "password": "pass-" + username}, "")
		s.expect(w, http.StatusOK)
	}
	w, _ = s.do(http.MethodPost, "/api/login", map[string]string{"username": "staff", "password": "pass-staff"}, "")
	s.expect(w, http.StatusTooManyRequests)
}
