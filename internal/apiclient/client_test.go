package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"formation/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestDoSendsTokenAndLocale(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me/", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "ar", r.Header.Get("Accept-Language"))
		json.NewEncoder(w).Encode(model.User{ID: "u1", Email: "a@b.dz", Role: model.RoleStudent})
	})

	ctx := WithLocale(WithToken(context.Background(), "tok-123"), "ar")
	user, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestGetListAcceptsArrayAndPage(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`[{"id":"c1","name":"Dev"}]`))
			return
		}
		w.Write([]byte(`{"count":2,"results":[{"id":"c1"},{"id":"c2"}]}`))
	})

	cats, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	cats, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}

func TestListCoursesFilterAndLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("is_published"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id":"1"},{"id":"2"},{"id":"3"}]`))
	})

	courses, err := c.ListCourses(context.Background(), CourseFilter{PublishedOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestErrorResponseIsParsed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"email":["This field must be unique."]}`))
	})

	_, err := c.Register(context.Background(), RegisterRequest{Email: "dup@x.dz"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, []string{"This field must be unique."}, apiErr.Fields["email"])
	assert.Equal(t, "email: This field must be unique.", UserMessage(err))
}

func TestGetCountdownNotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	})

	countdown, err := c.GetCountdown(context.Background())
	require.NoError(t, err)
	assert.Nil(t, countdown)
}

func TestGetCurriculumFillsAndSortsLessons(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/formation/courses/go-101/":
			w.Write([]byte(`{"id":"c1","slug":"go-101","title":"Go"}`))
		case r.URL.Path == "/formation/courses/c1/sections/":
			w.Write([]byte(`[{"id":"s2","order":2},{"id":"s1","order":1,"lessons":[{"id":"l2","order":2},{"id":"l1","order":1}]}]`))
		case r.URL.Path == "/formation/sections/s2/lessons/":
			w.Write([]byte(`[{"id":"l3","order":1}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	cur, err := c.GetCurriculum(context.Background(), "go-101")
	require.NoError(t, err)
	require.Len(t, cur.Sections, 2)
	assert.Equal(t, "s1", cur.Sections[0].ID)
	assert.Equal(t, "l1", cur.Sections[0].Lessons[0].ID)
	assert.Equal(t, "l3", cur.Sections[1].Lessons[0].ID)
	assert.Equal(t, 3, cur.LessonCount())
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "r1", body["refresh"])
		w.Write([]byte(`{"access":"a2"}`))
	})

	tokens, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", tokens.Access)
	assert.Equal(t, "r1", tokens.Refresh)
}

func TestDeleteNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/admin/faq/"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteFAQ(context.Background(), "7"))
}
