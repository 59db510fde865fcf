package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize(); err != nil {
		panic(err)
	}
	utils.SetJWTSecret("middleware-test-secret")
}

type auditSink struct {
	entries chan *models.AuditLog
}

func (s *auditSink) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	s.entries <- entry
	return nil
}

func newSessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/applications/:id", SessionRequired(), func(c *gin.Context) {
		id, _ := utils.GetSessionIDFromContext(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestSessionRequired(t *testing.T) {
	r := newSessionRouter()
	id := uuid.New()
	token, err := utils.GenerateSessionToken(id, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/applications/" + id.String(), "", http.StatusUnauthorized},
		{"not a bearer", "/applications/" + id.String(), "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "/applications/" + id.String(), "Bearer abc.def", http.StatusUnauthorized},
		{"other session", "/applications/" + uuid.NewString(), "Bearer " + token, http.StatusForbidden},
		{"own session", "/applications/" + id.String(), "Bearer " + token, http.StatusOK},
		{"scheme is case-insensitive", "/applications/" + id.String(), "bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, id.String(), w.Body.String())
			}
		})
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	r := gin.New()
	r.Use(I18nMiddleware(), PerMinute(2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func(ip string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.2"))
}

func TestUnlimitedRate(t *testing.T) {
	limiter := PerMinute(0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.getVisitor("10.0.0.1").Allow())
	}
}

func TestResolveLang(t *testing.T) {
	assert.Equal(t, i18n.DefaultLang, resolveLang(""))
	assert.Equal(t, "en", resolveLang("en-US,en;q=0.9"))
	assert.Equal(t, "en", resolveLang("EN"))
	assert.Equal(t, i18n.DefaultLang, resolveLang("pt-BR,pt;q=0.9,en;q=0.8"))
	assert.Equal(t, i18n.DefaultLang, resolveLang("fr"))
}

func TestExtractResource(t *testing.T) {
	id := uuid.NewString()

	assert.Equal(t, "applications", extractResourceType("/v1/applications"))
	assert.Equal(t, "sections", extractResourceType("/v1/applications/"+id+"/sections/applicant"))
	assert.Equal(t, "submit", extractResourceType("/v1/applications/"+id+"/submit"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, "unknown", extractResourceType("/"))

	assert.Equal(t, id, extractResourceID("/v1/applications/"+id+"/next"))
	assert.Empty(t, extractResourceID("/v1/applications"))
}

func TestAuditLogMiddleware(t *testing.T) {
	sink := &auditSink{entries: make(chan *models.AuditLog, 4)}
	id := uuid.New()

	r := gin.New()
	r.Use(AuditLogMiddleware(sink))
	r.PATCH("/v1/applications/:id/sections/:section", func(c *gin.Context) {
		var body map[string]interface{}
		require.NoError(t, c.ShouldBindJSON(&body))
		assert.Equal(t, "Maria", body["fullName"])
		c.Set("session_id", c.Param("id"))
		c.Status(http.StatusOK)
	})
	r.GET("/v1/applications/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/v1/applications/"+id.String(), nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("PATCH", "/v1/applications/"+id.String()+"/sections/applicant", strings.NewReader(`{"fullName":"Maria"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "wizard-test")
	r.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case entry := <-sink.entries:
		assert.Equal(t, "PATCH /v1/applications/:id/sections/:section", entry.Action)
		assert.Equal(t, "sections", entry.ResourceType)
		assert.Equal(t, id.String(), entry.ResourceID)
		require.NotNil(t, entry.SessionID)
		assert.Equal(t, id, *entry.SessionID)
		assert.Equal(t, http.StatusOK, entry.StatusCode)
		assert.Equal(t, "Maria", entry.NewValues["fullName"])
		assert.Equal(t, "wizard-test", entry.UserAgent)
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry was not recorded")
	}

	select {
	case entry := <-sink.entries:
		t.Fatalf("unexpected audit entry %q", entry.Action)
	case <-time.After(50 * time.Millisecond):
	}
}
