package app

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rpattn/memberload/internal/config"
	"github.com/rpattn/memberload/internal/credential"
	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/ingestion"
	"github.com/rpattn/memberload/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceOptions(t *testing.T) {
	opts := ServiceOptions(config.UploadConfig{
		CallTimeout:     2 * time.Second,
		ReferenceMode:   ingestion.ReferenceModeSnapshot,
		QuotedFields:    true,
		NationalIDTypes: []string{"1", "5"},
	})

	assert.Equal(t, 2*time.Second, opts.CallTimeout)
	assert.Equal(t, ingestion.ReferenceModeSnapshot, opts.ReferenceMode)
	assert.True(t, opts.Parse.QuotedFields)
	assert.Equal(t, []domain.IdentityType{"1", "5"}, opts.NationalIDTypes)
}

func TestRouter(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	service := ingestion.NewService(store, nil, credential.Static(credential.DefaultPlaceholder), ingestion.Options{}, logger)
	router := NewRouter(service, nil, config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}, logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("mode", "validate"))
	part, err := writer.CreateFormFile("file", "members.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("NADI_SITE,FULLNAME,IDENTITY_NO,IDENTITY_TYPE,EMAIL,PHONE,GENDER\n1,Aminah,900101-14-5678,1,a@example.com,0123,2\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/members/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Origin", "http://localhost:3000")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), `"passedRows": 1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
