package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/lanstream/internal/domain"
	"github.com/nfrund/lanstream/internal/handlers"
	"github.com/nfrund/lanstream/internal/history"
	"github.com/nfrund/lanstream/internal/hub"
	"github.com/nfrund/lanstream/internal/relay"
	"github.com/nfrund/lanstream/internal/storage"
)

// fixture wires handlers over an in-memory history log and blob store, with a
// running hub absorbing broadcasts.
type fixture struct {
	e      *echo.Echo
	router *relay.Router
	blobs  storage.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	log, err := history.NewFileStore(fs, "history.json")
	require.NoError(t, err)
	blobs := storage.NewAferoStore(fs, "uploads")

	sessions := hub.New()
	go sessions.Run()

	router := relay.New(log, blobs, sessions)

	e := echo.New()
	e.Validator = handlers.NewValidator()

	historyHandler := handlers.NewHistoryHandler(router)
	uploadHandler := handlers.NewUploadHandler(blobs, 0)
	systemHandler := handlers.NewSystemHandler(":8080")

	e.GET("/history", historyHandler.GetHistory)
	e.POST("/messages", historyHandler.SubmitMessage)
	e.DELETE("/history/delete", historyHandler.DeleteMessage)
	e.DELETE("/history/clear", historyHandler.ClearHistory)
	e.POST("/upload", uploadHandler.Upload)
	e.GET("/uploads/:token", uploadHandler.Download)
	e.GET("/health", systemHandler.Health)
	e.GET("/server-info", systemHandler.ServerInfo)

	return &fixture{e: e, router: router, blobs: blobs}
}

// do runs one request through the echo instance and returns the recorder.
func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// seedTexts submits n text messages through the relay and returns them in
// submission order.
func seedTexts(t *testing.T, f *fixture, n int) []domain.Message {
	t.Helper()
	out := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		msg, err := f.router.Submit(context.Background(), relay.Envelope{
			Kind:    domain.KindText,
			Content: fmt.Sprintf("message-%02d", i),
		})
		require.NoError(t, err)
		out = append(out, *msg)
	}
	return out
}

func decodeHistory(t *testing.T, rec *httptest.ResponseRecorder) handlers.HistoryResponse {
	t.Helper()
	var resp handlers.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetHistory(t *testing.T) {
	t.Run("returns everything newest first when unbounded", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedTexts(t, f, 5)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeHistory(t, rec)
		assert.Equal(t, 5, resp.Total)
		require.Len(t, resp.Messages, 5)
		assert.Equal(t, seeded[4].Content, resp.Messages[0].Content)
		assert.Equal(t, seeded[0].Content, resp.Messages[4].Content)
	})

	t.Run("pages cover the log without overlap", func(t *testing.T) {
		f := newFixture(t)
		seedTexts(t, f, 25)

		seen := make(map[string]bool)
		for _, target := range []string{
			"/history?limit=10&offset=0",
			"/history?limit=10&offset=10",
			"/history?limit=10&offset=20",
		} {
			rec := f.do(httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decodeHistory(t, rec)
			assert.Equal(t, 25, resp.Total)
			for _, msg := range resp.Messages {
				assert.False(t, seen[msg.Content], "message %q returned twice", msg.Content)
				seen[msg.Content] = true
			}
		}
		assert.Len(t, seen, 25)
	})

	t.Run("filters by type", func(t *testing.T) {
		f := newFixture(t)
		seedTexts(t, f, 3)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/history?type=file", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeHistory(t, rec)
		assert.Equal(t, 0, resp.Total)
		assert.Empty(t, resp.Messages)
		assert.Contains(t, rec.Body.String(), `"messages":[]`)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/history?limit=ten", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmitMessage(t *testing.T) {
	t.Run("accepts a text message and returns the stamped copy", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/messages", map[string]any{
			"kind":    "text",
			"content": "hello",
		}))
		require.Equal(t, http.StatusCreated, rec.Code)

		var msg domain.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		assert.Equal(t, domain.KindText, msg.Kind)
		assert.Equal(t, "hello", msg.Content)
		assert.False(t, msg.Timestamp.IsZero())
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(jsonRequest(http.MethodPost, "/messages", map[string]any{
			"kind":    "carrier-pigeon",
			"content": "hello",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a file message whose token has no blob", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(jsonRequest(http.MethodPost, "/messages", map[string]any{
			"kind":         "file",
			"content":      "no-such-token.bin",
			"originalName": "report.bin",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// multipartBody builds a multipart form with one file field.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadAndDownload(t *testing.T) {
	t.Run("upload returns a token and the blob round-trips", func(t *testing.T) {
		f := newFixture(t)
		payload := []byte("PDF-ish bytes")

		body, contentType := multipartBody(t, "notes.pdf", payload)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := f.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp handlers.UploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "notes.pdf", resp.OriginalName)
		assert.Equal(t, int64(len(payload)), resp.SizeBytes)
		assert.True(t, strings.HasSuffix(resp.Content, ".pdf"), "token keeps the extension: %q", resp.Content)

		download := f.do(httptest.NewRequest(http.MethodGet, "/uploads/"+resp.Content, nil))
		require.Equal(t, http.StatusOK, download.Code)
		got, err := io.ReadAll(download.Body)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("uploaded token is accepted in a file message", func(t *testing.T) {
		f := newFixture(t)

		body, contentType := multipartBody(t, "photo.png", []byte{0x89, 0x50, 0x4e, 0x47})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := f.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp handlers.UploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		submit := f.do(jsonRequest(http.MethodPost, "/messages", map[string]any{
			"kind":         "file",
			"content":      resp.Content,
			"originalName": resp.OriginalName,
			"sizeBytes":    resp.SizeBytes,
		}))
		assert.Equal(t, http.StatusCreated, submit.Code)
	})

	t.Run("missing form field is a 400", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown token download is a 404", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.bin", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteMessage(t *testing.T) {
	t.Run("delete succeeds once then reports not found", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedTexts(t, f, 3)
		target := seeded[1]

		body := handlers.DeleteMessageRequest{Content: target.Content, Timestamp: target.Timestamp}
		rec := f.do(jsonRequest(http.MethodDelete, "/history/delete", body))
		assert.Equal(t, http.StatusOK, rec.Code)

		listing := decodeHistory(t, f.do(httptest.NewRequest(http.MethodGet, "/history", nil)))
		assert.Equal(t, 2, listing.Total)

		again := f.do(jsonRequest(http.MethodDelete, "/history/delete", body))
		assert.Equal(t, http.StatusNotFound, again.Code)
	})

	t.Run("timestamp must match exactly", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedTexts(t, f, 1)

		body := handlers.DeleteMessageRequest{
			Content:   seeded[0].Content,
			Timestamp: seeded[0].Timestamp.Add(time.Nanosecond),
		}
		rec := f.do(jsonRequest(http.MethodDelete, "/history/delete", body))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t)
	seedTexts(t, f, 4)

	body, contentType := multipartBody(t, "doomed.txt", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var uploaded handlers.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	clear := f.do(httptest.NewRequest(http.MethodDelete, "/history/clear", nil))
	require.Equal(t, http.StatusOK, clear.Code)

	listing := decodeHistory(t, f.do(httptest.NewRequest(http.MethodGet, "/history", nil)))
	assert.Equal(t, 0, listing.Total)

	exists, err := f.blobs.Exists(context.Background(), uploaded.Content)
	require.NoError(t, err)
	assert.False(t, exists, "blobs survive a clear")
}

func TestSystemEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("health", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("server info reports the bound port", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/server-info", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handlers.ServerInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "8080", resp.Port)
		assert.NotNil(t, resp.Addresses)
	})
}
