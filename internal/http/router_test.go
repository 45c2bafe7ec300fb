package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashcards/internal/config"
	httpx "flashcards/internal/http"
	"flashcards/internal/lock"
	"flashcards/internal/repository"
	"flashcards/internal/service"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := repository.NewDB(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	locker := lock.NewLocal()
	rec := service.NewReconciler(store, locker, zerolog.Nop())
	svc := httpx.Services{
		Classes:    service.NewClassService(store),
		Categories: service.NewCategoryService(store, locker, rec),
		Cards:      service.NewCardService(store, locker, rec),
		Views:      service.NewViewService(store),
		Settings:   service.NewSettingsService(store),
		Reconciler: rec,
	}
	return httpx.NewRouter(config.Config{PageSize: 10}, svc, zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func doList(t *testing.T, h http.Handler, path string) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func words(cards []any) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.(map[string]any)["word"].(string)
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthoringFlow(t *testing.T) {
	h := newTestServer(t)

	code, class := do(t, h, http.MethodPost, "/classes", map[string]any{"name": "Math"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "math", class["id"])

	code, cat := do(t, h, http.MethodPost, "/categories?class=math", map[string]any{"name": "Unit 1"})
	require.Equal(t, http.StatusCreated, code)
	catID := cat["id"].(float64)

	code, body := do(t, h, http.MethodPost, "/categories?class=math", map[string]any{"name": "Unit 1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "duplicate_name", body["error"])

	var ids []float64
	for _, w := range []string{"one", "two", "three"} {
		code, card := do(t, h, http.MethodPost, "/cards?class=math", map[string]any{"word": w, "categoryId": catID})
		require.Equal(t, http.StatusCreated, code)
		ids = append(ids, card["id"].(float64))
	}

	code, moved := do(t, h, http.MethodPost, "/cards/3/move", map[string]any{"position": 1})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, moved["sortOrder"])

	code, view := do(t, h, http.MethodGet, "/views/categories/1?class=math", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Unit 1", view["categoryName"])
	assert.Equal(t, []string{"three", "one", "two"}, words(view["cards"].([]any)))

	code, body = do(t, h, http.MethodPost, "/cards/1/move", map[string]any{"position": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "out_of_range", body["error"])

	code, updated := do(t, h, http.MethodPut, "/cards/1", `{"categoryId": null}`)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, updated["categoryId"])

	code, folders := do(t, h, http.MethodGet, "/views/folders?class=math&pageSize=1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, folders["totalPages"])

	code, body = do(t, h, http.MethodDelete, "/cards/99", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["found"])

	code, body = do(t, h, http.MethodPost, "/cards/delete", map[string]any{"ids": []float64{ids[1], 42}})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["deleted"])

	code, view = do(t, h, http.MethodGet, "/views/categories/none?class=math", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"one"}, words(view["cards"].([]any)))

	assert.Len(t, doList(t, h, "/cards?class=math"), 2)
	assert.Empty(t, doList(t, h, "/cards"))

	code, body = do(t, h, http.MethodPut, "/classes/math", map[string]any{"name": "Algebra"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "algebra", body["newClassId"])
	assert.Len(t, doList(t, h, "/cards?class=algebra"), 2)
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t)

	code, body := do(t, h, http.MethodPost, "/cards", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", body["error"])

	code, body = do(t, h, http.MethodPost, "/cards", map[string]any{"word": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "word is required", body["reason"])

	code, _ = do(t, h, http.MethodPut, "/cards/abc", map[string]any{"word": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, h, http.MethodPut, "/cards/7", map[string]any{"word": "x"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])

	code, _ = do(t, h, http.MethodDelete, "/classes/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/views/folders/5", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/views/cards?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, top := do(t, h, http.MethodPost, "/categories", map[string]any{"name": "Top"})
	require.Equal(t, http.StatusCreated, code)
	code, sub := do(t, h, http.MethodPost, "/categories", map[string]any{"name": "Sub", "parentId": top["id"]})
	require.Equal(t, http.StatusCreated, code)
	code, body = do(t, h, http.MethodPost, "/categories", map[string]any{"name": "Deep", "parentId": sub["id"]})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_hierarchy", body["error"])

	code, body = do(t, h, http.MethodPut, "/categories/1", map[string]any{"name": "Top", "parentId": sub["id"]})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "cycle", body["error"])
}

func TestWelcomeAndMaintenance(t *testing.T) {
	h := newTestServer(t)

	code, body := do(t, h, http.MethodPut, "/settings/welcome?class=math", map[string]any{"title": "Hi", "message": "numbers"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "numbers", body["message"])

	code, body = do(t, h, http.MethodGet, "/settings/welcome?class=MATH", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Hi", body["title"])
	assert.Equal(t, false, body["inherited"])

	code, body = do(t, h, http.MethodPost, "/maintenance/normalize", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["partitions"])
}
