package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mes-labs/plantquery/internal/catalog"
	"github.com/mes-labs/plantquery/internal/config"
	"github.com/mes-labs/plantquery/internal/core"
	"github.com/mes-labs/plantquery/internal/dialect"
	"github.com/mes-labs/plantquery/internal/mfgdb"
	"github.com/mes-labs/plantquery/internal/store"
)

type fakeExecutor struct {
	calls   int
	lastSQL string
	result  *mfgdb.Result
	err     error
}

func (f *fakeExecutor) Execute(ctx context.Context, query string) (*mfgdb.Result, error) {
	f.calls++
	f.lastSQL = query
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &mfgdb.Result{Columns: []string{}, Rows: []map[string]any{}}, nil
}

func defaultSnapshot() *catalog.Snapshot {
	return catalog.New(catalog.DefaultTerms(), catalog.DefaultTables(), catalog.DefaultKnowledge())
}

func newTestServer(t *testing.T, snap *catalog.Snapshot, exec *fakeExecutor) *httptest.Server {
	t.Helper()
	config.AppConfig = config.Config{JWTSecret: "test-secret", TokenTTLHours: 1}

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	qs := core.NewQueryService(snap, dialect.GetDialect("mysql"), 100, time.Second, exec, db)
	srv := httptest.NewServer(NewRouter(NewAPIHandler(qs, db)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func signupAndLogin(t *testing.T, srv *httptest.Server, userID, password string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{"user_id": userID, "password": password})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{"user_id": userID, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var got map[string]string
	decode(t, resp, &got)
	if got["token"] == "" {
		t.Fatal("login returned an empty token")
	}
	return got["token"]
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultSnapshot(), &fakeExecutor{})

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"status":"ok"}` {
		t.Errorf("health body = %s", body)
	}
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t, defaultSnapshot(), &fakeExecutor{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{"user_id": "operator1", "password": "secret123"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created map[string]any
	decode(t, resp, &created)
	if created["external_user_id"] != "operator1" {
		t.Errorf("signup response = %v", created)
	}
	if _, leaked := created["password_hash"]; leaked {
		t.Error("signup response exposes the password hash")
	}

	// Same external ID again.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{"user_id": "operator1", "password": "other"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/signup", "", map[string]string{"user_id": "", "password": "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank signup status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{"user_id": "operator1", "password": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password login status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{"user_id": "operator1", "password": "secret123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var login map[string]string
	decode(t, resp, &login)
	if login["token"] == "" {
		t.Error("login returned an empty token")
	}
}

func TestQueryRequiresAuth(t *testing.T) {
	srv := newTestServer(t, defaultSnapshot(), &fakeExecutor{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", "", map[string]string{"message": "오늘 생산량은?"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", "not-a-jwt", map[string]string{"message": "오늘 생산량은?"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestQueryEndToEnd(t *testing.T) {
	exec := &fakeExecutor{result: &mfgdb.Result{
		Columns:  []string{"total_actual_quantity"},
		Rows:     []map[string]any{{"total_actual_quantity": float64(5200)}},
		RowCount: 1,
	}}
	srv := newTestServer(t, defaultSnapshot(), exec)
	token := signupAndLogin(t, srv, "operator1", "secret123")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "오늘 생산량은?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var qr core.QueryResponse
	decode(t, resp, &qr)

	wantSQL := "SELECT SUM(actual_quantity) AS total_actual_quantity FROM production_data WHERE production_date = CURDATE() LIMIT 100;"
	if qr.GeneratedSQL != wantSQL {
		t.Errorf("generated SQL = %q, want %q", qr.GeneratedSQL, wantSQL)
	}
	if qr.ThreadID == "" || qr.MessageID == "" {
		t.Errorf("response missing identifiers: %+v", qr)
	}
	if qr.CorrectedMessage != "오늘 생산량은?" {
		t.Errorf("corrected message = %q", qr.CorrectedMessage)
	}
	if qr.Result == nil || qr.Result.RowCount != 1 {
		t.Errorf("result = %+v", qr.Result)
	}
	if exec.calls != 1 || exec.lastSQL != wantSQL {
		t.Errorf("executor saw %d calls, last %q", exec.calls, exec.lastSQL)
	}

	// Blank message.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "   "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank message status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	// Unknown thread.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "어제는?", "thread_id": "does-not-exist"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown thread status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "Thread not found" {
		t.Errorf("unknown thread body = %q", body)
	}

	// Follow-up on the same thread.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "라인별 생산량은?", "thread_id": qr.ThreadID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("follow-up status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var followUp core.QueryResponse
	decode(t, resp, &followUp)
	if followUp.ThreadID != qr.ThreadID {
		t.Errorf("follow-up thread = %s, want %s", followUp.ThreadID, qr.ThreadID)
	}

	// Thread listing.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/query/threads", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list threads status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var threads []store.Thread
	decode(t, resp, &threads)
	if len(threads) != 1 || threads[0].ID != qr.ThreadID {
		t.Errorf("threads = %+v", threads)
	}
	if threads[0].Title == nil || *threads[0].Title != "오늘 생산량은?" {
		t.Errorf("thread title = %v", threads[0].Title)
	}

	// Message history: two exchanges, four messages.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/query/threads/"+qr.ThreadID+"/messages", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var messages []store.Message
	decode(t, resp, &messages)
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	for i, msg := range messages {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d role = %s, want %s", i, msg.Role, wantRoles[i])
		}
	}
	if messages[1].GenSQL == nil || *messages[1].GenSQL != wantSQL {
		t.Errorf("assistant message SQL = %v", messages[1].GenSQL)
	}

	// Another user must not read this thread.
	otherToken := signupAndLogin(t, srv, "operator2", "secret456")
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/query/threads/"+qr.ThreadID+"/messages", otherToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("foreign thread status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestQueryValidationFailure(t *testing.T) {
	// An identity column that smuggles a second statement into the ORDER BY
	// clause must be caught by the guard, never reach the executor.
	hostile := catalog.New(nil, []catalog.TableMeta{
		{Name: "production_data", Columns: []catalog.ColumnMeta{
			{Name: "id; DROP TABLE users", Type: "BIGINT"},
		}},
	}, nil)
	exec := &fakeExecutor{}
	srv := newTestServer(t, hostile, exec)
	token := signupAndLogin(t, srv, "operator1", "secret123")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "데이터 보여줘"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("validation failure status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("error Content-Type = %q", ct)
	}
	var er errorResponse
	decode(t, resp, &er)
	if er.ErrorKind != "validation" || er.Reason != "multi_statement" {
		t.Errorf("error response = %+v", er)
	}
	if er.Message != "한 번에 하나의 쿼리만 실행 가능합니다." {
		t.Errorf("operator message = %q", er.Message)
	}
	if exec.calls != 0 {
		t.Errorf("executor invoked %d times on a rejected statement", exec.calls)
	}
}

func TestQueryExecutionErrors(t *testing.T) {
	exec := &fakeExecutor{err: &mfgdb.ExecError{Kind: mfgdb.ErrTimeout, Msg: "query exceeded the statement timeout"}}
	srv := newTestServer(t, defaultSnapshot(), exec)
	token := signupAndLogin(t, srv, "operator1", "secret123")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "오늘 생산량은?"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("timeout status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	var er errorResponse
	decode(t, resp, &er)
	if er.ErrorKind != "execution" || er.Reason != string(mfgdb.ErrTimeout) {
		t.Errorf("timeout error response = %+v", er)
	}

	exec.err = &mfgdb.ExecError{Kind: mfgdb.ErrStoreRejected, Msg: "no such table"}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/query", token, map[string]string{"message": "오늘 생산량은?"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("store rejection status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	decode(t, resp, &er)
	if er.ErrorKind != "execution" || er.Reason != string(mfgdb.ErrStoreRejected) {
		t.Errorf("store rejection error response = %+v", er)
	}
}
