package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snmlog/transferplus/internal/auth"
	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/importer"
	"github.com/snmlog/transferplus/internal/models"
	"github.com/snmlog/transferplus/internal/services/transfer"
	"github.com/snmlog/transferplus/internal/session"
	"github.com/snmlog/transferplus/internal/ws"
)

// fakeAuth maps usernames straight to identities; any password works.
type fakeAuth struct {
	users map[string]*auth.Identity
}

func (f *fakeAuth) Authenticate(username, password string) (*auth.Identity, error) {
	ident, ok := f.users[username]
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return ident, nil
}

type testEnv struct {
	router *Router
	server *httptest.Server
	db     *database.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.DB{DB: gdb}
	if err := db.AutoMigrate(
		&models.Desembarque{}, &models.Conferencia{}, &models.Embarque{},
		&models.ImportBatch{}, &models.Vessel{}, &models.Department{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := session.NewManager("test-secret", time.Hour, session.NewMemoryStore())
	authenticator := &fakeAuth{users: map[string]*auth.Identity{
		"admin":  {Username: "admin", DisplayName: "Admin", Role: models.RoleAdmin},
		"conf":   {Username: "conf", DisplayName: "Conferente", Role: models.RoleConferente},
		"des":    {Username: "des", DisplayName: "Desembarque", Role: models.RoleDesembarque},
		"locked": {Username: "locked", Role: models.RoleNoAccess},
	}}

	hub := ws.NewHub(log)
	go hub.Run()

	rt := NewRouter(
		db, log,
		transfer.NewService(db, log),
		importer.NewService(db, log, t.TempDir()),
		sessions,
		authenticator,
		hub,
	)
	srv := httptest.NewServer(rt)
	t.Cleanup(srv.Close)

	return &testEnv{router: rt, server: srv, db: db}
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"x"}`, username)
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	return resp
}

func seedRecord(t *testing.T, e *testEnv, id string) {
	t.Helper()
	rec := models.Desembarque{
		ID: id,
		TransferItem: models.TransferItem{
			FromVessel:         "Skandi Urca",
			ToVessel:           "Skandi Vitória",
			FromDepartment:     "Maintenance",
			SPN:                "004711",
			ItemDescription:    "Seal kit",
			PRNumberTMMaster:   "PR-" + id,
			QuantityToTransfer: 10,
		},
		AuthorID:      "seed",
		FileReference: "seed",
		Created:       time.Now().UTC(),
	}
	if err := e.db.Create(&rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestLoginReturnsRoleAndPaths(t *testing.T) {
	e := newTestEnv(t)
	body := `{"username":"conf","password":"x"}`
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Token == "" || out.Role != models.RoleConferente {
		t.Fatalf("login response = %+v", out)
	}
	if len(out.AllowedPaths) == 0 {
		t.Error("expected allowed paths for conferente")
	}
}

func TestLoginRejectsNoAccessRole(t *testing.T) {
	e := newTestEnv(t)
	body := `{"username":"locked","password":"x"}`
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Get(e.server.URL + "/api/desembarque")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRoleGateBlocksOtherStages(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "des")

	resp := e.do(t, "GET", "/api/embarque", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestConfirmDesembarqueEndpoint(t *testing.T) {
	e := newTestEnv(t)
	seedRecord(t, e, "REC-1")
	token := e.login(t, "des")

	resp := e.do(t, "POST", "/api/desembarque/confirm", token, map[string]interface{}{
		"id":                 "REC-1",
		"quantity_confirmed": 4,
		"reason_code":        "Material de Contrato",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, raw)
	}

	var conf models.Conferencia
	if err := e.db.First(&conf, "id = ?", "REC-1").Error; err != nil {
		t.Fatalf("conferencia not created: %v", err)
	}
	if conf.StatusFinal != "Material de Contrato" {
		t.Errorf("status = %q", conf.StatusFinal)
	}
}

func TestConfirmDesembarqueUnknownRecordIs404(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "des")

	resp := e.do(t, "POST", "/api/desembarque/confirm", token, map[string]interface{}{
		"id":                 "MISSING",
		"quantity_confirmed": 1,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListQuarentenaSkipsRecordsWithoutStart(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "conf")

	started := time.Now().UTC()
	rows := []models.Conferencia{
		{ID: "REC-Q1", StatusFinal: models.StatusQuarentena, QuarantineStart: &started},
		{ID: "REC-Q2", StatusFinal: models.StatusQuarentena},
	}
	for i := range rows {
		if err := e.db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed conferencia: %v", err)
		}
	}

	resp := e.do(t, "GET", "/api/quarentena", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Data  []models.Conferencia `json:"data"`
		Total int64                `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || len(out.Data) != 1 {
		t.Fatalf("total = %d, rows = %d, want 1 and 1", out.Total, len(out.Data))
	}
	if out.Data[0].ID != "REC-Q1" {
		t.Errorf("listed id = %q, want REC-Q1", out.Data[0].ID)
	}
}

func TestManualInsertDuplicateIs409(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "admin")

	payload := map[string]interface{}{
		"from_vessel":          "A",
		"to_vessel":            "B",
		"spn":                  "1",
		"item_description":     "Thing",
		"pr_number_tm_master":  "PR-X",
		"quantity_to_transfer": 1,
	}
	resp := e.do(t, "POST", "/api/desembarque/insert", token, payload)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first insert status = %d", resp.StatusCode)
	}

	payload["to_vessel"] = "C"
	resp = e.do(t, "POST", "/api/desembarque/insert", token, payload)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second insert status = %d, want 409", resp.StatusCode)
	}
}

func TestUploadRequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "des")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("arquivo_excel", "carga.xlsx")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte("not a real workbook"))
	mw.Close()

	req, err := http.NewRequest("POST", e.server.URL+"/api/desembarque/upload", &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestEmbarqueManifestReturnsPDF(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "admin")

	emb := models.Embarque{
		ID: "REC-M",
		TransferItem: models.TransferItem{
			FromVessel:       "A",
			ToVessel:         "B",
			SPN:              "000001",
			PRNumberTMMaster: "PR-M",
		},
		StatusFinal: models.StatusSentToEmbarque,
	}
	if err := e.db.Create(&emb).Error; err != nil {
		t.Fatalf("seed embarque: %v", err)
	}

	resp := e.do(t, "GET", "/api/embarque/manifest", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestEmbarqueImageRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "admin")

	emb := models.Embarque{
		ID:          "REC-IMG",
		StatusFinal: models.StatusSentToEmbarque,
	}
	if err := e.db.Create(&emb).Error; err != nil {
		t.Fatalf("seed embarque: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("imagem", "proof.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	mw.Close()

	req, err := http.NewRequest("POST", e.server.URL+"/api/embarque/REC-IMG/image", &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", "/api/embarque/REC-IMG/image", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view status = %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) != 8 {
		t.Errorf("image bytes = %d, want 8", len(raw))
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "conf")

	resp := e.do(t, "POST", "/api/auth/logout", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", "/api/auth/verify-session", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want 401", resp.StatusCode)
	}
}
