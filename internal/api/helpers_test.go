package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
	"github.com/xkilldash9x/guardian/internal/scoring"
)

type mockProcessor struct{ mock.Mock }

func (m *mockProcessor) ProcessThreat(ctx context.Context, req schemas.ThreatRequest) (schemas.ThreatResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(schemas.ThreatResponse), args.Error(1)
}

func (m *mockProcessor) GetAlertStatus(ctx context.Context, alertID string) (schemas.ActiveAlert, error) {
	args := m.Called(ctx, alertID)
	return args.Get(0).(schemas.ActiveAlert), args.Error(1)
}

type fakeEvidence map[string]schemas.EvidenceRecord

func (f fakeEvidence) Get(_ context.Context, id string) (schemas.EvidenceRecord, error) {
	rec, ok := f[id]
	if !ok {
		return schemas.EvidenceRecord{}, schemas.ErrNotFound
	}
	return rec, nil
}

type fakeCollector struct {
	collection scoring.Collection
	err        error
	gotSubject string
	gotMedia   []string
}

func (f *fakeCollector) Collect(_ context.Context, subjectID, _ string, mediaURLs []string) (scoring.Collection, error) {
	f.gotSubject = subjectID
	f.gotMedia = mediaURLs
	return f.collection, f.err
}

type fakeInspector struct{ report schemas.ImpersonationReport }

func (f fakeInspector) Inspect(info schemas.AccountInfo) schemas.ImpersonationReport {
	r := f.report
	r.AccountDetails.Username = info.Username
	return r
}

// testServer wires a server with the given deps filled in with defaults.
func testServer(t *testing.T, cfg config.ServerConfig, deps Deps) http.Handler {
	t.Helper()
	if deps.Processor == nil {
		deps.Processor = new(mockProcessor)
	}
	if deps.Evidence == nil {
		deps.Evidence = fakeEvidence{}
	}
	if deps.Inspector == nil {
		deps.Inspector = fakeInspector{}
	}
	s, err := NewServer(cfg, deps, nil, zap.NewNop())
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}
