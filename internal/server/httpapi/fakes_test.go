package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeNegotiator struct {
	session  *services.Session
	res      *services.Resolution
	err      error
	openID   string
	gotToken string
	gotEID   string
	gotOwner *string
	consumed []string
}

func (f *fakeNegotiator) Negotiate(context.Context) (*services.Session, error) {
	return f.session, f.err
}

func (f *fakeNegotiator) ResolveAsymmetric(_ context.Context, accessToken, eID string) (*services.Resolution, error) {
	f.gotToken, f.gotEID = accessToken, eID
	return f.res, f.err
}

func (f *fakeNegotiator) ResolveSymmetric(_ context.Context, envelope string, ownerID *string) (*services.Resolution, error) {
	f.gotEID, f.gotOwner = envelope, ownerID
	return f.res, f.err
}

func (f *fakeNegotiator) Guest(_ context.Context, envelope string) (*services.Resolution, error) {
	f.gotEID = envelope
	return f.res, f.err
}

func (f *fakeNegotiator) Consume(_ context.Context, tokenKey string) error {
	f.consumed = append(f.consumed, tokenKey)
	return f.err
}

func (f *fakeNegotiator) OpenEnvelope(envelope string) (string, error) {
	f.gotEID = envelope
	return f.openID, f.err
}

type fakeTags struct {
	id         string
	tag        *models.Tag
	migrated   int
	err        error
	configured *models.TagProfile
	submitted  *models.TagProfile
	garageID   string
	replaced   [2]string
}

func (f *fakeTags) Acquire(context.Context) (string, error) { return f.id, f.err }

func (f *fakeTags) Configure(_ context.Context, p *models.TagProfile) error {
	f.configured = p
	return f.err
}

func (f *fakeTags) Submit(_ context.Context, p *models.TagProfile) error {
	f.submitted = p
	return f.err
}

func (f *fakeTags) Garage(_ context.Context, id string) (*models.Tag, error) {
	f.garageID = id
	return f.tag, f.err
}

func (f *fakeTags) Replace(_ context.Context, oldTagID, newTagID string) (int, error) {
	f.replaced = [2]string{oldTagID, newTagID}
	return f.migrated, f.err
}

type fakeRecords struct {
	data     *services.LogData
	rec      *models.Record
	target   *services.UploadTarget
	url      string
	err      error
	gotToken string
	gotRec   *models.Record
	gotPatch *models.RecordPatch
	gotKey   string
}

func (f *fakeRecords) LogData(_ context.Context, tokenKey string) (*services.LogData, error) {
	f.gotToken = tokenKey
	return f.data, f.err
}

func (f *fakeRecords) Add(_ context.Context, tokenKey string, rec *models.Record) (*models.Record, error) {
	f.gotToken, f.gotRec = tokenKey, rec
	return f.rec, f.err
}

func (f *fakeRecords) Update(_ context.Context, patch *models.RecordPatch) (*models.Record, error) {
	f.gotPatch = patch
	return f.rec, f.err
}

func (f *fakeRecords) UploadURL(_ context.Context, tokenKey, fileName string) (*services.UploadTarget, error) {
	f.gotToken, f.gotKey = tokenKey, fileName
	return f.target, f.err
}

func (f *fakeRecords) ReceiptURL(_ context.Context, tokenKey, key string) (string, error) {
	f.gotToken, f.gotKey = tokenKey, key
	return f.url, f.err
}

type fakeOptions struct {
	h         *models.ServiceHierarchy
	id        int
	err       error
	refreshed int
	args      []int
	name      string
}

func (f *fakeOptions) Hierarchy(context.Context) (*models.ServiceHierarchy, error) { return f.h, f.err }

func (f *fakeOptions) SnapshotHierarchy(context.Context) (*models.ServiceHierarchy, error) {
	return f.h, f.err
}

func (f *fakeOptions) RefreshSnapshot(context.Context) error {
	f.refreshed++
	return f.err
}

func (f *fakeOptions) AddOption(_ context.Context, name string, _ *string) (int, error) {
	f.name = name
	return f.id, f.err
}

func (f *fakeOptions) AddParent(_ context.Context, parentID, childID int) error {
	f.args = []int{parentID, childID}
	return f.err
}

func (f *fakeOptions) AddServiceType(_ context.Context, optionID, serviceTypeID int) error {
	f.args = []int{optionID, serviceTypeID}
	return f.err
}

const testAdminSecret = "admin-secret"

type fixture struct {
	neg     *fakeNegotiator
	tags    *fakeTags
	records *fakeRecords
	options *fakeOptions
	ready   map[string]Check
	api     *API
}

func newFixture() *fixture {
	f := &fixture{
		neg:     &fakeNegotiator{},
		tags:    &fakeTags{},
		records: &fakeRecords{},
		options: &fakeOptions{},
		ready:   map[string]Check{},
	}
	f.api = New(Deps{
		Negotiation:    f.neg,
		Tags:           f.tags,
		Records:        f.records,
		ServiceOptions: f.options,
		Ready:          f.ready,
		AdminSecret:    testAdminSecret,
		Logger:         nopLogger{},
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	f.api.Router().ServeHTTP(rr, req)
	return rr
}
