package services

import (
	"context"
	"crypto/rsa"
	"database/sql"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/cryptox"
	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/config"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/keypairs"
	"github.com/logm8/logmate/internal/server/repositories/onelifes"
	"github.com/logm8/logmate/internal/server/repositories/serviceoptions"
)

var errStore = errors.New("store down")

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		PublicBaseURL:                "https://logm8.test",
		AESKey:                       "0123456789abcdef0123456789abcdef",
		KeySealSecret:                "seal-secret",
		TagPepper:                    "pepper",
		RSAKeyBits:                   2048,
		KeyPairValidityDuration:      45 * time.Minute,
		OneLifeTokenValidityDuration: 30 * time.Minute,
		S3ReceiptsBucket:             "receipts",
	}
}

func nopLogger() logging.Logger {
	return logging.New(logging.Options{}, io.Discard)
}

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// sharedKey returns one RSA key per test binary; generation is slow.
func sharedKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		k, err := cryptox.GenerateKeyPair(2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

// --- key pairs ---

type fakeKeyPairs struct {
	mu        sync.Mutex
	rows      map[string]*models.KeyPair
	createErr error
	findErr   error
	purgeErr  error
}

func newFakeKeyPairs() *fakeKeyPairs {
	return &fakeKeyPairs{rows: map[string]*models.KeyPair{}}
}

func (f *fakeKeyPairs) Create(ctx context.Context, kp *models.KeyPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *kp
	f.rows[kp.AccessToken] = &cp
	return nil
}

func (f *fakeKeyPairs) Find(ctx context.Context, accessToken string) (*models.KeyPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	kp, ok := f.rows[accessToken]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *kp
	return &cp, nil
}

func (f *fakeKeyPairs) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	var n int64
	for k, kp := range f.rows {
		if kp.Expired(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

// --- one-time tokens ---

type fakeTokens struct {
	mu        sync.Mutex
	rows      map[string]*models.OneLifeToken
	createErr error
	findErr   error
	markErr   error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{rows: map[string]*models.OneLifeToken{}}
}

func (f *fakeTokens) Create(ctx context.Context, t *models.OneLifeToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *t
	cp.Consumed = false
	f.rows[t.TokenKey] = &cp
	return nil
}

func (f *fakeTokens) Find(ctx context.Context, key string) (*models.OneLifeToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.rows[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) MarkConsumed(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	t, ok := f.rows[key]
	if !ok || t.Consumed {
		return false, nil
	}
	t.Consumed = true
	return true, nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// --- service options ---

type fakeOptions struct {
	opts  []models.CatalogOption
	rels  []models.OptionRelation
	links []models.VehicleTypeLink
	err   error

	upsertID  int
	upsertErr error
	linked    bool
	linkErr   error
	inserted  bool
	insertErr error
}

func (f *fakeOptions) ListOptions(context.Context) ([]models.CatalogOption, error) {
	return f.opts, f.err
}
func (f *fakeOptions) ListRelations(context.Context) ([]models.OptionRelation, error) {
	return f.rels, f.err
}
func (f *fakeOptions) ListVehicleTypeLinks(context.Context) ([]models.VehicleTypeLink, error) {
	return f.links, f.err
}
func (f *fakeOptions) UpsertByName(ctx context.Context, name string, d *string) (int, error) {
	return f.upsertID, f.upsertErr
}
func (f *fakeOptions) LinkVehicleType(ctx context.Context, vt string, id int) (bool, error) {
	return f.linked, f.linkErr
}
func (f *fakeOptions) AddRelation(ctx context.Context, p, c int) (bool, error) {
	return f.inserted, f.insertErr
}
func (f *fakeOptions) AddServiceType(ctx context.Context, o, st int) (bool, error) {
	return f.inserted, f.insertErr
}

// --- repository manager ---

type fakeRepoManager struct {
	kp *fakeKeyPairs
	ot *fakeTokens
	so *fakeOptions
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{kp: newFakeKeyPairs(), ot: newFakeTokens(), so: &fakeOptions{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error         { return nil }
func (m *fakeRepoManager) KeyPairs(db dbx.DBTX) keypairs.Repository             { return m.kp }
func (m *fakeRepoManager) OneLifeTokens(db dbx.DBTX) onelifes.Repository        { return m.ot }
func (m *fakeRepoManager) ServiceOptions(db dbx.DBTX) serviceoptions.Repository { return m.so }

// --- tags ---

type fakeTags struct {
	mu         sync.Mutex
	rows       map[string]*models.Tag
	seq        int64
	seqErr     error
	stateErr   error
	stateCalls int
}

func newFakeTags(tags ...*models.Tag) *fakeTags {
	f := &fakeTags{rows: map[string]*models.Tag{}}
	for _, t := range tags {
		f.rows[t.ID] = t
	}
	return f
}

func (f *fakeTags) Get(ctx context.Context, id string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTags) State(ctx context.Context, id string) (models.TagState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	if f.stateErr != nil {
		return models.TagNotFound, f.stateErr
	}
	t, ok := f.rows[id]
	if !ok {
		return models.TagNotFound, nil
	}
	return t.State(), nil
}

func (f *fakeTags) Create(ctx context.Context, t *models.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.ID]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTags) Update(ctx context.Context, t *models.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTags) NextSequence(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seqErr != nil {
		return 0, f.seqErr
	}
	f.seq++
	return f.seq, nil
}

// --- records ---

type fakeRecords struct {
	rows       map[string]*models.Record
	listErr    error
	migrated   int
	migrateErr error
	migrateArg [2]string
}

func newFakeRecords(recs ...*models.Record) *fakeRecords {
	f := &fakeRecords{rows: map[string]*models.Record{}}
	for _, r := range recs {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeRecords) Create(ctx context.Context, r *models.Record) error {
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeRecords) Get(ctx context.Context, id string) (*models.Record, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecords) Update(ctx context.Context, r *models.Record) error {
	if _, ok := f.rows[r.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeRecords) ListByTag(ctx context.Context, tagID string) ([]*models.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*models.Record{}
	for _, r := range f.rows {
		if r.TagID == tagID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRecords) MigrateTag(ctx context.Context, oldTagID, newTagID string, at time.Time) (int, error) {
	f.migrateArg = [2]string{oldTagID, newTagID}
	return f.migrated, f.migrateErr
}

// --- presigner ---

type fakePresigner struct {
	putKey, putType string
	getKey          string
	err             error
}

func (p *fakePresigner) PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.putKey, p.putType = key, contentType
	return "https://s3.test/" + bucket + "/" + key + "?put", nil
}

func (p *fakePresigner) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.getKey = key
	return "https://s3.test/" + bucket + "/" + key + "?get", nil
}
