// Package httpapi exposes the negotiation protocol and the tag, record and
// service-option operations over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"

	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/services"
)

const maxBodyBytes = 1 << 20

type Negotiator interface {
	Negotiate(ctx context.Context) (*services.Session, error)
	ResolveAsymmetric(ctx context.Context, accessToken, eID string) (*services.Resolution, error)
	ResolveSymmetric(ctx context.Context, envelope string, ownerID *string) (*services.Resolution, error)
	Guest(ctx context.Context, envelope string) (*services.Resolution, error)
	Consume(ctx context.Context, tokenKey string) error
	OpenEnvelope(envelope string) (string, error)
}

type TagManager interface {
	Acquire(ctx context.Context) (string, error)
	Configure(ctx context.Context, profile *models.TagProfile) error
	Submit(ctx context.Context, profile *models.TagProfile) error
	Garage(ctx context.Context, id string) (*models.Tag, error)
	Replace(ctx context.Context, oldTagID, newTagID string) (int, error)
}

type RecordManager interface {
	LogData(ctx context.Context, tokenKey string) (*services.LogData, error)
	Add(ctx context.Context, tokenKey string, rec *models.Record) (*models.Record, error)
	Update(ctx context.Context, patch *models.RecordPatch) (*models.Record, error)
	UploadURL(ctx context.Context, tokenKey, fileName string) (*services.UploadTarget, error)
	ReceiptURL(ctx context.Context, tokenKey, key string) (string, error)
}

type OptionManager interface {
	Hierarchy(ctx context.Context) (*models.ServiceHierarchy, error)
	SnapshotHierarchy(ctx context.Context) (*models.ServiceHierarchy, error)
	RefreshSnapshot(ctx context.Context) error
	AddOption(ctx context.Context, name string, description *string) (int, error)
	AddParent(ctx context.Context, parentID, childID int) error
	AddServiceType(ctx context.Context, optionID, serviceTypeID int) error
}

// Check is a named readiness probe.
type Check func(ctx context.Context) error

// Deps are the collaborators of the API.
type Deps struct {
	Negotiation    Negotiator
	Tags           TagManager
	Records        RecordManager
	ServiceOptions OptionManager
	Ready          map[string]Check
	AdminSecret    string
	Logger         logging.Logger
}

// API holds the HTTP handlers.
type API struct {
	negotiation Negotiator
	tags        TagManager
	records     RecordManager
	options     OptionManager
	ready       map[string]Check
	adminSecret string
	logger      logging.Logger
}

func New(d Deps) *API {
	return &API{
		negotiation: d.Negotiation,
		tags:        d.Tags,
		records:     d.Records,
		options:     d.ServiceOptions,
		ready:       d.Ready,
		adminSecret: d.AdminSecret,
		logger:      d.Logger.With("module", "http"),
	}
}

// Router builds the route table with the middleware chain.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, a.recoverer, a.accessLog)

	r.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.readyz).Methods(http.MethodGet)

	r.HandleFunc("/negotiate", a.negotiate).Methods(http.MethodGet)
	r.HandleFunc("/onelifeurl", a.oneLifeURL).Methods(http.MethodGet)
	r.HandleFunc("/onelifeurl-one-step", a.oneLifeURLOneStep).Methods(http.MethodGet)
	r.HandleFunc("/onelifeurl-guest", a.oneLifeURLGuest).Methods(http.MethodGet)
	r.HandleFunc("/consume-onelifeurl", a.consume).Methods(http.MethodGet)

	r.HandleFunc("/log-data", a.logData).Methods(http.MethodGet)
	r.HandleFunc("/garage-tag", a.garageTag).Methods(http.MethodGet)
	r.HandleFunc("/tags/acquire", a.acquireTag).Methods(http.MethodPost)
	r.HandleFunc("/tags/configure", a.configureTag).Methods(http.MethodPost)
	r.HandleFunc("/tags/submit", a.submitTag).Methods(http.MethodPost)

	r.HandleFunc("/records", a.addRecord).Methods(http.MethodPost)
	r.HandleFunc("/records/upload-url", a.uploadURL).Methods(http.MethodPost)
	r.HandleFunc("/records/update", a.updateRecord).Methods(http.MethodPost)
	r.HandleFunc("/records/receipt-url", a.receiptURL).Methods(http.MethodGet)

	r.HandleFunc("/service-options/hierarchy", a.hierarchy).Methods(http.MethodGet)
	r.HandleFunc("/motorbike-options", a.motorbikeOptions).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(a.adminAuth(a.adminSecret))
	admin.HandleFunc("/tags/replace", a.replaceTag).Methods(http.MethodPost)
	admin.HandleFunc("/service-options/refresh", a.refreshOptions).Methods(http.MethodPost)
	admin.HandleFunc("/service-options", a.addOption).Methods(http.MethodPost)
	admin.HandleFunc("/service-options/parent", a.addParent).Methods(http.MethodPost)
	admin.HandleFunc("/service-options/service-type", a.addServiceType).Methods(http.MethodPost)

	return r
}

// Handler is the router wrapped with response compression.
func (a *API) Handler() http.Handler {
	return gzhttp.GzipHandler(a.Router())
}
