package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	//MAIE submits work and reads task status
	MAIE interface {
		Submit(ctx context.Context, audio io.Reader, fileName, templateID, features string) (*api.SubmitResponse, error)
		SubmitText(ctx context.Context, text, templateID string) (*api.SubmitResponse, error)
		GetStatus(ctx context.Context, ID string) (*api.TaskStatus, error)
	}

	//TaskSaver keeps submitted tasks for the tracker and task owners
	TaskSaver interface {
		Save(ctx context.Context, t *persistence.Task) error
		Get(ctx context.Context, id string) (*persistence.Task, error)
	}

	//TemplateStore keeps summary templates
	TemplateStore interface {
		Create(ctx context.Context, t *template.Template) (*template.Template, error)
		Get(ctx context.Context, id string) (*template.Template, error)
		List(ctx context.Context, userID string) ([]*template.Template, error)
		Update(ctx context.Context, id, name, content string) (*template.Template, error)
		Delete(ctx context.Context, id string) error
	}

	//FeatureMap resolves features selector to MAIE value
	FeatureMap interface {
		Get(name string) (string, error)
	}

	//Notifier delivers events to user's connections
	Notifier interface {
		EmitToUser(userID string, n notify.Notification)
		Kick(userID, message string)
	}
)

// ServiceData keeps data required for service work
type ServiceData struct {
	MAIE          MAIE
	TaskSaver     TaskSaver
	MessageSender messages.Sender
	Templates     TemplateStore
	Features      FeatureMap
	Notifier      Notifier
	WsHandler     http.Handler

	Port   int
	health healthcheck.Handler
}

var responseDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "gateway",
	Name:      "response_duration_seconds",
	Help:      "Gateway handlers duration",
}, []string{"handler", "code", "method"})

//Collectors returns service metrics
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{responseDur}
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	if data.health == nil {
		data.health = healthcheck.NewHandler()
	}
	router := mux.NewRouter().StrictSlash(true)
	router.Methods("POST").Path("/process").Handler(instrument("process", &processHandler{data: data}))
	router.Methods("POST").Path("/process_text").Handler(instrument("process_text", &processTextHandler{data: data}))
	router.Methods("GET").Path("/status/{id}").Handler(instrument("status", &statusHandler{data: data}))
	router.Methods("GET").Path("/templates").Handler(instrument("templates_list", &templateListHandler{data: data}))
	router.Methods("POST").Path("/templates").Handler(instrument("templates_create", &templateCreateHandler{data: data}))
	router.Methods("GET").Path("/templates/{id}").Handler(instrument("templates_get", &templateGetHandler{data: data}))
	router.Methods("PUT").Path("/templates/{id}").Handler(instrument("templates_update", &templateUpdateHandler{data: data}))
	router.Methods("DELETE").Path("/templates/{id}").Handler(instrument("templates_delete", &templateDeleteHandler{data: data}))
	router.Methods("POST").Path("/users/{id}/kick").Handler(instrument("kick", &kickHandler{data: data}))
	if data.WsHandler != nil {
		router.Methods("GET").Path("/ws").Handler(data.WsHandler)
	}
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	return router
}

func instrument(name string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(responseDur.MustCurryWith(prometheus.Labels{"handler": name}), h)
}

func userID(r *http.Request) string {
	return r.Header.Get(notify.UserHeader)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		cmdapp.Log.Error(err)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func httpError(w http.ResponseWriter, msg string, code int, err error) {
	http.Error(w, msg, code)
	if err != nil {
		cmdapp.Log.Errorf("%s: %v", msg, err)
	} else {
		cmdapp.Log.Error(msg)
	}
}
