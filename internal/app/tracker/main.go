package tracker

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie"
	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"
	"bitbucket.org/airenas/maiebridge/internal/pkg/metrics"
	"bitbucket.org/airenas/maiebridge/internal/pkg/mongo"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify/redisrelay"
	"bitbucket.org/airenas/maiebridge/internal/pkg/rabbit"
	"github.com/cenkalti/backoff"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trackerService",
	Short: "MAIE task tracker service",
	Long:  `Polls MAIE for submitted tasks and notifies task owners about progress`,
	Run:   run,
}

const defaultPort = 8001

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", defaultPort, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", defaultPort)
	cmdapp.Config.SetDefault("tracker.every", "10s")
	cmdapp.Config.SetDefault("tracker.pollTimeout", "30s")
	cmdapp.Config.SetDefault("tracker.maxElapsed", "20s")
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting trackerService")
	health := healthcheck.NewHandler()

	maieClient, err := maie.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init MAIE client")
	health.AddReadinessCheck("maie", healthcheck.Async(maieClient.Healthy, 30*time.Second))

	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))
	store, err := mongo.NewTaskStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init task store")

	rdb, err := redisrelay.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init redis, tracker reaches sockets only through the relay")
	defer rdb.Close()
	relay := redisrelay.NewRelay(rdb, nil)
	health.AddReadinessCheck("redis", healthcheck.Async(relay.Healthy, 10*time.Second))
	bus := notify.NewBus(relay)

	poller, err := NewPoller(maieClient, store, bus,
		&expBackOffProvider{maxElapsed: cmdapp.Config.GetDuration("tracker.maxElapsed")},
		cmdapp.Config.GetDuration("tracker.pollTimeout"))
	cmdapp.CheckOrPanic(err, "Can't init poller")

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
	defer msgChannelProvider.Close()
	health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))

	err = metrics.RegisterAll(notify.Collectors()...)
	cmdapp.CheckOrPanic(err, "Can't register metrics")

	qChan := make(chan struct{})
	tData := &timerServiceData{runEvery: cmdapp.Config.GetDuration("tracker.every"), poller: poller, store: store,
		qChan: qChan, workWaitChan: make(chan struct{})}
	startTimer(tData)
	go registerQueue(&queueData{eventChannelFunc: rabbit.NewChannelFunc(msgChannelProvider, messages.TaskSubmitted),
		poller: poller, store: store}, qChan, time.Second)

	err = startWebServer(health, cmdapp.Config.GetInt("port"))
	cmdapp.LogIf(err)
	close(qChan)
	<-tData.workWaitChan
	cmdapp.Log.Info("Exit trackerService")
}

func startWebServer(health healthcheck.Handler, port int) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", port)
	router := mux.NewRouter()
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(health.ReadyEndpoint)
	srv := http.Server{Addr: ":" + strconv.Itoa(port), ReadHeaderTimeout: 5 * time.Second, Handler: router}

	w := cmdapp.Log.Writer()
	defer w.Close()
	gracehttp.SetLogger(log.New(w, "", 0))
	return gracehttp.Serve(&srv)
}

type expBackOffProvider struct {
	maxElapsed time.Duration
}

func (bp *expBackOffProvider) Get() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      bp.maxElapsed,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}
