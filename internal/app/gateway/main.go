package gateway

import (
	"context"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/config"
	"bitbucket.org/airenas/maiebridge/internal/pkg/gormdb"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie"
	"bitbucket.org/airenas/maiebridge/internal/pkg/metrics"
	"bitbucket.org/airenas/maiebridge/internal/pkg/mongo"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify/redisrelay"
	"bitbucket.org/airenas/maiebridge/internal/pkg/rabbit"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatewayService",
	Short: "MAIE gateway service",
	Long:  `HTTP server passing audio and text to MAIE, serving templates and client notifications`,
	Run:   run,
}

var importCmd = &cobra.Command{
	Use:   "import <file.yml>",
	Short: "Import templates from yaml file",
	Args:  cobra.ExactArgs(1),
	Run:   runImport,
}

const defaultPort = 8080

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", defaultPort, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", defaultPort)
	cmdapp.Config.SetDefault("db.migrations.run", true)
	rootCmd.AddCommand(importCmd)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting gatewayService")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var data ServiceData
	var err error
	data.health = healthcheck.NewHandler()

	maieClient, err := maie.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init MAIE client")
	data.MAIE = maieClient
	data.health.AddReadinessCheck("maie", healthcheck.Async(maieClient.Healthy, 30*time.Second))

	data.Features, err = config.NewFileFeatureMap(cmdapp.Config.GetString("features.path"))
	cmdapp.CheckOrPanic(err, "Can't init features config")

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
	defer msgChannelProvider.Close()
	data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))
	data.MessageSender = rabbit.NewSender(msgChannelProvider)

	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))
	data.TaskSaver, err = mongo.NewTaskStore(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init task store")

	dbProvider, err := gormdb.NewProvider()
	cmdapp.CheckOrPanic(err, "Can't init db")
	defer dbProvider.Close()
	data.health.AddReadinessCheck("db", healthcheck.Async(dbProvider.Healthy, 10*time.Second))
	data.Templates, err = template.NewStore(dbProvider)
	cmdapp.CheckOrPanic(err, "Can't init template store")

	hub := notify.NewHub()
	var server notify.Server = hub
	if cmdapp.Config.GetString("redis.url") != "" {
		rdb, err := redisrelay.NewClient()
		cmdapp.CheckOrPanic(err, "Can't init redis")
		defer rdb.Close()
		relay := redisrelay.NewRelay(rdb, hub)
		data.health.AddLivenessCheck("redis", healthcheck.Async(relay.Healthy, 10*time.Second))
		go func() {
			cmdapp.LogIf(relay.Run(ctx))
		}()
		server = relay
	} else {
		cmdapp.Log.Warn("No redis.url, notifications are delivered to this instance connections only")
	}
	bus := notify.NewBus(server)
	data.Notifier = bus
	data.WsHandler = notify.NewWebSocketHandler(hub, bus)

	err = metrics.RegisterAll(append(append(Collectors(), notify.Collectors()...), gormdb.Collectors()...)...)
	cmdapp.CheckOrPanic(err, "Can't register metrics")

	data.Port = cmdapp.Config.GetInt("port")
	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func runImport(cmd *cobra.Command, args []string) {
	dbProvider, err := gormdb.NewProvider()
	cmdapp.CheckOrPanic(err, "Can't init db")
	defer dbProvider.Close()
	store, err := template.NewStore(dbProvider)
	cmdapp.CheckOrPanic(err, "Can't init template store")
	n, err := ImportFile(context.Background(), store, args[0])
	cmdapp.CheckOrPanic(err, "Can't import "+args[0])
	cmdapp.Log.Infof("Imported %d templates", n)
}
