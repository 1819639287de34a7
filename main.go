package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	logf := LoggingFormat{Type: LogType.Startup}

	if err := godotenv.Load(); err != nil {
		logf.Level = logrus.InfoLevel
		logf.Message = "Error loading .env file. Using existing environment variables."
		logf.Print()
	}

	cfg := loadConfig()
	lokiHook := setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := NewGateway(cfg)

	if cfg.AMQPURL != "" {
		gateway.AMPQClient = NewMsgQueueClient(cfg.AMQPURL, []string{cfg.JobsQueue, cfg.ResultsQueue})
		go gateway.consumeTextJobs(ctx)
	}

	prometheus.MustRegister(NewMetricExporter(cfg.InstanceID, gateway))
	go func() {
		exporter := &PrometheusExporter{Path: cfg.PrometheusPath, Listen: cfg.PrometheusListen}
		if err := exporter.Start(); err != nil {
			logf := LoggingFormat{Type: LogType.Metrics, Level: logrus.ErrorLevel, Message: "Metrics exporter stopped", Error: err}
			logf.Print()
		}
	}()

	list, err := listen(cfg.WebListen, cfg.ProxyProtocol)
	if err != nil {
		logf.Level = logrus.ErrorLevel
		logf.Message = "Failed to listen"
		logf.Error = err
		logf.AddField("address", cfg.WebListen)
		logf.Print()
		os.Exit(1)
	}

	logf.Level = logrus.InfoLevel
	logf.Message = "Text gateway started"
	logf.AddField("address", list.Addr().String())
	logf.AddField("instance_id", cfg.InstanceID)
	logf.AddField("amqp", cfg.AMQPURL != "")
	logf.Print()

	app := newWebApp(gateway)
	go func() {
		<-ctx.Done()
		_ = app.Shutdown(context.Background())
	}()

	if err := app.Run(iris.Listener(list), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		logf := LoggingFormat{Type: LogType.Web, Level: logrus.ErrorLevel, Message: "Web server stopped", Error: err}
		logf.Print()
	}

	if gateway.AMPQClient != nil {
		_ = gateway.AMPQClient.Close()
	}

	if lokiHook != nil {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		lokiHook.Close()
	}
}
