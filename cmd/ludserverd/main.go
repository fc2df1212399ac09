// Command ludserverd runs the relay.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ludirc/ludserver/internal/config"
	"github.com/ludirc/ludserver/internal/ircd"
	"github.com/ludirc/ludserver/internal/logging"
)

type args struct {
	ConfigFile string
	ServerName string
	Port       int
}

func getArgs() *args {
	configFile := flag.String("conf", "", "Configuration file (optional).")
	serverName := flag.String("server-name", "", "Server name. Overrides server_name from config.")
	port := flag.Int("port", 0, "Listen port. Overrides port from config.")

	flag.Parse()

	return &args{
		ConfigFile: *configFile,
		ServerName: *serverName,
		Port:       *port,
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	a := getArgs()

	cfg, err := config.Load(a.ConfigFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s\n", err) // nolint: gas
		flag.PrintDefaults()
		return 1
	}

	if a.ServerName != "" {
		cfg.ServerName = a.ServerName
	}
	if a.Port != 0 {
		cfg.Port = a.Port
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logging.New(logger)

	srv := ircd.NewServer(ircd.Config{
		ServerName:     cfg.ServerName,
		Port:           cfg.Port,
		MOTD:           cfg.MOTD,
		Version:        cfg.Version,
		IdleBeforePing: cfg.IdleBeforePing,
		PingTimeout:    cfg.PingTimeout,
	}, log)

	if err := srv.Serve(); err != nil {
		logger.WithError(err).Error("server exited")
		return 1
	}

	return 0
}
