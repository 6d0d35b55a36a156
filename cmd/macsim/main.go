/*
The macsim command runs a single IEEE 802.15.4 MAC sublayer instance
over the loopback software PHY in package phy/sim. Two macsim
processes, pointed at each other's [phy] socket addresses, exchange
reliable unicast frames on a timer and log the outcome of each
transmission and reception.

macsim is driven by a configuration file which describes the node's
addressing, CSMA-CA/ACK-wait tuning, and the simulated PHY's socket
addresses. For more information on the configuration file format
please refer to package config's documentation.
*/
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sys/unix"

	"github.com/crystalpower/emb6mac/config"
	"github.com/crystalpower/emb6mac/mac"
	"github.com/crystalpower/emb6mac/phy/sim"
)

// echoLLC is the demo's upper-MAC: it just logs what it was handed.
type echoLLC struct {
	logger log.Logger
}

func (l *echoLLC) Recv(buf []byte) {
	level.Info(l.logger).Log("message", "llc recv", "length", len(buf), "payload", fmt.Sprintf("%x", buf))
}

type application struct {
	logger  log.Logger
	m       *mac.MAC
	phy     *sim.PHY
	sigChan chan os.Signal
	period  time.Duration
}

func newApplication(cfg *config.Config, logger log.Logger, period time.Duration) (*application, error) {
	app := &application{
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
		period:  period,
	}
	signal.Notify(app.sigChan, unix.SIGINT, unix.SIGTERM)

	llc := &echoLLC{logger: logger}

	recvFn := func(buf []byte) {
		app.m.Recv(buf)
	}

	phyDrv, err := sim.New(cfg.PHYLocal, cfg.PHYPeer, recvFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulated phy: %v", err)
	}
	app.phy = phyDrv

	m, err := mac.New(logger, phyDrv, llc, cfg.MAC)
	if err != nil {
		return nil, fmt.Errorf("failed to create mac instance: %v", err)
	}
	app.m = m

	if err := app.m.Init(cfg.ExtAddr, cfg.PanID); err != nil {
		return nil, fmt.Errorf("failed to initialise mac instance: %v", err)
	}
	if err := app.m.On(); err != nil {
		return nil, fmt.Errorf("failed to turn radio on: %v", err)
	}

	return app, nil
}

func (app *application) sendLoop(done <-chan struct{}) {
	ticker := time.NewTicker(app.period)
	defer ticker.Stop()

	var seq uint8
	for {
		select {
		case <-ticker.C:
			seq++
			payload := []byte(fmt.Sprintf("hello #%d", seq))
			attrs := mac.TxAttrs{
				Reliable:         true,
				MaxTransmissions: 3,
				SeqNo:            seq,
			}
			err := app.m.Send(payload, attrs, func(arg any, err error) {
				if err != nil {
					level.Error(app.logger).Log("message", "send failed", "seq", arg, "error", err)
					return
				}
				level.Info(app.logger).Log("message", "send ok", "seq", arg)
			}, seq)
			if err != nil {
				level.Debug(app.logger).Log("message", "send returned error", "error", err)
			}
		case <-done:
			return
		}
	}
}

func (app *application) run() int {
	done := make(chan struct{})
	go app.sendLoop(done)

	<-app.sigChan
	level.Info(app.logger).Log("message", "received signal, shutting down")
	close(done)

	if err := app.m.Off(); err != nil {
		level.Error(app.logger).Log("message", "failed to turn radio off", "error", err)
	}
	if err := app.phy.Close(); err != nil {
		level.Error(app.logger).Log("message", "failed to close phy socket", "error", err)
	}
	return 0
}

func main() {
	cfgPathPtr := flag.String("config", "", "specify configuration file path")
	verbosePtr := flag.Bool("verbose", false, "toggle verbose log output")
	periodPtr := flag.Duration("period", 2*time.Second, "interval between demo transmissions")
	flag.Parse()

	if *cfgPathPtr == "" {
		stdlog.Fatalf("must specify -config")
	}

	cfg, err := config.LoadFile(*cfgPathPtr)
	if err != nil {
		stdlog.Fatalf("failed to load configuration: %v", err)
	}

	logger := log.NewLogfmtLogger(os.Stderr)
	var filtered log.Logger
	if *verbosePtr {
		filtered = level.NewFilter(logger, level.AllowDebug())
	} else {
		filtered = level.NewFilter(logger, level.AllowInfo())
	}

	app, err := newApplication(cfg, filtered, *periodPtr)
	if err != nil {
		stdlog.Fatalf("failed to instantiate application: %v", err)
	}

	os.Exit(app.run())
}
