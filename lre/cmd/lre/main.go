// Copyright 2016 ETH Zurich
// Copyright 2019 ETH Zurich, Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/hsrprp/hsrprp/lre"
	"github.com/hsrprp/hsrprp/lre/config"
	"github.com/hsrprp/hsrprp/lre/mgmtapi"
	"github.com/hsrprp/hsrprp/lre/node"
	"github.com/hsrprp/hsrprp/lre/underlay"
	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
	"github.com/hsrprp/hsrprp/private/app/launcher"
	"github.com/hsrprp/hsrprp/private/periodic"
)

var globalCfg config.Config

func main() {
	application := launcher.Application{
		TOMLConfig: &globalCfg,
		ShortName:  "HSR/PRP Link Redundancy Entity",
		Main:       realMain,
	}
	application.Run()
}

func realMain(ctx context.Context) error {
	reg := prometheus.DefaultRegisterer
	metrics := lre.NewMetrics(reg)
	devCfg := globalCfg.Device

	dev := lre.NewDevice(devCfg.LREConfig(), metrics)
	tbl, err := setupPorts(dev, metrics)
	if err != nil {
		return err
	}

	g, errCtx := errgroup.WithContext(ctx)
	var cleanup []func() error

	// Initialize and start the management API.
	if globalCfg.API.Addr != "" {
		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
		}))
		server := mgmtapi.Server{Device: dev, Nodes: tbl}
		log.Info("Exposing API", "addr", globalCfg.API.Addr)
		mgmtServer := &http.Server{
			Addr:    globalCfg.API.Addr,
			Handler: mgmtapi.Handler(&server, r, "/api/v1"),
		}
		cleanup = append(cleanup, mgmtServer.Close)
		g.Go(func() error {
			defer log.HandlePanic()
			err := mgmtServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return serrors.Wrap("serving management API", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer log.HandlePanic()
		<-errCtx.Done()
		var errs serrors.List
		for _, c := range cleanup {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errs.ToError()
	})
	g.Go(func() error {
		defer log.HandlePanic()
		return globalCfg.Metrics.ServePrometheus(errCtx)
	})
	g.Go(func() error {
		defer log.HandlePanic()
		if err := dev.Run(errCtx); err != nil {
			return serrors.Wrap("running device", err)
		}
		return nil
	})

	pruneInterval := globalCfg.NodeTable.PruneInterval.Duration
	pruner := periodic.StartWithMetrics(tbl, periodic.NewMetrics(reg, tbl.Name()),
		pruneInterval, pruneInterval)
	defer pruner.Stop()

	emitter := lre.NewSupervisionEmitter(dev, globalCfg.Supervision.LifeCheckInterval.Duration)
	supervision := periodic.StartWithMetrics(emitter, periodic.NewMetrics(reg, emitter.Name()),
		lre.AnnounceInterval, lre.AnnounceInterval)
	defer supervision.Stop()

	return g.Wait()
}

// setupPorts opens the links of the device, attaches them as ports and
// creates the node table. The master interface takes the address of slave A.
func setupPorts(dev *lre.Device, metrics *lre.Metrics) (*node.Table, error) {
	devCfg := globalCfg.Device
	var conns []lre.Conn
	closeAll := func() {
		for _, c := range conns {
			c.Close()
		}
	}

	connA, linkA, err := underlay.OpenPacketConn(devCfg.SlaveA)
	if err != nil {
		return nil, err
	}
	conns = append(conns, connA)
	connB, linkB, err := underlay.OpenPacketConn(devCfg.SlaveB)
	if err != nil {
		closeAll()
		return nil, err
	}
	conns = append(conns, connB)
	master, linkM, err := underlay.OpenTap(devCfg.Name, linkA.Addr)
	if err != nil {
		closeAll()
		return nil, err
	}
	conns = append(conns, master)

	tbl := node.NewTable(linkA.Addr, linkB.Addr, globalCfg.NodeTable.TableConfig(),
		metrics.NodeMetrics(devCfg.Name))
	if err := dev.SetRegistry(tbl, tbl); err != nil {
		closeAll()
		return nil, err
	}
	ports := []struct {
		portType hsr.PortType
		link     underlay.Link
		conn     lre.Conn
	}{
		{portType: hsr.PortSlaveA, link: linkA, conn: connA},
		{portType: hsr.PortSlaveB, link: linkB, conn: connB},
		{portType: hsr.PortMaster, link: linkM, conn: master},
	}
	for _, p := range ports {
		if err := dev.AddPort(p.portType, p.link.Name, p.link.Addr, p.conn); err != nil {
			closeAll()
			return nil, serrors.Wrap("adding port", err, "port", p.portType,
				"interface", p.link.Name)
		}
	}
	log.Info("Device configured", "device", devCfg.Name, "version", devCfg.Version,
		"slave_a", linkA.Name, "slave_b", linkB.Name)
	return tbl, nil
}
