package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newtron-network/filterupdate/pkg/audit"
	"github.com/newtron-network/filterupdate/pkg/cache"
	"github.com/newtron-network/filterupdate/pkg/cli"
	"github.com/newtron-network/filterupdate/pkg/device"
	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/metrics"
	"github.com/newtron-network/filterupdate/pkg/resolve"
	"github.com/newtron-network/filterupdate/pkg/settings"
	"github.com/newtron-network/filterupdate/pkg/util"
)

// options holds the root command flags.
type options struct {
	asSet    string
	listName string
	ipv6     bool
	server   string

	useBgpq4 bool
	useBgpq3 bool
	direct   bool

	testMode bool
	output   string

	device     string
	user       string
	password   string
	keyFile    string
	port       int
	knownHosts string
	comment    string

	redisAddr   string
	refresh     bool
	metricsFile string

	verbose bool
	logJSON bool

	settings *settings.Settings
}

// Collaborators replaced in tests.
var (
	newQuerier = func() irr.Querier { return irr.NewClient() }
	newRunner  = func() resolve.Runner { return resolve.ExecRunner{} }
	dialDevice = device.DialNetconf
)

func (o *options) family() irr.Family {
	if o.ipv6 {
		return irr.IPv6
	}
	return irr.IPv4
}

func (o *options) method() resolve.Method {
	if o.direct {
		return resolve.MethodDirect
	}
	return resolve.MethodTool
}

func (o *options) tool() string {
	switch {
	case o.useBgpq3:
		return "bgpq3"
	case o.useBgpq4:
		return "bgpq4"
	}
	return o.settings.GetTool()
}

// request validates the resolution inputs and, outside test mode, the
// device inputs.
func (o *options) request() (resolve.Request, error) {
	server := o.server
	if server == "" {
		server = o.settings.GetIRRServer()
	}
	req, err := resolve.NewRequest(o.asSet, o.listName, o.family(), server, o.method())
	if err != nil {
		return req, err
	}
	if o.testMode {
		return req, nil
	}

	v := &util.ValidationBuilder{}
	v.Add(o.device != "", "device (-d) is required unless --test is given")
	v.Add(o.user != "", "user (-u) is required unless --test is given")
	return req, v.Build()
}

func (o *options) target() device.Target {
	port := o.port
	if port == 0 {
		port = o.settings.GetNetconfPort()
	}
	knownHosts := o.knownHosts
	if knownHosts == "" {
		knownHosts = o.settings.KnownHosts
	}
	return device.Target{
		Host:       o.device,
		Port:       port,
		User:       o.user,
		Password:   o.password,
		KeyFile:    o.keyFile,
		KnownHosts: knownHosts,
	}
}

func (o *options) commitComment() string {
	if o.comment != "" {
		return o.comment
	}
	return o.settings.GetCommitComment()
}

func (o *options) applyDefaults() {
	if o.settings == nil {
		o.settings = &settings.Settings{}
	}
	if o.user == "" {
		o.user = o.settings.DeviceUser
	}
	if o.redisAddr == "" {
		o.redisAddr = o.settings.RedisAddr
	}
}

// run resolves the prefix-list and either renders it or applies it.
func run(ctx context.Context, o *options, stdout io.Writer) (err error) {
	o.applyDefaults()

	req, err := o.request()
	if err != nil {
		return err
	}
	if !o.testMode && o.password == "" && o.keyFile == "" {
		if o.password, err = promptPassword(o.user, o.device); err != nil {
			return err
		}
	}

	rec := metrics.NewRecorder()
	if o.metricsFile != "" {
		defer func() {
			if werr := rec.WriteTextfile(o.metricsFile); werr != nil {
				util.Warnf("Writing metrics to %s: %v", o.metricsFile, werr)
			}
		}()
	}

	operation := audit.OperationApply
	if o.testMode {
		operation = audit.OperationRender
	}
	event := audit.NewEvent(operation, req.ASSet, req.ListName).WithDevice(o.device)
	defer func() {
		if aerr := audit.Log(event.Finish(err)); aerr != nil {
			util.Warnf("Writing audit event: %v", aerr)
		}
	}()

	res, err := resolvePrefixes(ctx, o, req, rec)
	if err != nil {
		event.WithResolution(req.Family.String(), req.Server, req.Method.String(), "", false, 0)
		return err
	}
	event.WithResolution(req.Family.String(), req.Server, res.Method.String(), res.Source, res.Cached, len(res.Prefixes))
	util.WithASSet(req.ASSet).WithField("source", res.Source).Infof("Resolved %d prefixes", len(res.Prefixes))

	if o.output != "" {
		if err := os.WriteFile(o.output, []byte(res.Config), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", o.output, err)
		}
		fmt.Fprintf(stdout, "Wrote prefix-list %s (%d prefixes) to %s\n", req.ListName, len(res.Prefixes), o.output)
	}
	if o.testMode {
		if o.output == "" {
			fmt.Fprint(stdout, res.Config)
		}
		return nil
	}

	comment := o.commitComment()
	event.WithComment(comment)

	fmt.Fprintln(stdout, cli.Banner("Writing prefix filter"))
	fmt.Fprintf(stdout, "%s %s on %s (%d prefixes)\n", cli.Bold("prefix-list"), req.ListName, o.device, len(res.Prefixes))

	start := time.Now()
	err = device.Push(ctx, dialDevice, o.target(), res.Config, comment, "")
	cli.Step(stdout, "commit", err)
	if err != nil {
		rec.Transaction(metrics.OutcomeFailure)
		return err
	}
	rec.Transaction(metrics.OutcomeSuccess)
	fmt.Fprintf(stdout, "%s in %s\n", cli.Green("Prefix filter updated"), time.Since(start).Round(time.Millisecond))
	return nil
}

func resolvePrefixes(ctx context.Context, o *options, req resolve.Request, rec *metrics.Recorder) (*resolve.Result, error) {
	q := newQuerier()
	r := resolve.NewResolver(q, o.tool())
	r.Invoker.Runner = newRunner()
	r.SetMetrics(rec)
	r.Refresh = o.refresh

	if o.redisAddr != "" {
		c := cache.Dial(ctx, o.redisAddr, o.settings.GetCacheTTL())
		if c != nil {
			defer c.Close()
			r.Cache = c
		}
	}
	return r.Resolve(ctx, req)
}
