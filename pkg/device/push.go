package device

import (
	"context"
	"fmt"

	"github.com/newtron-network/filterupdate/pkg/junos"
	"github.com/newtron-network/filterupdate/pkg/util"
)

// DialFunc opens an authenticated Handle to t.
type DialFunc func(ctx context.Context, t Target) (Handle, error)

// DialNetconf is the DialFunc for Junos NETCONF over SSH.
func DialNetconf(ctx context.Context, t Target) (Handle, error) {
	nc, err := Dial(ctx, t)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// Push applies config to the device at t. The config is checked locally,
// written to a run-owned temporary artifact and loaded from there; the
// artifact is removed on every path.
func Push(ctx context.Context, dial DialFunc, t Target, config, comment, tmpDir string) error {
	if err := junos.Validate(config); err != nil {
		return util.NewDeviceError("load", t.Host, fmt.Errorf("rendered configuration: %w", err))
	}

	artifact, err := WriteArtifact(tmpDir, config)
	if err != nil {
		return util.NewDeviceError("load", t.Host, err)
	}
	defer func() {
		if err := artifact.Remove(); err != nil {
			util.WithDevice(t.Host).Warnf("Removing %s: %v", artifact.Path, err)
		}
	}()

	util.WithDevice(t.Host).Infof("Connecting to %s", t.Addr())
	h, err := dial(ctx, t)
	if err != nil {
		if util.IsDeviceError(err) {
			return err
		}
		return util.NewDeviceError("connect", t.Host, err)
	}
	return NewSession(t.Host, h).Apply(ctx, artifact, comment)
}
