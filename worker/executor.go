package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/sheenubhat/network-automation-scripts/model"
	"github.com/sheenubhat/network-automation-scripts/store"
)

// executor runs one backup attempt per call: connect, elevate, retrieve,
// persist, close. Every failure is caught here and turned into a failed
// attempt; nothing crosses the per-device boundary.
type executor struct {
	store         store.Store
	sessionLogDir string
	timeout       time.Duration
	dial          dialFunc
	log           zerolog.Logger
}

func (e *executor) backupDevice(ctx context.Context, device *model.Device, index int) (attempt *model.Attempt) {
	start := time.Now()
	log := e.log.With().Str("device", device.Name).Str("host", device.Host).Logger()
	// A panic in session plumbing is a bug, not a device problem; record it
	// as such and keep the batch going.
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("stack", string(debug.Stack())).
				Msg("internal error during backup attempt")
			attempt = model.NewFailedAttempt(device.Name, index,
				model.FailureInternal, fmt.Errorf("panic: %v", r), start)
		}
	}()

	transcriptPath := ""
	if e.sessionLogDir != "" {
		transcriptPath = store.TranscriptPath(e.sessionLogDir, device.Name, start)
	}
	params, err := model.ConnParamsForDevice(device, transcriptPath, e.timeout)
	if err != nil {
		// Inventory validation already vetted the dialect, so this is a bug
		return model.NewFailedAttempt(device.Name, index, model.FailureInternal, err, start)
	}

	log.Info().Msg("connecting")
	sess, err := e.dial(ctx, params, log)
	if err != nil {
		kind := failureKind(err)
		log.Error().Err(err).Stringer("kind", kind).Msg("connection failed")
		return model.NewFailedAttempt(device.Name, index, kind, err, start)
	}
	defer sess.close()

	if err := sess.elevate(); err != nil {
		// Documented policy: an unprivileged dump beats no dump at all
		log.Warn().Err(err).Msg("privilege elevation failed, continuing unprivileged")
	}

	var contents []byte
	if params.ConfigFile != "" {
		contents, err = sess.fetchFile(params.ConfigFile)
	} else {
		contents, err = sess.run(params.Dialect.ShowConfig)
	}
	if err != nil {
		kind := failureKind(err)
		log.Error().Err(err).Stringer("kind", kind).Msg("configuration retrieval failed")
		return model.NewFailedAttempt(device.Name, index, kind, err, start)
	}

	path, err := e.store.Save(device.Name, time.Now(), contents)
	if err != nil {
		log.Error().Err(err).Msg("unable to persist backup")
		return model.NewFailedAttempt(device.Name, index, model.FailureInternal, err, start)
	}
	log.Info().Str("path", path).Msg("configuration backed up")
	return model.NewSuccessAttempt(device.Name, index, path, start)
}
