// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package store

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/placemark-app/placemark/internal/logging"
)

// badgerLogger routes Badger's internal logging through zerolog so the
// store does not write unstructured lines to stderr.
type badgerLogger struct {
	logger zerolog.Logger
}

func newBadgerLogger() *badgerLogger {
	return &badgerLogger{
		logger: logging.With().Str("component", "badger").Logger(),
	}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msg(format1(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msg(format1(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	// Badger is chatty at info level; keep its operational notes at debug.
	l.logger.Debug().Msg(format1(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msg(format1(format, args...))
}

// format1 renders Badger's printf-style message as a single trimmed line.
func format1(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
