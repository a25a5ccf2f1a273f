package log

import (
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	defaultService = "staticcms"
	flushTimeout   = 2 * time.Second
	filtered       = "[Filtered]"
)

// SentrySettings represents the configuration required to bootstrap Sentry.
type SentrySettings struct {
	DSN         string
	Environment string
	Release     string
	Service     string
	Debug       bool
	// ScrubCookies names cookies whose values never reach Sentry.
	ScrubCookies []string
}

// reportedLevels are forwarded to Sentry through the logrus hook.
var reportedLevels = []logrus.Level{
	logrus.ErrorLevel,
	logrus.FatalLevel,
	logrus.PanicLevel,
}

// InitSentry builds a Sentry hub, forwards error logs through a logrus hook
// and scrubs admin sessions from reported requests. Without a DSN it returns
// a nil hub and a no-op flush.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}
	if logger == nil {
		return nil, nil, eris.New("logger is required")
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		Release:          settings.Release,
		Debug:            settings.Debug,
		AttachStacktrace: true,
		BeforeSend:       NewEventScrubber(settings.ScrubCookies...),
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating sentry client")
	}

	service := settings.Service
	if service == "" {
		service = defaultService
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("service", service)
	})

	logger.AddHook(sentrylogrus.NewLogHookFromClient(reportedLevels, client))
	logger.WithFields(logrus.Fields{"component": "sentry", "service": service}).Debug("sentry enabled")

	return hub, func() { hub.Flush(flushTimeout) }, nil
}

// NewEventScrubber returns a BeforeSend hook that replaces the values of the
// named cookies in the request attached to an event.
func NewEventScrubber(cookies ...string) func(*sentry.Event, *sentry.EventHint) *sentry.Event {
	names := make(map[string]struct{}, len(cookies))
	for _, name := range cookies {
		names[name] = struct{}{}
	}

	return func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		if event == nil || event.Request == nil || len(names) == 0 {
			return event
		}

		req := event.Request
		if req.Cookies != "" {
			req.Cookies = scrubCookies(req.Cookies, names)
		}
		for header, value := range req.Headers {
			if strings.EqualFold(header, "Cookie") {
				req.Headers[header] = scrubCookies(value, names)
			}
		}
		return event
	}
}

func scrubCookies(header string, names map[string]struct{}) string {
	parts := strings.Split(header, ";")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if name, _, found := strings.Cut(part, "="); found {
			if _, scrub := names[name]; scrub {
				part = name + "=" + filtered
			}
		}
		parts[i] = part
	}
	return strings.Join(parts, "; ")
}
