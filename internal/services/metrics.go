package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quotesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotebook_quotes_created_total",
		Help: "Number of quotes persisted",
	})
	ambiguousResolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotebook_ambiguous_resolutions_total",
		Help: "Number of submissions staged because the quotee matched several users",
	})
	notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotebook_notifications_sent_total",
		Help: "Number of notification mails delivered",
	})
	notificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotebook_notifications_failed_total",
		Help: "Number of notification mails that could not be delivered",
	})
)
