package tenantstats

import (
	"context"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Stats holds point-in-time gauges describing the tenant store.
type Stats struct {
	registry      *prometheus.Registry
	speakers      prometheus.Gauge
	subscriptions *prometheus.GaugeVec
	overrides     *prometheus.GaugeVec
	flags         *prometheus.GaugeVec
	plans         *prometheus.GaugeVec
}

// NewStats registers the gauges on a dedicated registry used for pushing, and
// on extra when it is non-nil so they also appear on /metrics.
func NewStats(environment string, extra prometheus.Registerer) *Stats {
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"env": environment}

	s := &Stats{
		registry: prometheus.NewRegistry(),
		speakers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fanflet_speakers",
			Help:        "Speakers known to the tenant store.",
			ConstLabels: constLabels,
		}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fanflet_subscriptions",
			Help:        "Subscriptions by plan and status.",
			ConstLabels: constLabels,
		}, []string{"plan", "status"}),
		overrides: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fanflet_feature_overrides",
			Help:        "Per-speaker feature overrides by value.",
			ConstLabels: constLabels,
		}, []string{"enabled"}),
		flags: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fanflet_feature_flags",
			Help:        "Feature flags by global availability.",
			ConstLabels: constLabels,
		}, []string{"global"}),
		plans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fanflet_plans",
			Help:        "Plans by active state.",
			ConstLabels: constLabels,
		}, []string{"active"}),
	}

	collectors := []prometheus.Collector{s.speakers, s.subscriptions, s.overrides, s.flags, s.plans}
	s.registry.MustRegister(collectors...)
	if extra != nil {
		for _, c := range collectors {
			if err := extra.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	}
	return s
}

// Registry returns the registry holding only the tenant gauges.
func (s *Stats) Registry() *prometheus.Registry {
	return s.registry
}

type groupCount struct {
	Label  string
	Status string
	Count  int64
}

type boolCount struct {
	Value bool
	Count int64
}

// Refresh recomputes every gauge from the database. Gauges are left untouched
// when a query fails.
func (s *Stats) Refresh(ctx context.Context, db *gorm.DB) error {
	if s == nil || db == nil {
		return nil
	}
	conn := db.WithContext(ctx)

	var speakers int64
	if err := conn.Table("speakers").Count(&speakers).Error; err != nil {
		return err
	}

	var subs []groupCount
	if err := conn.Raw(`SELECT p.name AS label, s.status AS status, COUNT(1) AS count
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		GROUP BY p.name, s.status`).Scan(&subs).Error; err != nil {
		return err
	}

	var overrides []boolCount
	if err := conn.Raw(`SELECT enabled AS value, COUNT(1) AS count FROM feature_overrides GROUP BY enabled`).
		Scan(&overrides).Error; err != nil {
		return err
	}

	var flags []boolCount
	if err := conn.Raw(`SELECT is_global AS value, COUNT(1) AS count FROM feature_flags GROUP BY is_global`).
		Scan(&flags).Error; err != nil {
		return err
	}

	var plans []boolCount
	if err := conn.Raw(`SELECT active AS value, COUNT(1) AS count FROM plans GROUP BY active`).
		Scan(&plans).Error; err != nil {
		return err
	}

	s.speakers.Set(float64(speakers))

	s.subscriptions.Reset()
	for _, row := range subs {
		s.subscriptions.WithLabelValues(row.Label, row.Status).Set(float64(row.Count))
	}
	setBoolGauge(s.overrides, overrides)
	setBoolGauge(s.flags, flags)
	setBoolGauge(s.plans, plans)
	return nil
}

func setBoolGauge(vec *prometheus.GaugeVec, rows []boolCount) {
	vec.Reset()
	vec.WithLabelValues("true").Set(0)
	vec.WithLabelValues("false").Set(0)
	for _, row := range rows {
		vec.WithLabelValues(strconv.FormatBool(row.Value)).Add(float64(row.Count))
	}
}
