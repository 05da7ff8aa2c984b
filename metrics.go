package ngit

import (
	"github.com/JamesChan/ngit/plot"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports the serving and lane-allocation counters. The
// plot list is optional; pass nil when no graph is kept.
type Collector struct {
	srv  *Server
	list *plot.CommitList

	sessionsTotal   *prometheus.Desc
	linesAdvertised *prometheus.Desc

	lanePositions *prometheus.Desc
	lanesActive   *prometheus.Desc
	positionsFree *prometheus.Desc
}

func NewCollector(srv *Server, list *plot.CommitList) *Collector {
	return &Collector{
		srv:  srv,
		list: list,

		sessionsTotal: prometheus.NewDesc(
			"ngit_advert_sessions_total",
			"Total number of advertisement sessions served",
			nil, nil,
		),
		linesAdvertised: prometheus.NewDesc(
			"ngit_advert_lines_total",
			"Total number of advertisement lines written",
			nil, nil,
		),

		lanePositions: prometheus.NewDesc(
			"ngit_plot_positions_allocated",
			"Lane positions ever handed out by the allocator",
			nil, nil,
		),
		lanesActive: prometheus.NewDesc(
			"ngit_plot_lanes_active",
			"Lanes currently open in the plotted window",
			nil, nil,
		),
		positionsFree: prometheus.NewDesc(
			"ngit_plot_positions_free",
			"Closed lane positions waiting for reuse",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessionsTotal
	ch <- c.linesAdvertised

	if c.list != nil {
		ch <- c.lanePositions
		ch <- c.lanesActive
		ch <- c.positionsFree
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		c.sessionsTotal,
		prometheus.CounterValue,
		float64(c.srv.sessions.Load()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.linesAdvertised,
		prometheus.CounterValue,
		float64(c.srv.lines.Load()),
	)

	if c.list == nil {
		return
	}
	allocated, active, free := c.list.Stats()
	ch <- prometheus.MustNewConstMetric(
		c.lanePositions,
		prometheus.GaugeValue,
		float64(allocated),
	)
	ch <- prometheus.MustNewConstMetric(
		c.lanesActive,
		prometheus.GaugeValue,
		float64(active),
	)
	ch <- prometheus.MustNewConstMetric(
		c.positionsFree,
		prometheus.GaugeValue,
		float64(free),
	)
}
