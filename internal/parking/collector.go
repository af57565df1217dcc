package parking

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// LotCollector exposes occupancy, revenue and outstanding fines on the
// Prometheus /metrics endpoint. Values are read from the reporting service
// on every scrape.
type LotCollector struct {
	reports *ReportingService

	occupied    *prometheus.Desc
	total       *prometheus.Desc
	revenue     *prometheus.Desc
	outstanding *prometheus.Desc
	outCount    *prometheus.Desc
}

func NewLotCollector(reports *ReportingService) *LotCollector {
	return &LotCollector{
		reports: reports,
		occupied: prometheus.NewDesc("parking_spots_occupied",
			"Occupied spots per floor.", []string{"floor"}, nil),
		total: prometheus.NewDesc("parking_spots",
			"Spots per floor.", []string{"floor"}, nil),
		revenue: prometheus.NewDesc("parking_revenue",
			"Collected revenue by kind.", []string{"kind"}, nil),
		outstanding: prometheus.NewDesc("parking_fines_outstanding_amount",
			"Sum of unpaid fines.", nil, nil),
		outCount: prometheus.NewDesc("parking_fines_outstanding",
			"Number of unpaid fines.", nil, nil),
	}
}

func (c *LotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.occupied
	ch <- c.total
	ch <- c.revenue
	ch <- c.outstanding
	ch <- c.outCount
}

func (c *LotCollector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.reports.Occupancy().Floors {
		floor := strconv.Itoa(f.Floor)
		ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(f.Occupied), floor)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(f.Total), floor)
	}

	rev := c.reports.Revenue()
	ch <- prometheus.MustNewConstMetric(c.revenue, prometheus.CounterValue, rev.Fees, "fee")
	ch <- prometheus.MustNewConstMetric(c.revenue, prometheus.CounterValue, rev.Fines, "fine")

	fines := c.reports.OutstandingFines()
	var amount float64
	for _, f := range fines {
		amount += f.Amount
	}
	ch <- prometheus.MustNewConstMetric(c.outstanding, prometheus.GaugeValue, amount)
	ch <- prometheus.MustNewConstMetric(c.outCount, prometheus.GaugeValue, float64(len(fines)))
}
