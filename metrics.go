/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package es4forensics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the collectors of one ingestion run. A nil *Metrics records
// nothing.
type Metrics struct {
	DocumentsEnqueued prometheus.Counter
	DocumentsCreated  prometheus.Counter
	Duplicates        prometheus.Counter
	ItemFailures      *prometheus.CounterVec
	Flushes           *prometheus.CounterVec
	FlushDuration     prometheus.Histogram
	BatchSize         prometheus.Histogram
	RecordsSkipped    prometheus.Counter
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "es4forensics_documents_enqueued_total",
			Help: "Total number of documents added to the index buffer",
		}),
		DocumentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "es4forensics_documents_created_total",
			Help: "Total number of documents stored by the index",
		}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "es4forensics_documents_duplicate_total",
			Help: "Total number of documents whose id was already stored",
		}),
		ItemFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "es4forensics_documents_failed_total",
			Help: "Total number of documents rejected by the index",
		}, []string{"error_type"}),
		Flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "es4forensics_flushes_total",
			Help: "Total number of batch writes",
		}, []string{"status"}),
		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "es4forensics_flush_duration_seconds",
			Help:    "Duration of batch writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "es4forensics_batch_size",
			Help:    "Number of documents per batch write",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "es4forensics_records_skipped_total",
			Help: "Total number of evidence records skipped in lenient mode",
		}),
	}
}

func (m *Metrics) enqueued() {
	if m == nil {
		return
	}
	m.DocumentsEnqueued.Inc()
}

func (m *Metrics) flushed(size int, took time.Duration, ack *BatchAck, err error) {
	if m == nil {
		return
	}
	m.FlushDuration.Observe(took.Seconds())
	m.BatchSize.Observe(float64(size))
	if err != nil {
		m.Flushes.WithLabelValues("error").Inc()
		return
	}
	m.Flushes.WithLabelValues("ok").Inc()
	m.DocumentsCreated.Add(float64(ack.Created))
	m.Duplicates.Add(float64(ack.Duplicates))
	for _, failure := range ack.Failures {
		m.ItemFailures.WithLabelValues(failure.Type).Inc()
	}
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.RecordsSkipped.Inc()
}
