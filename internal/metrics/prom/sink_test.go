package prom

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_golang/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/wealthlens/ragpipe/internal/domain"
)

func TestSinkRecordIncrementsRequestsAndObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSink(reg)

	err := s.Record(context.Background(), domain.MetricsRecord{
		Domain: "wealth", Intent: domain.IntentPortfolio, Quality: domain.QualityGood,
		Endpoint: domain.EndpointMain, Timings: domain.Timings{Total: 250 * time.Millisecond},
	})
	require.NoError(t, err)

	mf, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, fam := range mf {
		if fam.GetName() == "ragpipe_requests_total" {
			found = true
			require.Len(t, fam.Metric, 1)
			require.Equal(t, float64(1), fam.Metric[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "expected ragpipe_requests_total to be registered")
}

func TestSinkRecordIncrementsErrorsOnlyOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSink(reg)

	require.NoError(t, s.Record(context.Background(), domain.MetricsRecord{Domain: "wealth"}))
	require.NoError(t, s.Record(context.Background(), domain.MetricsRecord{Domain: "wealth", Error: "boom"}))

	mf, err := reg.Gather()
	require.NoError(t, err)
	var errCounter *dto.Metric
	for _, fam := range mf {
		if fam.GetName() == "ragpipe_errors_total" {
			errCounter = fam.Metric[0]
		}
	}
	require.NotNil(t, errCounter)
	require.Equal(t, float64(1), errCounter.GetCounter().GetValue())
}
