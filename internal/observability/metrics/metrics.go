package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes contract-level instruments.
type Metrics struct {
	airlinesRegistered metric.Int64Counter
	votesCast          metric.Int64Counter
	fundings           metric.Int64Counter
	fundedAmount       metric.Int64Counter
	policiesBought     metric.Int64Counter
	premiumAmount      metric.Int64Counter
	creditsIssued      metric.Int64Counter
	payouts            metric.Int64Counter
	payoutAmount       metric.Int64Counter
	rejections         metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the contract metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "flightsurety"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&m.airlinesRegistered, "flightsurety_airlines_registered_total"},
		{&m.votesCast, "flightsurety_registration_votes_total"},
		{&m.fundings, "flightsurety_airline_fundings_total"},
		{&m.fundedAmount, "flightsurety_airline_funded_gwei_total"},
		{&m.policiesBought, "flightsurety_insurance_bought_total"},
		{&m.premiumAmount, "flightsurety_insurance_premium_gwei_total"},
		{&m.creditsIssued, "flightsurety_credits_issued_total"},
		{&m.payouts, "flightsurety_payouts_total"},
		{&m.payoutAmount, "flightsurety_payout_gwei_total"},
		{&m.rejections, "flightsurety_operations_rejected_total"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// RecordAirlineRegistered counts a committed registration by the path that led to it.
func (m *Metrics) RecordAirlineRegistered(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.airlinesRegistered.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("path", path))...))
}

// RecordVote counts a governance vote.
func (m *Metrics) RecordVote(ctx context.Context) {
	if m == nil {
		return
	}
	m.votesCast.Add(ctx, 1)
}

// RecordFunding counts an airline funding and its amount.
func (m *Metrics) RecordFunding(ctx context.Context, amount int64) {
	if m == nil {
		return
	}
	m.fundings.Add(ctx, 1)
	m.fundedAmount.Add(ctx, amount)
}

// RecordInsuranceBought counts a purchase and its premium.
func (m *Metrics) RecordInsuranceBought(ctx context.Context, premium int64) {
	if m == nil {
		return
	}
	m.policiesBought.Add(ctx, 1)
	m.premiumAmount.Add(ctx, premium)
}

// RecordCreditIssued counts credits issued to insurees.
func (m *Metrics) RecordCreditIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.creditsIssued.Add(ctx, 1)
}

// RecordPayout counts a withdrawal and its amount.
func (m *Metrics) RecordPayout(ctx context.Context, amount int64) {
	if m == nil {
		return
	}
	m.payouts.Add(ctx, 1)
	m.payoutAmount.Add(ctx, amount)
}

// RecordRejection counts an aborted operation by its reason.
func (m *Metrics) RecordRejection(ctx context.Context, operation, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":   {},
	"reason":      {},
	"path":        {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Account addresses and flight keys never become labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
