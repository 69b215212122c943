// Package metrics publishes checkout outcome counters to CloudWatch.
// Emission is best-effort: a metrics failure must never fail a checkout.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/bazaarhq/storefront-orders/internal/aws"
)

// Checkout outcome dimension values.
const (
	OutcomeCommitted       = "committed"
	OutcomeDuplicate       = "duplicate"
	OutcomeCartConflict    = "cart_conflict"
	OutcomeValidationError = "validation_error"
	OutcomeIntegrityError  = "integrity_error"
	OutcomeCommitFailed    = "commit_failed"
	OutcomeCartClearFailed = "cart_clear_failed"
)

// Emitter publishes counters under a fixed namespace.
type Emitter struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewEmitter creates an Emitter. A nil client disables emission, which keeps
// local runs free of CloudWatch calls.
func NewEmitter(client aws.CloudWatchAPI, namespace string) *Emitter {
	return &Emitter{client: client, namespace: namespace, nowFunc: time.Now}
}

// CountCheckout records one checkout with the given outcome. Errors are
// logged and swallowed.
func (e *Emitter) CountCheckout(ctx context.Context, outcome string) {
	e.count(ctx, "Checkout", "Outcome", outcome)
}

// CountStatusTransition records one order status transition.
func (e *Emitter) CountStatusTransition(ctx context.Context, target string) {
	e.count(ctx, "OrderStatusTransition", "Target", target)
}

// CountCartReconciliation records one worker pass that removed stale cart
// entries left behind by a partial checkout.
func (e *Emitter) CountCartReconciliation(ctx context.Context, result string) {
	e.count(ctx, "CartReconciliation", "Result", result)
}

func (e *Emitter) count(ctx context.Context, metric, dimension, value string) {
	if e == nil || e.client == nil {
		return
	}
	now := e.nowFunc()
	one := 1.0
	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &e.namespace,
		MetricData: []cwtypes.MetricDatum{{
			MetricName: &metric,
			Timestamp:  &now,
			Value:      &one,
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{{Name: &dimension, Value: &value}},
		}},
	})
	if err != nil {
		slog.WarnContext(ctx, "metric emission failed", "metric", metric, "error", err)
	}
}
