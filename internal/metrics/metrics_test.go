package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, m.err
}

func TestCountCheckout(t *testing.T) {
	mock := &mockCloudWatch{}
	e := NewEmitter(mock, "StorefrontOrders")

	e.CountCheckout(context.Background(), OutcomeCommitted)

	require.Len(t, mock.inputs, 1)
	in := mock.inputs[0]
	assert.Equal(t, "StorefrontOrders", *in.Namespace)
	require.Len(t, in.MetricData, 1)
	datum := in.MetricData[0]
	assert.Equal(t, "Checkout", *datum.MetricName)
	assert.Equal(t, 1.0, *datum.Value)
	require.Len(t, datum.Dimensions, 1)
	assert.Equal(t, "Outcome", *datum.Dimensions[0].Name)
	assert.Equal(t, OutcomeCommitted, *datum.Dimensions[0].Value)
}

func TestEmitterIsBestEffort(t *testing.T) {
	mock := &mockCloudWatch{err: errors.New("throttled")}
	e := NewEmitter(mock, "StorefrontOrders")

	// a CloudWatch failure must not propagate
	e.CountStatusTransition(context.Background(), "shipped")
	assert.Len(t, mock.inputs, 1)
}

func TestEmitterNilSafety(t *testing.T) {
	var e *Emitter
	e.CountCheckout(context.Background(), OutcomeCommitted)

	disabled := NewEmitter(nil, "StorefrontOrders")
	disabled.CountCartReconciliation(context.Background(), "swept")
}
