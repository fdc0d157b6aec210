package reduction

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/backend/emulator"
	"github.com/agbru/fxtree/internal/backend/mocks"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/widths"
)

func pairGraph() *tree.Graph {
	return tree.Build(widths.MustNew(8, 2, widths.GrowthExact))
}

func pairInputs() []fixed.Complex {
	return []fixed.Complex{fixed.MustNew(8, 1, 0), fixed.MustNew(8, 0, 1)}
}

func TestAdapterWithEmulator(t *testing.T) {
	t.Parallel()
	a := NewAdapter(emulator.New(), pairGraph())
	res, err := a.Reduce(context.Background(), pairInputs())
	require.NoError(t, err)
	assert.Equal(t, "(0,1)", res.Value.String())
	assert.Equal(t, "FixedComplex(17)", res.Format.String())
	assert.Equal(t, "emulator", res.Backend)
	assert.Equal(t, "FPGA emulator", res.Device)
}

func TestAdapterRejectsBadInputsWithoutSubmitting(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().Name().Return("mock").AnyTimes()
	// No Submit expectation: a call would fail the test.

	a := NewAdapter(b, pairGraph())
	_, err := a.Reduce(context.Background(), pairInputs()[:1])
	assert.True(t, apperrors.IsPrecondition(err), "got %v", err)

	_, err = a.Reduce(context.Background(), []fixed.Complex{fixed.MustNew(16, 1000, 0), fixed.MustNew(8, 1, 1)})
	assert.True(t, apperrors.IsPrecondition(err), "got %v", err)
}

func TestAdapterPropagatesBackendErrorsUnchanged(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().Name().Return("mock").AnyTimes()

	unavailable := apperrors.NewBackendUnavailableError("mock", errors.New("no FPGA device found"))
	b.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, unavailable).Times(1)

	_, err := NewAdapter(b, pairGraph()).Reduce(context.Background(), pairInputs())
	assert.Equal(t, unavailable, err)
}

func TestAdapterValidatesBackendReply(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		outputs []fixed.Complex
	}{
		{"no output", nil},
		{"two outputs", []fixed.Complex{fixed.MustNew(17, 0, 1), fixed.MustNew(17, 0, 1)}},
		{"wrong width", []fixed.Complex{fixed.MustNew(8, 0, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			b := mocks.NewMockBackend(ctrl)
			b.EXPECT().Name().Return("mock").AnyTimes()
			b.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(tt.outputs, nil)

			_, err := NewAdapter(b, pairGraph()).Reduce(context.Background(), pairInputs())
			var backendErr apperrors.BackendError
			require.ErrorAs(t, err, &backendErr)
			assert.Equal(t, "mock", backendErr.Backend)
		})
	}
}

func TestAdapterReportsProgress(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().Name().Return("mock").AnyTimes()
	b.EXPECT().Device().Return(backend.Device{Name: "mock device"})
	b.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req backend.Request) ([]fixed.Complex, error) {
			require.NotNil(t, req.Progress)
			req.Progress(0.5)
			return []fixed.Complex{fixed.MustNew(17, 0, 1)}, nil
		})

	ch := make(chan ProgressUpdate, 4)
	subject := NewProgressSubject()
	subject.Register(NewChannelObserver(ch))

	res, err := NewAdapter(b, pairGraph()).ReduceWithObservers(context.Background(), subject, 3, pairInputs())
	require.NoError(t, err)
	assert.Equal(t, "mock device", res.Device)
	close(ch)

	var got []ProgressUpdate
	for u := range ch {
		got = append(got, u)
	}
	assert.Equal(t, []ProgressUpdate{{ReducerIndex: 3, Value: 0.5}, {ReducerIndex: 3, Value: 1}}, got)
}

func TestNewAdapterPanicsOnNil(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewAdapter(nil, pairGraph()) })
	assert.Panics(t, func() { NewAdapter(emulator.New(), nil) })
}
