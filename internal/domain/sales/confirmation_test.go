package sales

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

type fakeAdjuster struct {
	calls []Consumption
	fail  bool
}

func (a *fakeAdjuster) AdjustWithoutRecord(_ context.Context, materialID id.ID, change types.Quantity) error {
	if a.fail {
		return errors.New("storage down")
	}
	a.calls = append(a.calls, Consumption{MaterialID: materialID, QuantityChange: change})
	return nil
}

func TestConfirmAppliesEachConsumption(t *testing.T) {
	adjuster := &fakeAdjuster{}
	items := []Consumption{
		{MaterialID: id.New(), QuantityChange: types.NewQuantityFromFloat64(-2.5)},
		{MaterialID: id.New(), QuantityChange: types.NewQuantityFromInt(-1)},
	}

	require.NoError(t, Confirm(context.Background(), adjuster, items))
	assert.Equal(t, items, adjuster.calls)
}

func TestConfirmEmpty(t *testing.T) {
	adjuster := &fakeAdjuster{}
	require.NoError(t, Confirm(context.Background(), adjuster, nil))
	assert.Empty(t, adjuster.calls)
}

func TestConfirmStopsOnError(t *testing.T) {
	adjuster := &fakeAdjuster{fail: true}
	err := Confirm(context.Background(), adjuster, []Consumption{
		{MaterialID: id.New(), QuantityChange: types.NewQuantityFromInt(-1)},
	})
	assert.Error(t, err)
}
