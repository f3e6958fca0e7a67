package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRespectsNeedsOrder(t *testing.T) {
	var order []string

	reg := NewRegistry()
	reg.Register("record", func(ctx context.Context, with any) error {
		order = append(order, with.(string))
		return nil
	})

	jobs := []Job{
		{Key: "create-child-tables", Needs: []string{"create-super-table"}, Steps: []Step{
			{Name: "run", Uses: "record", With: "create-child-tables"},
		}},
		{Key: "create-database", Steps: []Step{
			{Name: "run", Uses: "record", With: "create-database"},
		}},
		{Key: "create-super-table", Needs: []string{"create-database"}, Steps: []Step{
			{Name: "run", Uses: "record", With: "create-super-table"},
		}},
		{Key: "insert-data", Needs: []string{"create-child-tables"}, Steps: []Step{
			{Name: "run", Uses: "record", With: "insert-data"},
		}},
	}

	err := Run(context.Background(), jobs, reg)
	require.NoError(t, err)
	require.Equal(t, []string{"create-database", "create-super-table", "create-child-tables", "insert-data"}, order)
}

func TestRunDetectsCycle(t *testing.T) {
	reg := NewRegistry()
	jobs := []Job{
		{Key: "a", Needs: []string{"b"}},
		{Key: "b", Needs: []string{"a"}},
	}

	err := Run(context.Background(), jobs, reg)
	require.ErrorIs(t, err, ErrCyclicDependency)
}

func TestRunRejectsUnknownNeed(t *testing.T) {
	reg := NewRegistry()
	jobs := []Job{
		{Key: "a", Needs: []string{"missing"}},
	}

	err := Run(context.Background(), jobs, reg)
	require.Error(t, err)
}

func TestRunRejectsUnknownAction(t *testing.T) {
	reg := NewRegistry()
	jobs := []Job{
		{Key: "a", Steps: []Step{{Name: "run", Uses: "nope"}}},
	}

	err := Run(context.Background(), jobs, reg)
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestRunStopsAtFirstStepError(t *testing.T) {
	var ran []string
	boom := require.New(t)

	reg := NewRegistry()
	reg.Register("ok", func(ctx context.Context, with any) error {
		ran = append(ran, with.(string))
		return nil
	})
	reg.Register("fail", func(ctx context.Context, with any) error {
		return context.DeadlineExceeded
	})

	jobs := []Job{
		{Key: "a", Steps: []Step{{Name: "s1", Uses: "ok", With: "a"}}},
		{Key: "b", Needs: []string{"a"}, Steps: []Step{{Name: "s1", Uses: "fail", With: "b"}}},
		{Key: "c", Needs: []string{"b"}, Steps: []Step{{Name: "s1", Uses: "ok", With: "c"}}},
	}

	err := Run(context.Background(), jobs, reg)
	boom.Error(err)
	boom.Equal([]string{"a"}, ran)
}
