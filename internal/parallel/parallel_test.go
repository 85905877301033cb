package parallel

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	for _, workers := range []int{0, 1, 4, 100} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			got, err := Map(context.Background(), workers, items,
				func(_ context.Context, n int) (int, error) {
					return n * 2, nil
				})
			if err != nil {
				t.Fatalf("Map failed: %v", err)
			}
			for i, v := range got {
				if v != i*2 {
					t.Fatalf("got[%d] = %d, want %d", i, v, i*2)
				}
			}
		})
	}
}

func TestMap_EmptyInput(t *testing.T) {
	got, err := Map(context.Background(), 4, nil,
		func(_ context.Context, n int) (int, error) { return n, nil })
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestMap_ErrorReturnedAfterAllItems(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	items := []int{0, 1, 2, 3, 4, 5}
	got, err := Map(context.Background(), 2, items,
		func(_ context.Context, n int) (int, error) {
			calls.Add(1)
			if n == 2 {
				return 0, boom
			}
			return n + 10, nil
		})

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if int(calls.Load()) != len(items) {
		t.Errorf("ran %d items, want %d (independent items keep going)", calls.Load(), len(items))
	}
	if got[2] != 0 {
		t.Errorf("failed slot = %d, want zero value", got[2])
	}
	if got[3] != 13 {
		t.Errorf("successful slot = %d, want 13", got[3])
	}
}

func TestMap_SequentialFirstError(t *testing.T) {
	first := errors.New("first")
	_, err := Map(context.Background(), 1, []int{1, 2, 3},
		func(_ context.Context, n int) (int, error) {
			if n == 1 {
				return 0, first
			}
			if n == 2 {
				return 0, errors.New("second")
			}
			return n, nil
		})
	if !errors.Is(err, first) {
		t.Errorf("err = %v, want the first error", err)
	}
}

func TestMap_RespectsWorkerLimit(t *testing.T) {
	const workers = 3
	var active, peak atomic.Int32

	items := make([]int, 40)
	_, err := Map(context.Background(), workers, items,
		func(_ context.Context, _ int) (int, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			active.Add(-1)
			return 0, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeded limit %d", peak.Load(), workers)
	}
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"even split", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"short tail", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"oversized batch", []int{1, 2}, 10, [][]int{{1, 2}}},
		{"size zero", []int{1, 2, 3}, 0, [][]int{{1, 2, 3}}},
		{"empty", nil, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Batch(tt.items, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Batch(%v, %d) = %v, want %v", tt.items, tt.size, got, tt.want)
			}
		})
	}
}
