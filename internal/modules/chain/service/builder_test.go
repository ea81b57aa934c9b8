package service

import (
	"context"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevinwong150/journalex-sub001/internal/models"
)

type fakeStore struct {
	execs []models.Execution
	calls int
}

func (f *fakeStore) FindBySymbolAndTimeRange(_ context.Context, symbol string, startInclusive, endExclusive time.Time) ([]models.Execution, error) {
	f.calls++
	var out []models.Execution
	for _, e := range f.execs {
		if e.Symbol != symbol {
			continue
		}
		if e.Timestamp.Before(startInclusive) || !e.Timestamp.Before(endExclusive) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var nextID int64

func exec(symbol, ts string, qty float64, price float64) models.Execution {
	t, ok := models.ParseTime(ts)
	if !ok {
		panic("bad test timestamp: " + ts)
	}
	nextID++
	q := decimal.NewFromFloat(qty)
	px := decimal.NewFromFloat(price)
	return models.Execution{
		ID:        nextID,
		Symbol:    symbol,
		Side:      models.SideOf(q),
		Timestamp: t,
		Quantity:  q,
		Price:     &px,
	}
}

func item(ts, symbol, qty string) models.TradeItem {
	return models.TradeItem{Datetime: ts, Ticker: symbol, Quantity: qty}
}

func actions(chain models.ActionChain) []string {
	out := make([]string, 0, len(chain))
	for i := 1; i <= len(chain); i++ {
		out = append(out, chain[strconv.Itoa(i)].Action)
	}
	return out
}

func quantities(chain models.ActionChain) []float64 {
	out := make([]float64, 0, len(chain))
	for i := 1; i <= len(chain); i++ {
		out = append(out, chain[strconv.Itoa(i)].Quantity)
	}
	return out
}

func TestBuildActionChain_OpenAddClose(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-10 10:25:00", 30, 150),
		exec("AAPL", "2025-03-10 10:28:00", 20, 151),
		exec("AAPL", "2025-03-10 14:30:00", -50, 155),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "-50"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}
	if len(chain) != 3 {
		t.Fatalf("len(chain) = %d, want 3", len(chain))
	}

	wantActions := []string{models.ActionOpenPosition, models.ActionAddSize, models.ActionClosePosition}
	if got := actions(chain); !reflect.DeepEqual(got, wantActions) {
		t.Errorf("actions = %v, want %v", got, wantActions)
	}
	wantQty := []float64{30, 20, -50}
	if got := quantities(chain); !reflect.DeepEqual(got, wantQty) {
		t.Errorf("quantities = %v, want %v", got, wantQty)
	}
}

func TestBuildActionChain_PartialCloseAndOvershoot(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("TSLA", "2025-03-10 10:00:00", 100, 200),
		exec("TSLA", "2025-03-10 10:30:00", 50, 201),
		exec("TSLA", "2025-03-10 11:00:00", -30, 205),
		exec("TSLA", "2025-03-10 14:00:00", -120, 210),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:00:00", "TSLA", "-120"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}
	if len(chain) != 4 {
		t.Fatalf("len(chain) = %d, want 4", len(chain))
	}

	wantActions := []string{
		models.ActionOpenPosition,
		models.ActionAddSize,
		models.ActionPartialClose,
		models.ActionClosePosition,
	}
	if got := actions(chain); !reflect.DeepEqual(got, wantActions) {
		t.Errorf("actions = %v, want %v", got, wantActions)
	}

	// Openers supplied 150 against a target of 120: overshoot tolerated.
	var opened float64
	for i := 1; i <= len(chain); i++ {
		e := chain[strconv.Itoa(i)]
		if e.Action == models.ActionOpenPosition || e.Action == models.ActionAddSize {
			if e.Quantity < 0 {
				opened -= e.Quantity
			} else {
				opened += e.Quantity
			}
		}
	}
	if opened < 120 {
		t.Errorf("opened quantity = %v, want >= 120", opened)
	}
}

func TestBuildActionChain_ExactFillStopsWalk(t *testing.T) {
	// The 09:00 buy must stay out of the chain: the 10:00 buy already
	// covers the close exactly.
	store := &fakeStore{execs: []models.Execution{
		exec("NVDA", "2025-03-10 09:00:00", 10, 90),
		exec("NVDA", "2025-03-10 10:00:00", 25, 95),
		exec("NVDA", "2025-03-10 12:00:00", -25, 99),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 12:00:00", "NVDA", "-25"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}
	if len(chain) != 2 {
		t.Fatalf("len(chain) = %d, want 2", len(chain))
	}
	if got := quantities(chain); !reflect.DeepEqual(got, []float64{25, -25}) {
		t.Errorf("quantities = %v, want [25 -25]", got)
	}
}

func TestBuildActionChain_ShortPosition(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("AMD", "2025-03-10 09:40:00", -40, 120),
		exec("AMD", "2025-03-10 09:55:00", -10, 121),
		exec("AMD", "2025-03-10 11:10:00", 50, 118),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 11:10:00", "AMD", "50"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}

	wantActions := []string{models.ActionOpenPosition, models.ActionAddSize, models.ActionClosePosition}
	if got := actions(chain); !reflect.DeepEqual(got, wantActions) {
		t.Errorf("actions = %v, want %v", got, wantActions)
	}
	if got := quantities(chain); !reflect.DeepEqual(got, []float64{-40, -10, 50}) {
		t.Errorf("quantities = %v, want [-40 -10 50]", got)
	}
}

func TestBuildActionChain_Deterministic(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("MSFT", "2025-03-10 10:00:00", 100, 400),
		exec("MSFT", "2025-03-10 10:30:00", 50, 401),
		exec("MSFT", "2025-03-10 11:00:00", -30, 405),
		exec("MSFT", "2025-03-10 14:00:00", -120, 410),
	}}
	b := NewBuilder(store)
	it := item("2025-03-10 14:00:00", "MSFT", "-120")

	first := b.BuildActionChain(context.Background(), it, nil)
	second := b.BuildActionChain(context.Background(), it, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("chains differ between runs:\n%v\n%v", first, second)
	}
}

func TestBuildActionChain_StructuralInvariant(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("META", "2025-03-10 10:00:00", 60, 500),
		exec("META", "2025-03-10 13:00:00", -60, 510),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 13:00:00", "META", "-60"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}
	if len(chain) < 2 {
		t.Fatalf("len(chain) = %d, want >= 2", len(chain))
	}
	if got := chain["1"].Action; got != models.ActionOpenPosition {
		t.Errorf("first action = %q, want %q", got, models.ActionOpenPosition)
	}
	if got := chain[strconv.Itoa(len(chain))].Action; got != models.ActionClosePosition {
		t.Errorf("last action = %q, want %q", got, models.ActionClosePosition)
	}
}

func TestBuildActionChain_DayBoundary(t *testing.T) {
	// Opener on the prior calendar day: reconstruction never crosses
	// midnight, so there is no chain.
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-09 10:25:00", 30, 150),
		exec("AAPL", "2025-03-10 09:00:00", -30, 152),
	}}
	b := NewBuilder(store)

	if chain := b.BuildActionChain(context.Background(), item("2025-03-10 09:00:00", "AAPL", "-30"), nil); chain != nil {
		t.Errorf("BuildActionChain() = %v, want nil", chain)
	}
}

func TestBuildActionChain_ZeroQuantitySkipsStore(t *testing.T) {
	store := &fakeStore{}
	b := NewBuilder(store)

	if chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "0"), nil); chain != nil {
		t.Errorf("BuildActionChain() = %v, want nil", chain)
	}
	if store.calls != 0 {
		t.Errorf("store queried %d times, want 0", store.calls)
	}
}

func TestBuildActionChain_CloseNotInData(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-10 10:25:00", 50, 150),
	}}
	b := NewBuilder(store)

	if chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "-50"), nil); chain != nil {
		t.Errorf("BuildActionChain() = %v, want nil", chain)
	}
}

func TestBuildActionChain_AccumulationExhausted(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-10 10:25:00", 20, 150),
		exec("AAPL", "2025-03-10 14:30:00", -50, 155),
	}}
	b := NewBuilder(store)

	if chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "-50"), nil); chain != nil {
		t.Errorf("BuildActionChain() = %v, want nil", chain)
	}
}

func TestBuildActionChain_SubSecondJitter(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-10 10:25:00.123456", 50, 150),
		exec("AAPL", "2025-03-10 14:30:00.250000", -50, 155),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "-50"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain despite sub-second jitter")
	}
	if len(chain) != 2 {
		t.Errorf("len(chain) = %d, want 2", len(chain))
	}
}

func TestBuildActionChain_SameSecondSiblings(t *testing.T) {
	// An opener and a trim landing in the same wall-clock second must
	// still come out in chronological order, opener first.
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-10 10:25:00.100000", 30, 150),
		exec("AAPL", "2025-03-10 10:25:00.900000", -10, 151),
		exec("AAPL", "2025-03-10 14:30:00", -30, 155),
	}}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "-30"), nil)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}
	if len(chain) != 3 {
		t.Fatalf("len(chain) = %d, want 3", len(chain))
	}

	wantActions := []string{models.ActionOpenPosition, models.ActionPartialClose, models.ActionClosePosition}
	if got := actions(chain); !reflect.DeepEqual(got, wantActions) {
		t.Errorf("actions = %v, want %v", got, wantActions)
	}
	wantQty := []float64{30, -10, -30}
	if got := quantities(chain); !reflect.DeepEqual(got, wantQty) {
		t.Errorf("quantities = %v, want %v", got, wantQty)
	}
}

func TestBuildActionChain_ExtractionFailures(t *testing.T) {
	store := &fakeStore{execs: []models.Execution{
		exec("AAPL", "2025-03-10 14:30:00", -50, 155),
	}}
	b := NewBuilder(store)

	tests := []struct {
		name string
		item models.TradeItem
	}{
		{"empty ticker", item("2025-03-10 14:30:00", "", "-50")},
		{"bad datetime", item("not-a-time", "AAPL", "-50")},
		{"missing datetime", item("", "AAPL", "-50")},
		{"bad quantity", item("2025-03-10 14:30:00", "AAPL", "fifty")},
		{"empty quantity", item("2025-03-10 14:30:00", "AAPL", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if chain := b.BuildActionChain(context.Background(), tt.item, nil); chain != nil {
				t.Errorf("BuildActionChain() = %v, want nil", chain)
			}
		})
	}
}

func TestBuildActionChain_PrefetchedCandidatesFiltered(t *testing.T) {
	// A prefetched whole-day slice may contain other symbols and rows
	// after the close; the builder must cut its own window.
	candidates := []models.Execution{
		exec("AAPL", "2025-03-10 10:25:00", 50, 150),
		exec("TSLA", "2025-03-10 10:26:00", 10, 200),
		exec("AAPL", "2025-03-10 14:30:00", -50, 155),
		exec("AAPL", "2025-03-10 15:00:00", 20, 156),
	}
	store := &fakeStore{}
	b := NewBuilder(store)

	chain := b.BuildActionChain(context.Background(), item("2025-03-10 14:30:00", "AAPL", "-50"), candidates)
	if chain == nil {
		t.Fatal("BuildActionChain() = nil, want chain")
	}
	if len(chain) != 2 {
		t.Errorf("len(chain) = %d, want 2", len(chain))
	}
	if store.calls != 0 {
		t.Errorf("store queried %d times with prefetched candidates, want 0", store.calls)
	}
}
