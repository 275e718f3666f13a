package profile

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/hupe1980/hypervec/codebook"
	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/kv"
)

func newAccumulator(t *testing.T, opts ...Option) *Accumulator {
	t.Helper()
	a, err := New(Codebooks{}, append([]Option{WithDimensions(256, 1024)}, opts...)...)
	require.NoError(t, err)
	return a
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(Codebooks{})
	require.NoError(t, err)
	assert.Equal(t, []int{10000, 100000}, a.Dimensions())

	for _, d := range a.Dimensions() {
		v, err := a.Vector(d)
		require.NoError(t, err)
		assert.Len(t, v, d)
		assert.Equal(t, hdc.New(d), v)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	for name, opt := range map[string]Option{
		"NoDims":    WithDimensions(),
		"Negative":  WithDimensions(-1),
		"Duplicate": WithDimensions(8, 8),
		"Modulus":   WithFactModulus(7),
		"Scale":     WithQuantizeScale(0),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(Codebooks{}, opt)
			assert.Error(t, err)
		})
	}
}

func TestAddInteraction(t *testing.T) {
	books := Codebooks{Bipolar: codebook.NewBipolar()}
	a, err := New(books, WithDimensions(256, 1024))
	require.NoError(t, err)

	require.NoError(t, a.AddInteraction("view", "sku-1"))
	assert.Equal(t, uint64(1), a.Interactions())

	for _, d := range []int{256, 1024} {
		want, err := hdc.Bind(books.Bipolar.Get("view", d), books.Bipolar.Get("sku-1", d))
		require.NoError(t, err)
		got, err := a.Vector(d)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Magnitude grows without decay.
	require.NoError(t, a.AddInteraction("view", "sku-1"))
	got, _ := a.Vector(256)
	for _, x := range got {
		assert.Contains(t, []float32{-2, 2}, x)
	}
}

func TestAddInteraction_SimilarHistoriesAreClose(t *testing.T) {
	a := newAccumulator(t)
	b := newAccumulator(t)
	c := newAccumulator(t)

	for _, item := range []string{"shoes", "socks", "laces"} {
		require.NoError(t, a.AddInteraction("buy", item))
		require.NoError(t, b.AddInteraction("buy", item))
	}
	require.NoError(t, b.AddInteraction("buy", "hat"))
	for _, item := range []string{"tea", "cups", "kettle"} {
		require.NoError(t, c.AddInteraction("buy", item))
	}

	va, _ := a.Vector(1024)
	vb, _ := b.Vector(1024)
	vc, _ := c.Vector(1024)
	ab, err := hdc.Similarity(va, vb)
	require.NoError(t, err)
	ac, err := hdc.Similarity(va, vc)
	require.NoError(t, err)
	assert.Greater(t, ab, ac)
	assert.Greater(t, ab, float32(0.7))
}

func TestAddStructuredFact(t *testing.T) {
	a := newAccumulator(t, WithFactModulus(hdc.Z32))

	roles := map[string]string{"color": "red", "brand": "acme"}
	require.NoError(t, a.AddStructuredFact(roles, 256))

	// Sorted roles: brand (shift 0), color (shift 1).
	book, err := codebook.NewCyclic(hdc.Z32)
	require.NoError(t, err)
	want, err := hdc.BindCyclic(book.Get("acme", 256), book.Get("red", 256).Permute(1))
	require.NoError(t, err)

	got, err := a.Vector(256)
	require.NoError(t, err)
	assert.Equal(t, want.Float(), got)

	// The other profile is untouched.
	other, _ := a.Vector(1024)
	assert.Equal(t, hdc.New(1024), other)
}

func TestFact_OrderMatters(t *testing.T) {
	a := newAccumulator(t)

	f1, err := a.Fact(map[string]string{"a": "x", "b": "y"}, 256)
	require.NoError(t, err)
	f2, err := a.Fact(map[string]string{"a": "y", "b": "x"}, 256)
	require.NoError(t, err)
	assert.False(t, f1.Equal(f2))

	for i := 0; i < f1.Dims(); i++ {
		assert.Less(t, f1.At(i), uint16(hdc.Z512))
	}
}

func TestAddStructuredFact_Errors(t *testing.T) {
	a := newAccumulator(t)
	assert.ErrorIs(t, a.AddStructuredFact(nil, 256), ErrEmptyFact)

	var ud *ErrUnknownDimension
	assert.ErrorAs(t, a.AddStructuredFact(map[string]string{"r": "k"}, 5), &ud)
	assert.Zero(t, a.Interactions())
}

func TestAddRealVector(t *testing.T) {
	a := newAccumulator(t)

	v := make(hdc.Vector, 256)
	v[3] = 0.5
	require.NoError(t, a.AddRealVector(v))
	require.NoError(t, a.AddRealVector(v))

	got, _ := a.Vector(256)
	assert.Equal(t, float32(1), got[3])

	var dm *hdc.ErrDimensionMismatch
	assert.ErrorAs(t, a.AddRealVector(make(hdc.Vector, 7)), &dm)
	assert.Equal(t, uint64(2), a.Interactions())
}

func TestExportQuantized(t *testing.T) {
	a := newAccumulator(t, WithDimensions(4))

	q, err := a.ExportQuantized(4)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 0, 0, 0}, q)

	require.NoError(t, a.AddRealVector(hdc.Vector{3, -4, 0, 0}))
	q, err = a.ExportQuantized(4)
	require.NoError(t, err)
	require.Len(t, q, 4)
	// 0.6 * 32767 = 19660.2, -0.8 * 32767 = -26213.6
	assert.Equal(t, []int16{19660, -26214, 0, 0}, q)

	b, err := a.EncodeQuantized(4)
	require.NoError(t, err)
	require.Len(t, b, 8)
	assert.Equal(t, int16(-26214), int16(binary.LittleEndian.Uint16(b[2:])))

	_, err = a.ExportQuantized(5)
	var ud *ErrUnknownDimension
	assert.ErrorAs(t, err, &ud)
}

func TestExportQuantized_FullScale(t *testing.T) {
	a := newAccumulator(t, WithDimensions(2))
	require.NoError(t, a.AddRealVector(hdc.Vector{-7, 0}))

	q, err := a.ExportQuantized(2)
	require.NoError(t, err)
	assert.Equal(t, []int16{-math.MaxInt16, 0}, q)
}

func TestExportHalf(t *testing.T) {
	a := newAccumulator(t, WithDimensions(2))
	require.NoError(t, a.AddRealVector(hdc.Vector{0, 2}))

	h, err := a.ExportHalf(2)
	require.NoError(t, err)
	assert.Equal(t, float32(0), float16.Frombits(h[0]).Float32())
	assert.Equal(t, float32(1), float16.Frombits(h[1]).Float32())
}

func TestSync(t *testing.T) {
	a := newAccumulator(t)
	require.NoError(t, a.AddInteraction("k", "v"))

	p1 := make(hdc.Vector, 256)
	p2 := make(hdc.Vector, 1024)
	p1[0], p2[0] = 1, 2
	require.NoError(t, a.Sync(p1, p2))
	p1[0] = 9 // Sync copies

	got, _ := a.Vector(256)
	assert.Equal(t, float32(1), got[0])

	before, _ := a.Vector(1024)
	assert.Error(t, a.Sync(p1))
	var dm *hdc.ErrDimensionMismatch
	assert.ErrorAs(t, a.Sync(p1, make(hdc.Vector, 3)), &dm)
	after, _ := a.Vector(1024)
	assert.Equal(t, before, after)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	a := newAccumulator(t)
	require.NoError(t, a.AddInteraction("view", "x"))
	require.NoError(t, a.AddStructuredFact(map[string]string{"r": "k"}, 1024))
	require.NoError(t, a.Save(ctx, store))

	_, err := store.Get(ctx, "profile/256")
	require.NoError(t, err)

	b := newAccumulator(t)
	require.NoError(t, b.Load(ctx, store))
	assert.Equal(t, a.Interactions(), b.Interactions())
	for _, d := range a.Dimensions() {
		va, _ := a.Vector(d)
		vb, _ := b.Vector(d)
		assert.Equal(t, va, vb)
	}
}

func TestLoad_MissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	a := newAccumulator(t)
	require.NoError(t, a.AddInteraction("view", "x"))
	require.NoError(t, a.Load(ctx, store))
	assert.Equal(t, uint64(1), a.Interactions())

	frame := MarshalFrame(make(hdc.Vector, 256), 3)
	frame[20] ^= 0xFF
	require.NoError(t, store.Set(ctx, Key(256), frame))
	assert.ErrorIs(t, a.Load(ctx, store), ErrCorrupt)

	require.NoError(t, store.Set(ctx, Key(256), MarshalFrame(make(hdc.Vector, 8), 3)))
	var dm *hdc.ErrDimensionMismatch
	assert.ErrorAs(t, a.Load(ctx, store), &dm)
	assert.Equal(t, uint64(1), a.Interactions())
}

func TestFrame_RoundTrip(t *testing.T) {
	v := hdc.Vector{1.5, -2, float32(math.Inf(1)), 0}
	got, events, err := UnmarshalFrame(MarshalFrame(v, 42))
	require.NoError(t, err)
	assert.Equal(t, v, got)
	assert.Equal(t, uint64(42), events)

	_, _, err = UnmarshalFrame([]byte("HVP0"))
	assert.ErrorIs(t, err, ErrCorrupt)
}
