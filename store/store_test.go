package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/cgmflow/store"
)

type StoreSuite struct {
	suite.Suite
	ctx context.Context
	st  *store.Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	st, err := store.Open(filepath.Join(s.T().TempDir(), "out", "halos.sqlite"))
	s.Require().NoError(err)
	s.st = st
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.st.Close())
}

func sampleNode() *store.Node {
	n := store.NewNode().
		SetAttr("mdot_MsunperYr", 1.25).
		SetAttr("failed", false).
		SetAttr("ion", "ne8").
		SetAttr("iterations", 7).
		SetDataset("R_kpc", []float64{0.1, 1, 10}).
		SetDataset("T_K", []float64{2e4, 3e5, 1.5e6})
	n.Child("coldens_ne8").
		SetDataset("impactpar_cm", []float64{1e22, 2e22}).
		SetDataset("coldens_cm2", []float64{3e13, 1e13})
	n.Child("search").Child("history").SetAttr("steps", 3)
	return n
}

func (s *StoreSuite) TestRoundTrip() {
	want := sampleNode()
	s.Require().NoError(s.st.Put(s.ctx, "z0.75_a", want))

	got, err := s.st.Get(s.ctx, "z0.75_a")
	s.Require().NoError(err)
	if diff := cmp.Diff(want, got); diff != "" {
		s.T().Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	v, ok := got.Float("iterations")
	s.True(ok)
	s.Equal(7.0, v)
	failed, ok := got.Bool("failed")
	s.True(ok)
	s.False(failed)
	ion, ok := got.Text("ion")
	s.True(ok)
	s.Equal("ne8", ion)
}

func (s *StoreSuite) TestDuplicateKeyRejected() {
	first := store.NewNode().SetAttr("mdot_MsunperYr", 1.0)
	s.Require().NoError(s.st.Put(s.ctx, "k", first))

	err := s.st.Put(s.ctx, "k", store.NewNode().SetAttr("mdot_MsunperYr", 2.0))
	s.Require().Error(err)
	s.ErrorIs(err, store.ErrDuplicateOutput)
	var dup *store.DuplicateError
	s.Require().True(errors.As(err, &dup))
	s.Equal("k", dup.Key)

	got, err := s.st.Get(s.ctx, "k")
	s.Require().NoError(err)
	v, _ := got.Float("mdot_MsunperYr")
	s.Equal(1.0, v, "first write survives")
}

func (s *StoreSuite) TestFailedMarker() {
	s.Require().NoError(s.st.Put(s.ctx, "bad", store.NewNode().SetAttr("failed", true)))
	got, err := s.st.Get(s.ctx, "bad")
	s.Require().NoError(err)
	s.Equal([]string{"failed"}, got.AttrNames())
	s.Empty(got.DatasetNames())
	s.Empty(got.ChildNames())
}

func (s *StoreSuite) TestKeysAndHas() {
	for _, k := range []string{"b", "a", "c"} {
		s.Require().NoError(s.st.Put(s.ctx, k, sampleNode()))
	}
	keys, err := s.st.Keys(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c"}, keys, "children are not listed")

	ok, err := s.st.Has(s.ctx, "b")
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.st.Has(s.ctx, "b/search")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.st.Get(s.ctx, "zzz")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestPrefixKeysStaySeparate() {
	// "a_b" and "a" share a prefix; neither may leak into the other.
	s.Require().NoError(s.st.Put(s.ctx, "a", store.NewNode().SetAttr("x", 1.0)))
	s.Require().NoError(s.st.Put(s.ctx, "a_b", sampleNode()))
	s.Require().NoError(s.st.Put(s.ctx, "a-c", sampleNode()))

	got, err := s.st.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Empty(got.ChildNames())
	s.Equal([]string{"x"}, got.AttrNames())
}

func (s *StoreSuite) TestRejectsBadInput() {
	s.ErrorIs(s.st.Put(s.ctx, "", store.NewNode()), store.ErrBadKey)
	s.ErrorIs(s.st.Put(s.ctx, "a/b", store.NewNode()), store.ErrBadKey)

	n := store.NewNode()
	n.Attrs["when"] = []int{1}
	s.ErrorIs(s.st.Put(s.ctx, "k", n), store.ErrUnsupportedAttr)

	n = store.NewNode()
	n.Children["x/y"] = store.NewNode()
	s.ErrorIs(s.st.Put(s.ctx, "k", n), store.ErrBadKey)

	ok, err := s.st.Has(s.ctx, "k")
	s.Require().NoError(err)
	s.False(ok, "rejected writes leave nothing behind")
}

func (s *StoreSuite) TestConcurrentPutsOfSameKey() {
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.st.Put(s.ctx, "shared", sampleNode())
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrDuplicateOutput):
			dup++
		}
	}
	s.Equal(1, ok)
	s.Equal(7, dup)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "halos.sqlite")
	ctx := context.Background()

	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, "k", sampleNode()))
	require.NoError(t, st.Close())

	st, err = store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	err = st.Put(ctx, "k", sampleNode())
	assert.ErrorIs(t, err, store.ErrDuplicateOutput)
	assert.Equal(t, path, st.Path())
}
