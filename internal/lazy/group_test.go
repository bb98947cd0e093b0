package lazy_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/lazy"
)

type fakeHandle struct {
	path string
	url  string
}

// countingAcquirer records every acquisition and release
type countingAcquirer struct {
	mu       sync.Mutex
	acquired int
	released int
	err      error
}

func (c *countingAcquirer) Acquire() (*fakeHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acquired++
	if c.err != nil {
		return nil, c.err
	}
	return &fakeHandle{path: "lib/vendor", url: "https://example.com/vendor.git"}, nil
}

func (c *countingAcquirer) Release(*fakeHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released++
}

func TestGroupAcquiresOnce(t *testing.T) {
	t.Run("siblings share one acquisition regardless of read order", func(t *testing.T) {
		orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}
		for _, order := range orders {
			acq := &countingAcquirer{}
			g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
			path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })
			url := lazy.Register(g, "url", func(h *fakeHandle) (string, error) { return h.url, nil })
			size := lazy.Register(g, "len", func(h *fakeHandle) (int, error) { return len(h.path), nil })

			reads := []func(){
				func() { v, err := path.Value(); require.NoError(t, err); require.Equal(t, "lib/vendor", v) },
				func() { v, err := url.Value(); require.NoError(t, err); require.Equal(t, "https://example.com/vendor.git", v) },
				func() { v, err := size.Value(); require.NoError(t, err); require.Equal(t, 10, v) },
			}
			for _, i := range order {
				reads[i]()
			}

			require.Equal(t, 1, acq.acquired)
			require.Equal(t, 1, acq.released)
			require.Equal(t, 1, g.Acquisitions())
		}
	})

	t.Run("first read resolves every sibling", func(t *testing.T) {
		acq := &countingAcquirer{}
		g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
		path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })
		url := lazy.Register(g, "url", func(h *fakeHandle) (string, error) { return h.url, nil })

		require.Equal(t, lazy.Unresolved, url.State())
		_, err := path.Value()
		require.NoError(t, err)
		require.Equal(t, lazy.Resolved, url.State())
	})

	t.Run("concurrent reads never duplicate native work", func(t *testing.T) {
		acq := &countingAcquirer{}
		g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
		path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })
		url := lazy.Register(g, "url", func(h *fakeHandle) (string, error) { return h.url, nil })

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					_, _ = path.Value()
				} else {
					_, _ = url.Value()
				}
			}(i)
		}
		wg.Wait()

		require.Equal(t, 1, acq.acquired)
		require.Equal(t, 1, acq.released)
	})
}

func TestAttributeCachesValue(t *testing.T) {
	calls := 0
	g := lazy.NewGroup[*fakeHandle]("blob 1234", &countingAcquirer{})
	attr := lazy.Register(g, "path", func(h *fakeHandle) (*string, error) {
		calls++
		if calls > 1 {
			t.Fatal("attribute evaluated twice")
		}
		return &h.path, nil
	})

	first, err := attr.Value()
	require.NoError(t, err)
	second, err := attr.Value()
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestAcquisitionFailure(t *testing.T) {
	t.Run("every attribute reports the same cause", func(t *testing.T) {
		cause := errors.New("object store unreachable")
		acq := &countingAcquirer{err: cause}
		g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
		path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })
		url := lazy.Register(g, "url", func(h *fakeHandle) (string, error) { return h.url, nil })

		p, pathErr := path.Value()
		require.Error(t, pathErr)
		require.Empty(t, p)
		u, urlErr := url.Value()
		require.Error(t, urlErr)
		require.Empty(t, u)

		require.Same(t, pathErr, urlErr)
		require.ErrorIs(t, pathErr, cause)
		require.ErrorIs(t, pathErr, treelineerrors.ErrAcquisition)

		var resolutionErr *treelineerrors.ResolutionError
		require.ErrorAs(t, pathErr, &resolutionErr)
		require.Equal(t, "submodule vendor", resolutionErr.Identity)

		require.Equal(t, 1, acq.acquired)
		require.Equal(t, 0, acq.released)
		require.Equal(t, lazy.Failed, path.State())
	})

	t.Run("failure is sticky until Retry", func(t *testing.T) {
		acq := &countingAcquirer{err: errors.New("locked")}
		g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
		path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })

		_, err := path.Value()
		require.Error(t, err)
		_, err = path.Value()
		require.Error(t, err)
		require.Equal(t, 1, acq.acquired)

		acq.err = nil
		g.Retry()
		v, err := path.Value()
		require.NoError(t, err)
		require.Equal(t, "lib/vendor", v)
		require.Equal(t, 2, acq.acquired)
		require.Equal(t, 1, acq.released)
	})
}

func TestEvaluationFailureIsIsolated(t *testing.T) {
	acq := &countingAcquirer{}
	g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
	broken := lazy.Register(g, "ignore", func(*fakeHandle) (string, error) {
		return "", errors.New("unknown ignore rule")
	})
	path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })

	_, err := broken.Value()
	require.Error(t, err)
	require.NotErrorIs(t, err, treelineerrors.ErrAcquisition)

	v, err := path.Value()
	require.NoError(t, err)
	require.Equal(t, "lib/vendor", v)

	g.Retry()
	require.Equal(t, lazy.Failed, broken.State())
	require.Equal(t, 1, acq.acquired)
	require.Equal(t, 1, acq.released)
}

func TestPanicReleasesHandle(t *testing.T) {
	acq := &countingAcquirer{}
	g := lazy.NewGroup[*fakeHandle]("submodule vendor", acq)
	path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })
	boom := lazy.Register(g, "boom", func(*fakeHandle) (string, error) { panic("corrupt handle") })

	require.Panics(t, func() { _, _ = boom.Value() })
	require.Equal(t, 1, acq.released)
	require.Equal(t, lazy.Unresolved, boom.State())
	require.NotEqual(t, lazy.Resolving, path.State())
}

func TestRegisterAfterResolutionPanics(t *testing.T) {
	g := lazy.NewGroup[*fakeHandle]("submodule vendor", &countingAcquirer{})
	path := lazy.Register(g, "path", func(h *fakeHandle) (string, error) { return h.path, nil })
	_, err := path.Value()
	require.NoError(t, err)

	require.Panics(t, func() {
		lazy.Register(g, "url", func(h *fakeHandle) (string, error) { return h.url, nil })
	})
}

func TestSingleton(t *testing.T) {
	size := lazy.Singleton(int64(42))
	v, err := size.Value()
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
}

func TestOnce(t *testing.T) {
	calls := 0
	attr := lazy.Once("branch main", "tracked", func() (string, error) {
		calls++
		return "refs/remotes/origin/main", nil
	})

	for i := 0; i < 3; i++ {
		v, err := attr.Value()
		require.NoError(t, err)
		require.Equal(t, "refs/remotes/origin/main", v)
	}
	require.Equal(t, 1, calls)
}
