package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/config"
	"github.com/tuannm99/novabuf/pkg/lrukx"
)

// A hot page touched twice, then a one-off scan, then the hot page again.
const scanTrace = `
# hot page
get 1 lookup
put 1
get 1 lookup
put 1

# sequential scan
get 10 scan
put 10
get 11 scan
put 11
get 12 scan
dirty 12

get 1 lookup
put 1
`

func TestParseTrace(t *testing.T) {
	ops, err := ParseTrace(strings.NewReader(scanTrace))
	require.NoError(t, err)
	require.Len(t, ops, 12)

	require.Equal(t, Op{Kind: OpGet, PageID: 1, Access: lrukx.AccessLookup}, ops[0])
	require.Equal(t, Op{Kind: OpPut, PageID: 1}, ops[1])
	require.Equal(t, Op{Kind: OpGet, PageID: 10, Access: lrukx.AccessScan}, ops[4])
	require.Equal(t, Op{Kind: OpDirty, PageID: 12}, ops[9])

	ops, err = ParseTrace(strings.NewReader("get 3\ndrop 3\n"))
	require.NoError(t, err)
	require.Equal(t, lrukx.AccessUnknown, ops[0].Access)
	require.Equal(t, OpDrop, ops[1].Kind)
}

func TestParseTrace_Malformed(t *testing.T) {
	for _, in := range []string{"get", "get x", "pin 3", "get -1"} {
		_, err := ParseTrace(strings.NewReader(in))
		require.ErrorIs(t, err, ErrBadTrace, in)
	}
}

func TestRun_LRUKResistsScan(t *testing.T) {
	ops, err := ParseTrace(strings.NewReader(scanTrace))
	require.NoError(t, err)

	base := bufferpool.Options{Capacity: 2, K: 2}

	base.Policy = bufferpool.PolicyLRUK
	lruk, err := Run(ops, base, bufferpool.NewMemStore(64))
	require.NoError(t, err)
	require.Equal(t, bufferpool.PoolStats{Hits: 2, Misses: 4, Evictions: 2, Flushes: 1}, lruk.Stats)

	base.Policy = bufferpool.PolicyLRU
	lru, err := Run(ops, base, bufferpool.NewMemStore(64))
	require.NoError(t, err)
	require.Equal(t, uint64(1), lru.Stats.Hits)
	require.Equal(t, uint64(5), lru.Stats.Misses)

	require.Greater(t, lruk.HitRatio(), lru.HitRatio())
}

func TestRun_CountsStalls(t *testing.T) {
	ops, err := ParseTrace(strings.NewReader("get 1\nget 2\nput 2\nput 1\n"))
	require.NoError(t, err)

	res, err := Run(ops, bufferpool.Options{Capacity: 1, Policy: bufferpool.PolicyLRUK, K: 2}, bufferpool.NewMemStore(64))
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Stalls)
	require.Equal(t, uint64(2), res.Stats.Misses)
}

func TestCompare_AllPolicies(t *testing.T) {
	ops, err := ParseTrace(strings.NewReader(scanTrace))
	require.NoError(t, err)

	results, err := Compare(context.Background(), ops, bufferpool.Policies,
		bufferpool.Options{Capacity: 2, K: 2}, MemStores(64))
	require.NoError(t, err)
	require.Len(t, results, len(bufferpool.Policies))

	for i, res := range results {
		require.Equal(t, bufferpool.Policies[i], res.Policy)
		require.Equal(t, uint64(6), res.Stats.Hits+res.Stats.Misses)
	}
}

func TestCompare_UnknownPolicy(t *testing.T) {
	_, err := Compare(context.Background(), nil, []bufferpool.Policy{"mru"},
		bufferpool.Options{Capacity: 2, K: 2}, MemStores(64))
	require.ErrorIs(t, err, bufferpool.ErrUnknownPolicy)
}

func TestResult_HitRatio_Empty(t *testing.T) {
	require.Zero(t, Result{}.HitRatio())
}

func TestCompare_FileStores(t *testing.T) {
	ops, err := ParseTrace(strings.NewReader(scanTrace))
	require.NoError(t, err)

	dir := t.TempDir()
	results, err := Compare(context.Background(), ops,
		[]bufferpool.Policy{bufferpool.PolicyLRUK, bufferpool.PolicyLRU},
		bufferpool.Options{Capacity: 2, K: 2}, FileStores(dir, 512))
	require.NoError(t, err)
	require.Equal(t, uint64(2), results[0].Stats.Hits)
	require.Equal(t, uint64(1), results[1].Stats.Hits)

	// Page 12 was unpinned dirty and flushed into each policy's own segment.
	for _, p := range []string{"lru-k", "lru"} {
		info, err := os.Stat(filepath.Join(dir, p, "pages"))
		require.NoError(t, err)
		require.Equal(t, int64(13*512), info.Size())
	}
}

func TestCompare_SampleTraceWithConfig(t *testing.T) {
	cfg, err := config.LoadConfig("../../novabuf.yaml")
	require.NoError(t, err)

	f, err := os.Open("../../testdata/scan.trace")
	require.NoError(t, err)
	defer f.Close()

	ops, err := ParseTrace(f)
	require.NoError(t, err)

	results, err := Compare(context.Background(), ops,
		[]bufferpool.Policy{bufferpool.PolicyLRUK, bufferpool.PolicyLRU},
		cfg.PoolOptions(nil), MemStores(cfg.BufferPool.PageSize))
	require.NoError(t, err)

	require.Equal(t, uint64(5), results[0].Stats.Hits)
	require.Equal(t, uint64(7), results[0].Stats.Misses)
	require.Equal(t, uint64(2), results[1].Stats.Hits)
	require.Equal(t, uint64(10), results[1].Stats.Misses)
}
