package watcher_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/agrospai/fastrag/internal/adapters/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(100 * time.Millisecond)

		d.Add("/project/fastrag.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/project/docs/b.md")
		d.Add("/project/docs/a.md")
		d.Add("/project/docs/a.md")

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		select {
		case <-d.Batches():
			t.Fatal("window was restarted by the last add")
		default:
		}

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		select {
		case paths := <-d.Batches():
			assert.Equal(t, []string{"/project/docs/a.md", "/project/docs/b.md", "/project/fastrag.yaml"}, paths)
		default:
			t.Fatal("expected a batch")
		}
	})
}

func TestDebouncer_MergesUnconsumedBatches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10 * time.Millisecond)

		d.Add("/a")
		time.Sleep(20 * time.Millisecond)
		d.Add("/b")
		d.Add("/a")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()

		require.Len(t, d.Batches(), 1)
		assert.Equal(t, []string{"/a", "/b"}, <-d.Batches())
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(time.Hour)

		d.Flush()
		assert.Empty(t, d.Batches(), "flush without paths sends nothing")

		d.Add("/x")
		d.Flush()
		assert.Equal(t, []string{"/x"}, <-d.Batches())

		time.Sleep(2 * time.Hour)
		synctest.Wait()
		assert.Empty(t, d.Batches(), "the stopped timer does not fire again")
	})
}

func TestNewDebouncer_DefaultWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(0)
		d.Add("/x")

		time.Sleep(watcher.DefaultDebounceWindow - time.Millisecond)
		synctest.Wait()
		assert.Empty(t, d.Batches())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, d.Batches(), 1)
	})
}
