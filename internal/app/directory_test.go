package app

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

var codeFormat = regexp.MustCompile(`^ALLEY-[A-Z0-9]{4}$`)

func TestDirectoryCreateFormat(t *testing.T) {
	d := NewDirectory(0)
	rc, err := d.Create("192.168.1.50")
	assert.Equal(t, err, nil)
	assert.Equal(t, codeFormat.MatchString(rc.Code), true)
	assert.Equal(t, rc.Address, "192.168.1.50")
}

func TestDirectoryLoopbackNormalization(t *testing.T) {
	d := NewDirectory(0)

	rc, _ := d.Create("127.0.0.1")
	assert.Equal(t, rc.Address, "localhost")

	rc, _ = d.Create("::1")
	assert.Equal(t, rc.Address, "localhost")

	rc, _ = d.Create("127.0.0.1:54321")
	assert.Equal(t, rc.Address, "localhost")
}

func TestDirectoryConcurrentCreatesAreDistinct(t *testing.T) {
	d := NewDirectory(0)
	const n = 64

	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rc, err := d.Create("10.0.0.1")
			if err != nil {
				t.Error(err)
				return
			}
			codes[i] = rc.Code
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, code := range codes {
		assert.Equal(t, codeFormat.MatchString(code), true)
		assert.Equal(t, seen[code], false)
		seen[code] = true
	}
	assert.Equal(t, d.Count(), n)
}

func TestDirectoryLookupCaseInsensitive(t *testing.T) {
	d := NewDirectory(0)
	rc, _ := d.Create("10.0.0.1")

	got, ok := d.Lookup(rc.Code)
	assert.Equal(t, ok, true)
	assert.Equal(t, got.Code, rc.Code)

	lower, ok := d.Lookup("alley-" + rc.Code[len("ALLEY-"):])
	assert.Equal(t, ok, true)
	assert.Equal(t, lower, got)
}

func TestDirectoryLifecycle(t *testing.T) {
	d := NewDirectory(0)
	first, _ := d.Create("10.0.0.1")
	second, _ := d.Create("10.0.0.2")
	assert.NotEqual(t, first.Code, second.Code)

	got, ok := d.Lookup(first.Code)
	assert.Equal(t, ok, true)
	assert.Equal(t, got.Address, "10.0.0.1")

	assert.Equal(t, d.Delete(first.Code), true)
	_, ok = d.Lookup(first.Code)
	assert.Equal(t, ok, false)

	// Deleting again reports not found rather than failing.
	assert.Equal(t, d.Delete(first.Code), false)

	_, ok = d.Lookup(second.Code)
	assert.Equal(t, ok, true)
}

func TestDirectoryListOldestFirst(t *testing.T) {
	d := NewDirectory(0)
	a, _ := d.Create("10.0.0.1")
	time.Sleep(time.Millisecond)
	b, _ := d.Create("10.0.0.2")

	live := d.List()
	assert.Equal(t, len(live), 2)
	assert.Equal(t, live[0].Code, a.Code)
	assert.Equal(t, live[1].Code, b.Code)
}

func TestDirectoryCapacity(t *testing.T) {
	d := NewDirectory(2)
	_, err := d.Create("10.0.0.1")
	assert.Equal(t, err, nil)
	_, err = d.Create("10.0.0.1")
	assert.Equal(t, err, nil)
	_, err = d.Create("10.0.0.1")
	assert.Equal(t, err, ErrDirectoryFull)

	// Deleting frees capacity.
	live := d.List()
	assert.Equal(t, d.Delete(live[0].Code), true)
	_, err = d.Create("10.0.0.1")
	assert.Equal(t, err, nil)
}
