// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"bytes"
	"testing"
)

func TestAcquireBufferIsEmpty(t *testing.T) {
	b := acquireBuffer()
	b.WriteString("stale")
	releaseBuffer(b)

	for range 10 {
		b := acquireBuffer()
		if b.Len() != 0 {
			t.Fatalf("acquired buffer holds %q", b.String())
		}
		releaseBuffer(b)
	}
}

func TestReleaseDropsOversizedBuffers(t *testing.T) {
	b := bytes.NewBuffer(make([]byte, 0, maxPooledBuffer+1))
	b.WriteString("large")
	releaseBuffer(b)
	if b.Len() == 0 {
		t.Fatal("oversized buffer was reset for reuse")
	}
}

func TestEncodeRecipeAllocations(t *testing.T) {
	ds := []Decision{
		{Kind: DecisionSize, Size: 2},
		{Kind: DecisionInput, Input: 7},
		{Kind: DecisionChoice, Index: 1, Of: 3},
	}
	want := encodeDecisions(ds)
	allocs := testing.AllocsPerRun(100, func() {
		if got := encodeDecisions(ds); got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	})
	// The recipe document and the result string dominate; the buffer is pooled.
	if allocs > 20 {
		t.Errorf("encodeDecisions allocs = %v; want at most 20", allocs)
	}
}
