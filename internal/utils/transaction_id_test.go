package utils

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTransactionID(t *testing.T) {
	id := GenerateTransactionID()
	assert.True(t, strings.HasPrefix(id, "TS"))
	assert.Greater(t, len(id), 11, "expected timestamp plus random suffix")
}

func TestGenerateTransactionIDUnique(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				ids = append(ids, GenerateTransactionID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "transaction ids must not collide under concurrency")
}
