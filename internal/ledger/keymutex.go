package ledger

import (
	"hash/fnv"
	"sync"
)

const keyMutexStripes = 64

// KeyMutex serializes work on a string key. Services hold it across the
// store write and the event publication that follows, so sinks observe the
// events for a key in commit order. Keys are striped over a fixed set of
// mutexes; distinct keys may share a stripe and over-serialize, which is
// harmless. The zero value is ready to use.
type KeyMutex struct {
	stripes [keyMutexStripes]sync.Mutex
}

func (m *KeyMutex) Lock(key string) {
	m.stripe(key).Lock()
}

func (m *KeyMutex) Unlock(key string) {
	m.stripe(key).Unlock()
}

func (m *KeyMutex) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.stripes[h.Sum32()%keyMutexStripes]
}
