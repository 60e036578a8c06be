package cart

import (
	"hash/fnv"
	"sync"
)

// lockShards — количество полос; памяти фиксированное, сессии хэшируются.
const lockShards = 64

// sessionLocks сериализует мутации одной сессии внутри процесса. Конфликты
// версий от других инстансов разруливает optimistic locking хранилища.
type sessionLocks struct {
	shards [lockShards]sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{}
}

// lock блокирует полосу сессии и возвращает функцию разблокировки.
func (l *sessionLocks) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	shard := &l.shards[h.Sum32()%lockShards]
	shard.Lock()
	return shard.Unlock
}
