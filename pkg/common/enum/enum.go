package enum

type KVStoreType string

const (
	KVStoreTypeBadger KVStoreType = "badger"
	KVStoreTypeMemory KVStoreType = "memory"
)

type LedgerType string

const (
	LedgerTypeRedis  LedgerType = "redis"
	LedgerTypeMemory LedgerType = "memory"
)
